package endpoints

import (
	"net/http"
	"strings"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/geolocation"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/middleware"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// RegisterPublicServicesEndpoints registers the public services catalog.
// Sponsors and locations are registered ahead of the {slug} routes so they
// are not taken for service slugs.
func RegisterPublicServicesEndpoints(s *server.Server) {
	services := s.PublicServicesStore
	locator := s.Locator
	if !s.Config.GeolocationEnabled {
		locator = nil
	}

	public := s.API.PathPrefix("/public_services").Subrouter()
	public.Use(s.Auth.Optional)
	public.HandleFunc("/", handleListPublicServices(services, s.Config)).Methods("GET")
	public.HandleFunc("/sponsors/", handleListSponsors(services, s.Config)).Methods("GET")
	public.HandleFunc("/sponsors/{id:[0-9]+}/", handleGetSponsor(services)).Methods("GET")
	public.HandleFunc("/locations/", handleListLocations(services, s.Config)).Methods("GET")
	public.HandleFunc("/locations/{id:[0-9]+}/", handleGetLocation(services)).Methods("GET")
	public.HandleFunc("/{slug}/", handleGetPublicService(services)).Methods("GET")

	staff := s.API.PathPrefix("/public_services").Subrouter()
	staff.Use(s.Auth.Middleware, middleware.RequireStaff)
	staff.HandleFunc("/", handleCreatePublicService(services, locator)).Methods("POST")
	staff.HandleFunc("/sponsors/", handleCreateSponsor(services)).Methods("POST")
	staff.HandleFunc("/{slug}/", handleUpdatePublicService(services, locator)).Methods("PUT", "PATCH")
	staff.HandleFunc("/{slug}/", handleDeletePublicService(services)).Methods("DELETE")
}

// listPage runs a paginated store listing and writes the page.
func listPage[T any](w http.ResponseWriter, r *http.Request, cfg *config.Config, list func(store.Page) ([]T, int64, error)) {
	p, err := parsePage(r, cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	results, count, err := list(p.store())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if results == nil {
		results = []T{}
	}
	page, err := paginate(r, p, count, results)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func handleListPublicServices(services store.PublicServicesStore, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listPage(w, r, cfg, services.ListPublicServices)
	}
}

func handleListSponsors(services store.PublicServicesStore, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listPage(w, r, cfg, services.ListSponsors)
	}
}

func handleListLocations(services store.PublicServicesStore, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listPage(w, r, cfg, services.ListLocations)
	}
}

func handleGetSponsor(services store.PublicServicesStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uintVar(r, "id")
		if err != nil {
			writeError(w, r, errNotFound)
			return
		}
		sponsor, err := services.GetSponsor(id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, sponsor)
	}
}

func handleCreateSponsor(services store.PublicServicesStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sponsor model.Sponsor
		if err := decodeJSON(r, &sponsor); err != nil {
			writeError(w, r, err)
			return
		}
		sponsor.ID = 0
		if err := requiredFields(map[string]string{"name": sponsor.Name}); err != nil {
			writeError(w, r, err)
			return
		}
		if err := services.CreateSponsor(&sponsor); err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, sponsor)
	}
}

func handleGetLocation(services store.PublicServicesStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uintVar(r, "id")
		if err != nil {
			writeError(w, r, errNotFound)
			return
		}
		loc, err := services.GetLocation(id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, loc)
	}
}

func handleGetPublicService(services store.PublicServicesStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := services.GetPublicService(pathVar(r, "slug"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, svc)
	}
}

// locate resolves the location of the service's first link and stores it.
// A nil locator leaves the service without a location.
func locate(r *http.Request, services store.PublicServicesStore, locator geolocation.Locator, svc *model.PublicService) error {
	if locator == nil {
		return nil
	}
	link := strings.Fields(strings.ReplaceAll(svc.Links, ",", " "))
	if len(link) == 0 {
		return nil
	}
	host := geolocation.HostOf(link[0])
	if host == "" {
		return fieldError("links", "Enter a valid URL.")
	}
	found, err := locator.Locate(r.Context(), host)
	if err != nil {
		return newAPIError(http.StatusBadGateway, "Could not determine the location of %s.", host)
	}
	loc := &model.Location{
		Latitude:  found.Latitude,
		Longitude: found.Longitude,
		City:      found.City,
		Country:   found.Country,
	}
	if err := services.FindOrCreateLocation(loc); err != nil {
		return err
	}
	svc.LocationID = &loc.ID
	svc.Location = loc
	return nil
}

func handleCreatePublicService(services store.PublicServicesStore, locator geolocation.Locator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var svc model.PublicService
		if err := decodeJSON(r, &svc); err != nil {
			writeError(w, r, err)
			return
		}
		svc.LocationID = nil
		svc.Location = nil
		if err := svc.Validate(); err != nil {
			writeError(w, r, err)
			return
		}
		if err := locate(r, services, locator, &svc); err != nil {
			writeError(w, r, err)
			return
		}
		if err := services.CreatePublicService(&svc); err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, svc)
	}
}

func handleUpdatePublicService(services store.PublicServicesStore, locator geolocation.Locator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc, err := services.GetPublicService(pathVar(r, "slug"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		slug, added, links := svc.Slug, svc.Added, svc.Links
		if err := decodeJSON(r, svc); err != nil {
			writeError(w, r, err)
			return
		}
		svc.Slug = slug
		svc.Added = added
		if err := svc.Validate(); err != nil {
			writeError(w, r, err)
			return
		}
		if svc.Links != links || svc.LocationID == nil {
			if err := locate(r, services, locator, svc); err != nil {
				writeError(w, r, err)
				return
			}
		}
		if err := services.UpdatePublicService(svc); err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, svc)
	}
}

func handleDeletePublicService(services store.PublicServicesStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := services.DeletePublicService(pathVar(r, "slug")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
