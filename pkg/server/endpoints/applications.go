package endpoints

import (
	"net/http"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/middleware"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// ApplicationResponse is an application with its rendered description.
type ApplicationResponse struct {
	model.Application
	DescriptionHTML string `json:"description_html"`
}

func applicationResponse(app *model.Application) ApplicationResponse {
	html, err := app.DescriptionHTML()
	if err != nil {
		log.WithError(err).WithField("application", app.Slug).Warn("failed to render description")
	}
	if app.Versions == nil {
		app.Versions = []model.ApplicationVersion{}
	}
	return ApplicationResponse{Application: *app, DescriptionHTML: html}
}

// RegisterApplicationsEndpoints registers the application catalog. Reads
// are public, writes are staff only.
func RegisterApplicationsEndpoints(s *server.Server) {
	apps := s.ApplicationsStore

	public := s.API.PathPrefix("/applications").Subrouter()
	public.Use(s.Auth.Optional)
	public.HandleFunc("/", handleListApplications(apps, s.Config)).Methods("GET")
	public.HandleFunc("/{slug}/", handleGetApplication(apps)).Methods("GET")

	staff := s.API.PathPrefix("/applications").Subrouter()
	staff.Use(s.Auth.Middleware, middleware.RequireStaff)
	staff.HandleFunc("/", handleCreateApplication(apps)).Methods("POST")
	staff.HandleFunc("/{slug}/", handleUpdateApplication(apps)).Methods("PUT", "PATCH")
	staff.HandleFunc("/{slug}/", handleDeleteApplication(apps)).Methods("DELETE")
}

func handleListApplications(apps store.ApplicationsStore, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parsePage(r, cfg)
		if err != nil {
			writeError(w, r, err)
			return
		}
		list, count, err := apps.ListApplications(p.store())
		if err != nil {
			writeError(w, r, err)
			return
		}
		results := make([]ApplicationResponse, 0, len(list))
		for i := range list {
			results = append(results, applicationResponse(&list[i]))
		}
		page, err := paginate(r, p, count, results)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, page)
	}
}

func handleGetApplication(apps store.ApplicationsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := apps.GetApplication(pathVar(r, "slug"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, applicationResponse(app))
	}
}

func handleCreateApplication(apps store.ApplicationsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var app model.Application
		if err := decodeJSON(r, &app); err != nil {
			writeError(w, r, err)
			return
		}
		if err := apps.CreateApplication(&app); err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, applicationResponse(&app))
	}
}

// handleUpdateApplication decodes the body over the stored application, so
// PATCH and PUT both leave omitted fields alone. The slug cannot change.
func handleUpdateApplication(apps store.ApplicationsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := apps.GetApplication(pathVar(r, "slug"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		slug, added := app.Slug, app.Added
		if err := decodeJSON(r, app); err != nil {
			writeError(w, r, err)
			return
		}
		app.Slug, app.Added = slug, added
		for i := range app.Versions {
			app.Versions[i].ApplicationSlug = slug
		}
		if err := apps.UpdateApplication(app); err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, applicationResponse(app))
	}
}

func handleDeleteApplication(apps store.ApplicationsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := apps.DeleteApplication(pathVar(r, "slug")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
