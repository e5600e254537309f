package endpoints

import (
	"net/http"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/middleware"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// CloudResponse is a cloud with links to its resource trees.
type CloudResponse struct {
	model.Cloud
	Links map[string]string `json:"links"`
}

func cloudResponse(r *http.Request, c *model.Cloud) CloudResponse {
	return CloudResponse{
		Cloud: *c,
		Links: links(r, "/infrastructure/clouds/"+c.Slug+"/",
			"compute", "security", "networks", "block_store", "object_store", "deployments"),
	}
}

// RegisterInfrastructureEndpoints registers the clouds and every provider
// resource below them.
func RegisterInfrastructureEndpoints(s *server.Server) {
	clouds := s.CloudsStore

	infra := s.API.PathPrefix("/infrastructure").Subrouter()
	infra.Use(s.Auth.Middleware)

	infra.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"url": absURL(r, "/infrastructure/clouds/")})
	}).Methods("GET")
	infra.HandleFunc("/clouds/", handleListClouds(clouds, s.Config)).Methods("GET")
	infra.HandleFunc("/clouds/{cloud}/", handleGetCloud(clouds)).Methods("GET")

	staff := s.API.PathPrefix("/infrastructure/clouds").Subrouter()
	staff.Use(s.Auth.Middleware, middleware.RequireStaff)
	staff.HandleFunc("/", handleCreateCloud(clouds)).Methods("POST")
	staff.HandleFunc("/{cloud}/", handleUpdateCloud(clouds)).Methods("PUT", "PATCH")
	staff.HandleFunc("/{cloud}/", handleDeleteCloud(clouds)).Methods("DELETE")

	resources := infra.PathPrefix("/clouds/{cloud}").Subrouter()
	p := newProviderResolver(s)
	registerComputeEndpoints(resources, p)
	registerSecurityEndpoints(resources, p)
	registerNetworkEndpoints(resources, p)
	registerBlockStoreEndpoints(resources, p)
	registerObjectStoreEndpoints(resources, p)
	resources.HandleFunc("/deployments/", handleListCloudDeployments(s.DeploymentsStore, s.Results, s.Config)).Methods("GET")
}

func handleListClouds(clouds store.CloudsStore, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parsePage(r, cfg)
		if err != nil {
			writeError(w, r, err)
			return
		}
		list, count, err := clouds.ListClouds(p.store())
		if err != nil {
			writeError(w, r, err)
			return
		}
		results := make([]CloudResponse, 0, len(list))
		for i := range list {
			results = append(results, cloudResponse(r, &list[i]))
		}
		page, err := paginate(r, p, count, results)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, page)
	}
}

func handleGetCloud(clouds store.CloudsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := clouds.GetCloud(pathVar(r, "cloud"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, cloudResponse(r, c))
	}
}

func handleCreateCloud(clouds store.CloudsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c model.Cloud
		if err := decodeJSON(r, &c); err != nil {
			writeError(w, r, err)
			return
		}
		if err := clouds.CreateCloud(&c); err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusCreated, cloudResponse(r, &c))
	}
}

func handleUpdateCloud(clouds store.CloudsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := clouds.GetCloud(pathVar(r, "cloud"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		slug, kind, added := c.Slug, c.Kind, c.Added
		if err := decodeJSON(r, c); err != nil {
			writeError(w, r, err)
			return
		}
		c.Slug, c.Kind, c.Added = slug, kind, added
		if err := clouds.UpdateCloud(c); err != nil {
			writeError(w, r, err)
			return
		}
		respondWithJSON(w, http.StatusOK, cloudResponse(r, c))
	}
}

func handleDeleteCloud(clouds store.CloudsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := clouds.DeleteCloud(pathVar(r, "cloud")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// linksHandler answers a resource tree root with links to its children.
func linksHandler(names ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		base := baseURL(r)
		path := r.URL.EscapedPath()
		out := make(map[string]string, len(names))
		for _, name := range names {
			out[name] = base + path + name + "/"
		}
		respondWithJSON(w, http.StatusOK, out)
	}
}

func respondList[T any](w http.ResponseWriter, items []T, err error) error {
	if err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	respondWithJSON(w, http.StatusOK, items)
	return nil
}

func respondItem[T any](w http.ResponseWriter, code int, item *T, err error) error {
	if err != nil {
		return err
	}
	respondWithJSON(w, code, item)
	return nil
}

func respondDeleted(w http.ResponseWriter, err error) error {
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
