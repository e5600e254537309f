package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/tasks"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Database      string `json:"database"`
	Queue         string `json:"queue"`
	SchemaVersion *uint  `json:"schema_version,omitempty"`
	SchemaDirty   bool   `json:"schema_dirty,omitempty"`
}

// RegisterRootEndpoints registers the API root and the health check.
func RegisterRootEndpoints(s *server.Server) {
	s.API.HandleFunc("/", handleAPIRoot()).Methods("GET")
	s.Router.HandleFunc("/health", handleHealth(s.HealthStore, s.Broker)).Methods("GET")
}

func handleAPIRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, links(r, "/",
			"applications", "infrastructure", "deployments", "auth", "public_services"))
	}
}

func handleHealth(healthStore store.HealthStore, broker tasks.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", Database: "ok", Queue: "ok"}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := healthStore.Ping(ctx); err != nil {
			log.WithError(err).Warn("database health check failed")
			resp.Status, resp.Database = "error", "unavailable"
		} else if schema, err := healthStore.Schema(ctx); err == nil && schema != nil {
			resp.SchemaVersion = &schema.Version
			resp.SchemaDirty = schema.Dirty
		}

		if broker == nil {
			resp.Status, resp.Queue = "error", "not configured"
		} else if err := broker.Ping(ctx); err != nil {
			log.WithError(err).Warn("queue health check failed")
			resp.Status, resp.Queue = "error", "unavailable"
		}

		code := http.StatusOK
		if resp.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		respondWithJSON(w, code, resp)
	}
}
