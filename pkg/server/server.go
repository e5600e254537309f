package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/encryption"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/geolocation"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/launch"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/logging"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/middleware"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
	gormstore "github.com/cloudlaunch/cloudlaunch-go/pkg/server/store/gorm"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/tasks"
)

// APIPrefix is the path every API route lives under.
const APIPrefix = "/api/v1"

// Options are the collaborators a Server is built from.
type Options struct {
	Config   *config.Config
	DB       *gorm.DB
	Cipher   encryption.Cipher
	Issuer   *auth.TokenIssuer
	Clouds   *cloud.Registry
	Handlers *launch.Registry
	Broker   tasks.Broker
	Results  tasks.ResultBackend
	Locator  geolocation.Locator
}

type Server struct {
	Config   *config.Config
	Router   *mux.Router
	API      *mux.Router
	DB       *gorm.DB
	Cipher   encryption.Cipher
	Issuer   *auth.TokenIssuer
	Clouds   *cloud.Registry
	Handlers *launch.Registry
	Broker   tasks.Broker
	Results  tasks.ResultBackend
	Locator  geolocation.Locator

	ApplicationsStore   store.ApplicationsStore
	CloudsStore         store.CloudsStore
	DeploymentsStore    store.DeploymentsStore
	UsersStore          store.UsersStore
	CredentialsStore    store.CredentialsStore
	PublicServicesStore store.PublicServicesStore
	HealthStore         store.HealthStore

	Auth        *middleware.TokenAuthenticator
	RateLimiter *middleware.RateLimiter

	srv *http.Server
}

func NewServer(opts Options, host string, port string) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Get()
	}

	router := mux.NewRouter().UseEncodedPath()
	router.Use(nameSpan)
	s := &Server{
		Config:   cfg,
		Router:   router,
		API:      router.PathPrefix(APIPrefix).Subrouter(),
		DB:       opts.DB,
		Cipher:   opts.Cipher,
		Issuer:   opts.Issuer,
		Clouds:   opts.Clouds,
		Handlers: opts.Handlers,
		Broker:   opts.Broker,
		Results:  opts.Results,
		Locator:  opts.Locator,

		ApplicationsStore:   gormstore.NewApplicationsStore(opts.DB),
		CloudsStore:         gormstore.NewCloudsStore(opts.DB),
		DeploymentsStore:    gormstore.NewDeploymentsStore(opts.DB),
		UsersStore:          gormstore.NewUsersStore(opts.DB),
		CredentialsStore:    gormstore.NewCredentialsStore(opts.DB),
		PublicServicesStore: gormstore.NewPublicServicesStore(opts.DB),
		HealthStore:         gormstore.NewHealthStore(opts.DB),

		RateLimiter: middleware.NewRateLimiter(cfg),
	}
	if s.Clouds == nil {
		s.Clouds = cloud.NewRegistry()
	}
	if s.Handlers == nil {
		s.Handlers = launch.DefaultRegistry
	}
	s.Auth = middleware.NewTokenAuthenticator(s.Issuer, s.UsersStore, cfg)

	s.srv = &http.Server{
		Handler: s.Handler(),
		Addr:    host + ":" + port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	return s
}

// Handler is the router wrapped in the server-wide middleware: access log,
// tracing, CORS and rate limiting.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router
	h = s.RateLimiter.Middleware(h)
	if len(s.Config.CORSAllowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.Config.CORSAllowedOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "cl-credentials-id",
				"cl-aws-access-key", "cl-aws-secret-key", "cl-os-username", "cl-os-password",
				"cl-os-tenant-name", "cl-os-project-name", "cl-os-project-domain-name",
				"cl-os-user-domain-name", "cl-os-identity-api-version"}),
		)(h)
	}
	h = otelhttp.NewHandler(h, "cloudlaunch")
	return handlers.LoggingHandler(logging.Writer(), h)
}

// nameSpan renames the request span after the matched route template,
// since the raw path carries ids.
func nameSpan(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				trace.SpanFromContext(r.Context()).SetName(r.Method + " " + tpl)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Start serves until the listener fails or Shutdown is called. The rate
// limiter's janitor stops with ctx.
func (s *Server) Start(ctx context.Context) error {
	go s.RateLimiter.Janitor(ctx, time.Minute)
	log.Infof("listening on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

var log = logging.New("server")
