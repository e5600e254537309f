package endpoints

import (
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
)

// RegisterAll registers all API endpoints on the server. Order matters
// where prefixes overlap: the credentials collection sits under /auth/user
// and must be registered after the /auth routes it shares a prefix with.
func RegisterAll(srv *server.Server) {
	RegisterRootEndpoints(srv)
	RegisterApplicationsEndpoints(srv)
	RegisterInfrastructureEndpoints(srv)
	RegisterDeploymentsEndpoints(srv)
	RegisterAuthEndpoints(srv)
	RegisterCredentialsEndpoints(srv)
	RegisterPublicServicesEndpoints(srv)
}
