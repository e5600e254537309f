// Package server provides the HTTP server for the CloudLaunch API.
//
// The Server struct holds the router, the stores and the collaborators the
// endpoints need: the cloud provider registry, the launch handler registry,
// the task broker and result backend, and the token issuer.
//
// # Server Setup
//
//	srv := server.NewServer(server.Options{DB: db, Cipher: cipher, ...}, "0.0.0.0", "8000")
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage under /api/v1:
//
//   - /applications/ - application catalog
//   - /infrastructure/clouds/{cloud}/... - provider resources of a cloud
//   - /deployments/ - launch requests
//   - /auth/ - login, registration, user details and stored credentials
//   - /public_services/ - public service catalog
//   - /health - database and queue connectivity
package server
