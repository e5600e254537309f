// Package store provides storage abstractions for the CloudLaunch server.
//
// This package defines interfaces for database operations, allowing the
// server endpoints to be decoupled from the specific database implementation.
// Endpoint tests use testify mocks of these interfaces; pkg/server/store/gorm
// provides the Postgres implementations.
//
// # Available Stores
//
//   - ApplicationsStore: application catalog with versions and cloud configs
//   - CloudsStore: target clouds and their endpoints
//   - DeploymentsStore: launch requests and task bookkeeping
//   - UsersStore: accounts and API tokens
//   - CredentialsStore: per-user cloud credentials
//   - PublicServicesStore: public services, sponsors and locations
//   - HealthStore: database connectivity
//
// # Usage
//
//	clouds := gormstore.NewCloudsStore(db)
//	c, err := clouds.GetCloud("aws-us-east-1")
//	if err != nil {
//	    if errors.Is(err, store.ErrNotFound) {
//	        // Handle not found
//	    }
//	}
package store
