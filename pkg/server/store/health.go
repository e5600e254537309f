package store

import "context"

// SchemaState is the migration bookkeeping of the database.
type SchemaState struct {
	Version uint
	Dirty   bool
}

// HealthStore backs GET /health.
type HealthStore interface {
	Ping(ctx context.Context) error
	// Schema returns nil before the first migration.
	Schema(ctx context.Context) (*SchemaState, error)
}
