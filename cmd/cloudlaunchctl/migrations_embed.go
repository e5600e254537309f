//go:build embed_migrations

package main

import (
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/cloudlaunch/cloudlaunch-go/db"
)

// migrationSource serves the migrations compiled into the binary.
func migrationSource() (string, source.Driver, error) {
	migrationsFS, err := fs.Sub(db.Migrations, "migrations")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get embedded migrations: %w", err)
	}

	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}
	return "iofs", d, nil
}
