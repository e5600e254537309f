//go:build !embed_migrations

package main

import (
	"os"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/file"
)

const defaultMigrationsPath = "db/migrations"

// MigrationsPathEnv overrides the directory migrations are read from.
const MigrationsPathEnv = "CLOUDLAUNCH_MIGRATIONS_PATH"

func migrationSource() (string, source.Driver, error) {
	path := defaultMigrationsPath
	if p := os.Getenv(MigrationsPathEnv); p != "" {
		path = p
	}
	log.Infof("running migrations from file://%s", path)
	d, err := (&file.File{}).Open("file://" + path)
	if err != nil {
		return "", nil, err
	}
	return "file", d, nil
}
