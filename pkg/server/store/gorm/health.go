package gorm

import (
	"context"

	"gorm.io/gorm"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/store"
)

// MigrationsTable is the golang-migrate bookkeeping table.
const MigrationsTable = "schema_migrations"

var _ store.HealthStore = (*HealthStore)(nil)

type HealthStore struct {
	db *gorm.DB
}

func NewHealthStore(db *gorm.DB) *HealthStore {
	return &HealthStore{db: db}
}

func (s *HealthStore) Ping(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}

func (s *HealthStore) Schema(ctx context.Context) (*store.SchemaState, error) {
	var rows []store.SchemaState
	err := s.db.WithContext(ctx).
		Raw("SELECT version, dirty FROM " + MigrationsTable + " LIMIT 1").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
