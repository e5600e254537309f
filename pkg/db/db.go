package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/encryption"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/logging"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
)

// URLEnv names the application database.
const URLEnv = "DATABASE_URL"

// Queries slower than this are logged at warn level.
const slowQueryThreshold = 500 * time.Millisecond

// Config describes the application database connection.
type Config struct {
	// URL defaults to DATABASE_URL.
	URL string
	// Cipher lets credential models seal and open their secrets.
	Cipher encryption.Cipher

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connect opens the Postgres database and applies the pool limits of cfg.
func Connect(cfg Config) (*gorm.DB, error) {
	dsn := cfg.URL
	if dsn == "" {
		dsn = URL()
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s environment variable is required", URLEnv)
	}

	database, err := Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), cfg.Cipher)
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return database, nil
}

// Open builds the GORM handle over dialector. SQL goes to the "db" logger:
// every statement at debug level, otherwise only slow queries and errors.
// Tests pass a sqlmock-backed dialector.
func Open(dialector gorm.Dialector, cipher encryption.Cipher) (*gorm.DB, error) {
	level := logger.Warn
	if logging.Debug() {
		level = logger.Info
	}
	sqlLog := logger.New(logging.New("db"), logger.Config{
		SlowThreshold: slowQueryThreshold,
		LogLevel:      level,
	})

	database, err := gorm.Open(dialector, &gorm.Config{Logger: sqlLog})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cipher != nil {
		database = database.WithContext(model.WithCipher(context.Background(), cipher))
	}
	return database, nil
}

// URL returns DATABASE_URL, or "" when unset.
func URL() string {
	return os.Getenv(URLEnv)
}
