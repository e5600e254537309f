package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/audit"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud/aws"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud/memory"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud/openstack"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/db"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/deploy"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/encryption"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/launch"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/logging"
	gormstore "github.com/cloudlaunch/cloudlaunch-go/pkg/server/store/gorm"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/tasks"
)

// RedisURLEnv selects the Redis task queue. The in-memory queue is used
// when it is empty.
const RedisURLEnv = "REDIS_URL"

var log = logging.New("cloudlaunchctl")

// taskBackend is the broker and result backend pair launches go through.
type taskBackend struct {
	Broker  tasks.Broker
	Results tasks.ResultBackend
	// Shared is false for the in-memory queue, which only a worker in the
	// same process can drain.
	Shared bool
	close  func() error
}

func (b *taskBackend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

func openTaskBackend(ctx context.Context, cfg *config.Config, redisURL string) (*taskBackend, error) {
	if redisURL == "" {
		return &taskBackend{
			Broker:  tasks.NewMemoryBroker(256),
			Results: tasks.NewMemoryResults(),
		}, nil
	}
	rdb, err := tasks.NewRedisClient(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	ttl := tasks.WithResultTTL(cfg.ResultTTL())
	return &taskBackend{
		Broker:  tasks.NewRedisBroker(rdb, ttl),
		Results: tasks.NewRedisResults(rdb, ttl),
		Shared:  true,
		close:   rdb.Close,
	}, nil
}

// cloudRegistry knows the provider kinds clouds can be configured with.
func cloudRegistry(cfg *config.Config) *cloud.Registry {
	r := cloud.NewRegistry()
	r.Register(aws.Kind, aws.Open)
	r.Register(openstack.Kind, openstack.Open)
	if cfg.EnableDummyCloud {
		r.Register(memory.Kind, memory.NewFactory())
	}
	return r
}

// loadConfig reads the configuration file and environment. Unlike
// config.Get it never falls back to the defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// connectDB opens the application database and persists audit events to
// its audit_messages table.
func connectDB(cipher encryption.Cipher) (*gorm.DB, error) {
	if db.URL() == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	database, err := db.Connect(db.Config{
		Cipher:          cipher,
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	audit.UseStore(audit.NewStore(sqlDB))
	return database, nil
}

// newWorker builds a worker that runs launch tasks against the database.
func newWorker(database *gorm.DB, cfg *config.Config, clouds *cloud.Registry, backend *taskBackend, cipher encryption.Cipher) *tasks.Worker {
	registry := tasks.NewRegistry()
	deploy.NewLauncher(gormstore.NewDeploymentsStore(database), clouds, launch.DefaultRegistry, cipher).Register(registry)
	return tasks.NewWorker(backend.Broker, backend.Results, registry, cfg.WorkerConcurrency)
}

func exitOnError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}
