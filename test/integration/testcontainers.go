package integration

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/cloud/memory"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/db"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/deploy"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/encryption"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/launch"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/endpoints"
	gormstore "github.com/cloudlaunch/cloudlaunch-go/pkg/server/store/gorm"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/tasks"
)

const serverPort = "18080"

// TestContext holds all the resources needed for integration tests
type TestContext struct {
	DB            *gorm.DB
	Container     testcontainers.Container
	ServerURL     string
	DatabaseURL   string
	DataKey       []byte
	Cipher        encryption.Cipher
	HTTPClient    *http.Client
	Cancel        context.CancelFunc
	ServerProcess *exec.Cmd
	InlineServer  *server.Server
}

// NewTestContext creates a new test context with PostgreSQL testcontainer.
// Modes:
//   - Binary mode (default): Set CLOUDLAUNCH_BINARY to the path of the cloudlaunchctl binary
//   - Inline mode: Set CLOUDLAUNCH_INLINE=1 to run the server in-process (no binary needed)
//
// Either way the "dummy" cloud kind is enabled and launches run in the
// server process.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}
	migrationsDir := filepath.Join(projectRoot, "db", "migrations")

	inlineMode := os.Getenv("CLOUDLAUNCH_INLINE") == "1"
	binaryPath := os.Getenv("CLOUDLAUNCH_BINARY")

	if !inlineMode && binaryPath == "" {
		return nil, fmt.Errorf("Either CLOUDLAUNCH_BINARY or CLOUDLAUNCH_INLINE=1 is required.\n\nBinary mode:\n  go build -o cloudlaunchctl ./cmd/cloudlaunchctl\n  INTEGRATION_TEST=1 CLOUDLAUNCH_BINARY=$(pwd)/cloudlaunchctl go test -v ./test/integration/...\n\nInline mode:\n  INTEGRATION_TEST=1 CLOUDLAUNCH_INLINE=1 go test -v ./test/integration/...")
	}

	if !inlineMode {
		if _, err := os.Stat(binaryPath); err != nil {
			return nil, fmt.Errorf("CLOUDLAUNCH_BINARY path does not exist: %s", binaryPath)
		}
		log.Printf("Using binary: %s", binaryPath)
	} else {
		log.Println("Using inline server mode")
	}

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("cloudlaunch_test"),
		tcpostgres.WithUsername("cloudlaunch"),
		tcpostgres.WithPassword("cloudlaunch"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := runMigrations(connStr, migrationsDir); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dataKey := make([]byte, encryption.KeySize)
	for i := range dataKey {
		dataKey[i] = byte(i)
	}
	cipher, err := encryption.NewAESGCM(dataKey)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	database, err := db.Connect(db.Config{URL: connStr, Cipher: cipher})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}

	tc := &TestContext{
		DB:          database,
		Container:   pgContainer,
		ServerURL:   "http://127.0.0.1:" + serverPort,
		DatabaseURL: connStr,
		DataKey:     dataKey,
		Cipher:      cipher,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}

	if inlineMode {
		tc.InlineServer, tc.Cancel, err = startInlineServer(database, cipher, dataKey, serverPort)
	} else {
		tc.ServerProcess, tc.Cancel, err = startBinary(binaryPath, connStr, dataKey, serverPort)
	}
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to start server: %w", err)
	}

	if err := waitForServer(tc.ServerURL, 30*time.Second); err != nil {
		tc.Close(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return tc, nil
}

// startInlineServer wires the server the way "cloudlaunchctl server
// --inline-worker" does, with the in-memory queue and the dummy cloud.
func startInlineServer(database *gorm.DB, cipher encryption.Cipher, dataKey []byte, port string) (*server.Server, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg, err := config.Load()
	if err != nil {
		cancel()
		return nil, nil, err
	}
	cfg.EnableDummyCloud = true
	cfg.GeolocationEnabled = false
	cfg.RateLimitRPS = 0

	secret, err := auth.SecretFromEnv(dataKey)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	clouds := cloud.NewRegistry()
	clouds.Register(memory.Kind, memory.NewFactory())
	broker := tasks.NewMemoryBroker(64)
	results := tasks.NewMemoryResults()

	s := server.NewServer(server.Options{
		Config:   cfg,
		DB:       database,
		Cipher:   cipher,
		Issuer:   auth.NewTokenIssuer(secret, cfg.TokenLifetime()),
		Clouds:   clouds,
		Handlers: launch.DefaultRegistry,
		Broker:   broker,
		Results:  results,
	}, "127.0.0.1", port)
	endpoints.RegisterAll(s)

	registry := tasks.NewRegistry()
	deploy.NewLauncher(gormstore.NewDeploymentsStore(database), clouds, launch.DefaultRegistry, cipher).Register(registry)
	go func() { _ = tasks.NewWorker(broker, results, registry, 2).Run(ctx) }()

	go func() {
		_ = s.Start(ctx)
	}()

	return s, func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = s.Shutdown(shutdownCtx)
	}, nil
}

// startBinary starts the cloudlaunchctl server binary
func startBinary(binaryPath, dbURL string, dataKey []byte, port string) (*exec.Cmd, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Use --no-migrate since we already ran migrations in the test setup
	cmd := exec.CommandContext(ctx, binaryPath, "server", "--no-migrate", "--inline-worker", "-b", "127.0.0.1", "-p", port)
	cmd.Env = append(os.Environ(),
		"DATABASE_URL="+dbURL,
		encryption.DataKeyEnv+"="+base64.StdEncoding.EncodeToString(dataKey),
		"CLOUDLAUNCH_ENABLE_DUMMY_CLOUD=true",
		"CLOUDLAUNCH_GEOLOCATION_ENABLED=false",
		"CLOUDLAUNCH_RATE_LIMIT_RPS=0",
		"REDIS_URL=",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to start binary: %w", err)
	}

	return cmd, cancel, nil
}

// waitForServer polls the health check until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/health")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.Cancel != nil {
		tc.Cancel()
	}
	if tc.ServerProcess != nil && tc.ServerProcess.Process != nil {
		_ = tc.ServerProcess.Process.Kill()
		_ = tc.ServerProcess.Wait()
	}
	if tc.DB != nil {
		if sqlDB, err := tc.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}

// findProjectRoot locates the project root directory
func findProjectRoot() (string, error) {
	paths := []string{
		"../..",
		"..",
		".",
	}

	for _, p := range paths {
		goMod := filepath.Join(p, "go.mod")
		if _, err := os.Stat(goMod); err == nil {
			return filepath.Abs(p)
		}
	}

	return "", fmt.Errorf("project root not found (looking for go.mod)")
}

func runMigrations(dbURL, migrationsDir string) error {
	m, err := migrate.New("file://"+migrationsDir, dbURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
