package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/encryption"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/telemetry"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run launch tasks queued by the API server",
	Long: `Run launch tasks queued by the API server.

The worker pulls tasks from REDIS_URL, which must be the queue the server
uses, and records their outcome on the deployment in DATABASE_URL. The data
key must match the server's since task credentials are sealed with it.

Example:
  cloudlaunchctl worker --concurrency 8`,
	Run: func(cmd *cobra.Command, args []string) {
		redisURL := os.Getenv(RedisURLEnv)
		if redisURL == "" {
			fmt.Fprintln(os.Stderr, RedisURLEnv+" environment variable is required")
			os.Exit(1)
		}
		cipher, err := encryption.FromEnv()
		exitOnError("Unable to initiate cipher", err)

		cfg, err := loadConfig()
		exitOnError("Invalid configuration", err)
		if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
			cfg.WorkerConcurrency = n
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := telemetry.Setup(ctx, "cloudlaunch-worker")
		exitOnError("Unable to set up tracing", err)
		defer func() { _ = shutdownTracing(context.Background()) }()

		database, err := connectDB(cipher)
		exitOnError("Unable to connect to DB", err)

		backend, err := openTaskBackend(ctx, cfg, redisURL)
		exitOnError("Unable to open task queue", err)
		defer func() { _ = backend.Close() }()

		exitOnError("Worker failed", newWorker(database, cfg, cloudRegistry(cfg), backend, cipher).Run(ctx))
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().IntP("concurrency", "c", 0, "number of tasks run at once (default: worker_concurrency)")
}
