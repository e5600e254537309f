package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/auth"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/encryption"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/geolocation"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/launch"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/server/endpoints"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/telemetry"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if p, err := strconv.Atoi(defaultPort()); err == nil {
		return p
	}
	return 8000
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the CloudLaunch API server",
	Long: `Run the CloudLaunch API server.

The server requires the environment variables CLOUDLAUNCH_DATA_KEY and
DATABASE_URL. Launch tasks are queued on REDIS_URL for "cloudlaunchctl worker"
processes; without it they are queued in memory and the server always runs
them itself.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		dataKey, err := encryption.KeyFromEnv()
		exitOnError("Bad data key", err)
		cipher, err := encryption.NewAESGCM(dataKey)
		exitOnError("Unable to initiate cipher", err)
		secret, err := auth.SecretFromEnv(dataKey)
		exitOnError("Unable to read token secret", err)

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Info("running database migrations")
			exitOnError("Migration failed", runMigrations())
		}

		cfg, err := loadConfig()
		exitOnError("Invalid configuration", err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := telemetry.Setup(ctx, "cloudlaunch")
		exitOnError("Unable to set up tracing", err)
		defer func() { _ = shutdownTracing(context.Background()) }()

		database, err := connectDB(cipher)
		exitOnError("Unable to connect to DB", err)

		backend, err := openTaskBackend(ctx, cfg, os.Getenv(RedisURLEnv))
		exitOnError("Unable to open task queue", err)
		defer func() { _ = backend.Close() }()

		clouds := cloudRegistry(cfg)
		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s := server.NewServer(server.Options{
			Config:   cfg,
			DB:       database,
			Cipher:   cipher,
			Issuer:   auth.NewTokenIssuer(secret, cfg.TokenLifetime()),
			Clouds:   clouds,
			Handlers: launch.DefaultRegistry,
			Broker:   backend.Broker,
			Results:  backend.Results,
			Locator:  geolocation.New(cfg.GeolocationURL),
		}, host, port)
		endpoints.RegisterAll(s)

		if err := config.Watch(ctx, func(next *config.Config, err error) {
			if err != nil {
				log.WithError(err).Warn("configuration not reloaded")
				return
			}
			s.RateLimiter.SetLimits(next.RateLimitRPS, next.RateLimitBurst)
			log.Info("configuration reloaded; rate limits applied, other settings apply on restart")
		}); err != nil {
			log.WithError(err).Debug("configuration file is not watched")
		}

		inline, _ := cmd.Flags().GetBool("inline-worker")
		if !backend.Shared && !inline {
			log.Warn("no REDIS_URL set; running launches in the server process")
			inline = true
		}
		if inline {
			w := newWorker(database, cfg, clouds, backend, cipher)
			go func() { _ = w.Run(ctx) }()
		}

		errs := make(chan error, 1)
		go func() { errs <- s.Start(ctx) }()

		select {
		case err := <-errs:
			exitOnError("Server failed", err)
		case <-ctx.Done():
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				log.WithError(err).Error("shutdown failed")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("inline-worker", false, "run launch tasks in the server process")
}
