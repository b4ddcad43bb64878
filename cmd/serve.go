package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropskill/dropskill/db"
	"github.com/dropskill/dropskill/internal/advisor"
	"github.com/dropskill/dropskill/internal/api"
	"github.com/dropskill/dropskill/internal/auth"
	"github.com/dropskill/dropskill/internal/config"
	"github.com/dropskill/dropskill/internal/knowledge"
	"github.com/dropskill/dropskill/internal/log"
	"github.com/dropskill/dropskill/internal/seed"
	"github.com/dropskill/dropskill/internal/storage"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newLogger(cfg *config.Config) log.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: cfg.LogJSON})
}

// runServe initializes and starts the HTTP API server. Migrations and
// first-run seeding happen before the listener opens.
func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cfg)
	logger.Info("starting dropskill API", "version", version)

	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	store, err := storage.Connect(ctx, cfg.PostgresConnectionString(), logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer store.Close()

	if cfg.AdminPassword != "" {
		err := seed.Run(ctx, store, seed.Config{
			AdminEmail:    cfg.AdminEmail,
			AdminPassword: cfg.AdminPassword,
		}, logger)
		if err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	ks := knowledge.New(cfg.KnowledgeDir, logger)
	logger.Info("knowledge base loaded", "documents", ks.Len())

	engine := advisor.New(ks, logger)
	tokens := auth.NewTokens([]byte(cfg.AuthSecret), time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:      logger,
		Store:       store,
		Engine:      engine,
		Tokens:      tokens,
		Pool:        store.Pool(),
		Version:     version,
		CORSOrigins: cfg.CORSOrigins,
		IsDev:       cfg.PostgresSSLMode == "disable",
		TrustProxy:  cfg.TrustProxy,
		RateBurst:   cfg.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", cfg.Addr,
		"api", "/api/*",
		"health", "/health, /ready",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
