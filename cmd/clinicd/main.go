package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinicd/internal/clinic"
	"github.com/clinicdesk/clinicd/internal/config"
	"github.com/clinicdesk/clinicd/internal/dashboard"
	"github.com/clinicdesk/clinicd/internal/platform/kv"
	"github.com/clinicdesk/clinicd/internal/platform/middleware"
	"github.com/clinicdesk/clinicd/internal/prefs"
	"github.com/clinicdesk/clinicd/internal/session"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicd",
		Short: "Clinic patient-record API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(resetCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Wipe all clinical collections from the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			medium, closer, err := openBackend(cfg)
			if err != nil {
				return err
			}
			defer closer()
			clinic.NewStore(medium, logger).ClearAll()
			fmt.Println("All clinical collections removed.")
			return nil
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "" || os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func openBackend(cfg *config.Config) (kv.Store, func(), error) {
	noop := func() {}
	switch cfg.DataBackend {
	case "memory":
		return kv.NewMemoryStore(), noop, nil
	case "file":
		store, err := kv.NewFileStore(cfg.DataDir)
		return store, noop, err
	case "sqlite":
		store, err := kv.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case "postgres":
		store, err := kv.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	medium, closeBackend, err := openBackend(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open data backend")
	}
	defer closeBackend()
	logger.Info().Str("backend", cfg.DataBackend).Msg("data backend ready")

	secret := cfg.JWTSecret
	if secret == "" {
		// Development only; Validate rejects an empty secret elsewhere.
		// Tokens do not survive a restart with a generated secret.
		var buf [32]byte
		if _, err := io.ReadFull(crypto_rand.Reader, buf[:]); err != nil {
			logger.Fatal().Err(err).Msg("generating dev jwt secret")
		}
		secret = hex.EncodeToString(buf[:])
		logger.Warn().Msg("JWT_SECRET not set, generated an ephemeral development secret")
	}

	// Stores
	sessions := session.NewStore(medium, logger)
	sessions.Initialize()
	logger.Info().Stringer("status", sessions.Status()).Msg("session store initialized")

	records := clinic.NewStore(medium, logger)
	preferences := prefs.NewStore(medium, logger, cfg.DefaultLanguage)
	issuer := session.NewTokenIssuer([]byte(secret), time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	public := e.Group("/api/v1")
	authed := e.Group("/api/v1", session.RequireToken(issuer))

	session.NewHandler(sessions, issuer).RegisterRoutes(public, authed)
	clinic.NewHandler(records).RegisterRoutes(authed)
	dashboard.NewHandler(dashboard.NewService(records)).RegisterRoutes(authed)
	prefs.NewHandler(preferences).RegisterRoutes(authed)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
