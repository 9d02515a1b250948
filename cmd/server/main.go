// Package main is the entry point for the xtra auth server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/xtralabs/xtra-server/internal/auth"
	"github.com/xtralabs/xtra-server/internal/canva"
	"github.com/xtralabs/xtra-server/internal/config"
	xtrahttp "github.com/xtralabs/xtra-server/internal/http"
	"github.com/xtralabs/xtra-server/internal/pending"
	"github.com/xtralabs/xtra-server/internal/session"
	"github.com/xtralabs/xtra-server/internal/store/memory"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup logger
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.LogLevel),
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLogLevel(cfg.LogLevel),
		})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if cfg.SessionSecretGenerated {
		logger.Warn("SESSION_SECRET not set, generated a random secret; sessions will not survive restarts")
	}

	// Pending-authorization store
	var pendingStore pending.Store
	switch cfg.PendingStore {
	case "redis":
		pendingStore, err = pending.NewRedisStore(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.PendingTTL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		logger.Info("using redis pending-authorization store", "addr", cfg.RedisAddr)
	default:
		memStore := pending.NewMemoryStore(cfg.PendingTTL)
		memStore.StartSweeper(time.Minute)
		pendingStore = memStore
		logger.Info("using in-memory pending-authorization store", "ttl", cfg.PendingTTL)
	}
	defer pendingStore.Close()

	// Core services
	canvaClient := canva.NewClient(cfg.CanvaClientID, cfg.CanvaClientSecret, cfg.CanvaRedirectURI,
		canva.WithEndpoints(cfg.CanvaAuthURL, cfg.CanvaTokenURL),
		canva.WithTimeout(cfg.ExchangeTimeout),
	)
	issuer := session.NewIssuer(cfg.SessionSecret, cfg.SessionTTL, session.WithLogger(logger))
	users := memory.NewStore()
	authService := auth.NewService(users, issuer,
		auth.WithLogger(logger),
		auth.WithLockout(auth.NewLockoutService(cfg.LockoutAttempts, cfg.LockoutDuration)),
	)

	// HTTP server and routes
	server := xtrahttp.NewServer(cfg.Addr(), xtrahttp.WithLogger(logger))
	xtrahttp.NewOAuthHandler(canvaClient, pendingStore, logger).Mount(server.Router())
	xtrahttp.NewAuthHandler(authService, logger, xtrahttp.WithRateLimit(cfg.LoginRateLimit)).Mount(server.Router())

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("server started", "addr", cfg.Addr(), "redirect_uri", cfg.CanvaRedirectURI)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
