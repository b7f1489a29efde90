package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/minisolscan/service/config"
	"github.com/brojonat/minisolscan/service/db"
	"github.com/brojonat/minisolscan/service/metrics"
	natspkg "github.com/brojonat/minisolscan/service/nats"
	"github.com/brojonat/minisolscan/service/prefs"
	"github.com/brojonat/minisolscan/service/server"
	"github.com/brojonat/minisolscan/service/solana"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
		"default_network", cfg.DefaultNetwork,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server shutdown complete")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Preferences and history live in Postgres when configured; otherwise
	// preferences are kept in memory for the session TTL and history is off.
	var (
		prefStore prefs.Store = prefs.NewMemoryStore(cfg.SessionTTL)
		history   server.History
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		store := db.NewStore(pool, m)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("connected to database")
		prefStore = store
		history = store
	} else {
		logger.Warn("DATABASE_URL not set, lookup history disabled and preferences kept in memory")
	}

	// Lookup events are optional
	var publisher natspkg.Publisher
	if cfg.NATSURL != "" {
		p, err := natspkg.NewPublisher(cfg.NATSURL, m, logger)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
		logger.Info("connected to NATS", "url", cfg.NATSURL)
	}

	// Initialize Solana lookup client
	// Note: a fresh RPC client is dialed per lookup for the session's network
	var limiter *rate.Limiter
	if cfg.RPCRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPCRateLimit), cfg.RPCRateBurst)
	}
	fetcher := solana.NewClient(nil, solana.Options{
		Encoding:   cfg.RPCEncoding,
		Commitment: cfg.RPCCommitment,
		Location:   cfg.Location,
		Limiter:    limiter,
	}, m, logger)
	logger.Info("initialized solana lookup client",
		"encoding", cfg.RPCEncoding,
		"commitment", cfg.RPCCommitment,
		"rate_limit", cfg.RPCRateLimit,
	)

	// Initialize HTTP server
	sessions := server.NewSessions(prefStore, cfg.SessionTTL, cfg.DefaultNetwork, m, logger)
	httpServer := server.New(cfg.ServerAddr, sessions, fetcher, history, publisher, m, logger)
	if err := httpServer.WithTemplates(); err != nil {
		return err
	}
	httpServer.WithEndpointPolicy(cfg.EndpointPolicy())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
