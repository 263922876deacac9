package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/thraizz/commander-table/internal/catalog"
	"github.com/thraizz/commander-table/internal/config"
	"github.com/thraizz/commander-table/internal/game"
	"github.com/thraizz/commander-table/internal/repository"
	"github.com/thraizz/commander-table/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting commander table server",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.String("storage", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	tokens, err := game.LoadTokenTable(ctx, store)
	if err != nil {
		logger.Fatal("failed to load token cards", zap.Error(err))
	}
	logger.Info("token table loaded", zap.Int("tokens", tokens.Len()))

	engine := game.NewEngine(store, logger,
		game.WithSettings(engineSettings(cfg.Game)),
		game.WithTokens(tokens),
	)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.NewServer(engine, cfg.Server.AllowedOrigins, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for termination signal
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-serveErr:
		if err != nil {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("commander table server stopped")
}

// openStore returns the configured game store and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (game.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store := repository.NewMemoryStore(logger)
		if cfg.Storage.SeedCatalog != "" {
			if err := seedMemoryStore(store, cfg.Storage.SeedCatalog, logger); err != nil {
				return nil, nil, err
			}
		}
		logger.Warn("using in-memory store; tables are lost on restart")
		return store, func() {}, nil
	case config.DriverPostgres:
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.MigrateOnStart {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, nil, err
			}
		}

		// Log database stats
		stats := db.Stats()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)
		return repository.NewPostgresStore(db, logger), db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func seedMemoryStore(store *repository.MemoryStore, path string, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed catalog: %w", err)
	}
	defer f.Close()

	cat, warnings, err := catalog.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse seed catalog: %w", err)
	}
	for _, w := range warnings {
		logger.Warn("seed catalog", zap.String("warning", w))
	}
	_, err = store.ImportCatalog(cat)
	return err
}

func engineSettings(cfg config.GameConfig) game.Settings {
	return game.Settings{
		StartingLife:        cfg.StartingLife,
		OpeningHand:         cfg.OpeningHand,
		ShufflePasses:       cfg.ShufflePasses,
		DefaultCastPosition: game.Position{X: cfg.CastX, Y: cfg.CastY},
		TokenOffset:         cfg.TokenOffset,
		MaxTokenCopies:      cfg.MaxTokenCopies,
		DefaultPageSize:     cfg.DefaultPageSize,
		MaxPageSize:         cfg.MaxPageSize,
	}
}

// initLogger builds a json or console logger. Unknown levels fall back to info.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
