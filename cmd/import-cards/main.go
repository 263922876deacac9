// Command import-cards loads a card and deck catalog CSV into the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thraizz/commander-table/internal/catalog"
	"github.com/thraizz/commander-table/internal/config"
	"github.com/thraizz/commander-table/internal/repository"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	replace    = flag.Bool("replace", false, "empty the catalog tables before importing")
	migrate    = flag.Bool("migrate", true, "apply schema migrations before importing")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] catalog.csv\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), cfg, flag.Arg(0), logger); err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, path string, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	cat, warnings, err := catalog.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}
	for _, w := range warnings {
		logger.Warn("skipped row", zap.String("detail", w))
	}
	logger.Info("catalog parsed",
		zap.String("file", path),
		zap.Int("cards", len(cat.Records)),
		zap.Int("decks", len(cat.Decks)),
	)

	db, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if *migrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	result, err := db.ImportCatalog(ctx, cat, *replace)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Info("import complete",
		zap.Int("cards", result.Cards),
		zap.Int("decks", result.Decks),
		zap.Duration("duration", elapsed),
		zap.Float64("cards_per_second", float64(result.Cards)/elapsed.Seconds()),
	)
	return nil
}
