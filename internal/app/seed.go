package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jaliltomas/preciosbot/internal/cli"
	"github.com/jaliltomas/preciosbot/internal/config"
	"github.com/jaliltomas/preciosbot/internal/db"
	"github.com/jaliltomas/preciosbot/internal/logging"
)

func runSeedCategories(args []string) int {
	fs := flag.NewFlagSet("seed-categories", flag.ContinueOnError)
	envLoader := cli.AddEnvFlag(fs, "", "")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if _, err := envLoader.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return 1
	}
	defer pool.Close()

	created, err := pool.SeedCategories(ctx, db.DefaultCategories())
	if err != nil {
		logger.Error().Err(err).Msg("failed to seed categories")
		return 1
	}

	logger.Info().Int("created", created).Msg("category seed complete")
	return 0
}
