package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaliltomas/preciosbot/internal/cli"
	"github.com/jaliltomas/preciosbot/internal/config"
	"github.com/jaliltomas/preciosbot/internal/db"
	"github.com/jaliltomas/preciosbot/internal/intel"
	"github.com/jaliltomas/preciosbot/internal/logging"
	"github.com/jaliltomas/preciosbot/internal/pipeline"
)

func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	envLoader := cli.AddEnvFlag(fs, "", "")
	limit := fs.Int("limit", 50, "maximum number of pending messages to process")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()

	pool, err := db.NewPool(connectCtx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return 1
	}
	defer pool.Close()

	svc, _ := buildPipeline(pool, cfg, logger)

	processed, err := svc.ProcessPending(ctx, *limit)
	if err != nil {
		logger.Error().Err(err).Int("processed", processed).Msg("processing stopped on error")
		return 1
	}

	logger.Info().Int("processed", processed).Msg("pending messages drained")
	return 0
}

// buildPipeline wires the LLM client, the embedder and the store into a
// pipeline service from configuration. The embedder is returned separately
// because the HTTP server also embeds search queries with it.
func buildPipeline(pool *db.Pool, cfg *config.Config, logger zerolog.Logger) (*pipeline.Service, intel.Embedder) {
	llm := intel.NewAnthropicClient(intel.AnthropicOptions{
		APIKey:        cfg.AnthropicAPIKey,
		Model:         cfg.LLMModel,
		MaxTokens:     cfg.LLMMaxTokens,
		RetryAttempts: cfg.LLMRetryAttempts,
		RetryBaseWait: cfg.LLMRetryBaseWait,
	}, logger)

	embedder := intel.NewHTTPEmbedder(intel.EmbedderOptions{
		Endpoint:       cfg.EmbeddingEndpoint,
		MaxLength:      cfg.EmbeddingMaxLength,
		RequestTimeout: cfg.EmbeddingRequestTimeout,
	})

	return pipeline.NewService(pool, llm, embedder, cfg.MatchThreshold, logger), embedder
}
