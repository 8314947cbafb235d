package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaliltomas/preciosbot/internal/cli"
	"github.com/jaliltomas/preciosbot/internal/config"
	"github.com/jaliltomas/preciosbot/internal/db"
	"github.com/jaliltomas/preciosbot/internal/httpapi"
	"github.com/jaliltomas/preciosbot/internal/logging"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	envLoader := cli.AddEnvFlag(fs, "", "")
	host := fs.String("host", "0.0.0.0", "interface to listen on")
	port := fs.Int("port", 8090, "port to listen on")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 15*time.Second, "graceful shutdown timeout")
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

	svc, embedder := buildPipeline(pool, cfg, logger)

	srv := httpapi.NewServer(pool, svc, embedder, logger, httpapi.Options{
		Host:                *host,
		Port:                *port,
		ReadTimeout:         *readTimeout,
		WriteTimeout:        *writeTimeout,
		ShutdownTimeout:     *shutdownTimeout,
		CORSAllowedOrigins:  cfg.CORSAllowedOriginsList(),
		SimilarityThreshold: cfg.SimilarityThreshold,
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("server terminated with error")
		return 1
	}

	logger.Info().Msg("server stopped")
	return 0
}
