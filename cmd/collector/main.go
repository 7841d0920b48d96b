package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"xrdcc/internal/collector"
	"xrdcc/internal/collector/xrdclient"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if len(os.Args) != 2 {
		logger.Error().Msg("usage: collector CONFIG_FILE")
		return 1
	}

	cfg, err := collector.LoadConfig(os.Args[1])
	if err != nil {
		logger.Error().Err(err).Msg("failed to load configuration")
		return 1
	}

	if level, err := zerolog.ParseLevel(cfg.LoggingConfig.Level); err == nil {
		logger = logger.Level(level)
	}

	client, err := buildClient(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to build x-road client")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn().Msg("received shutdown signal, cancelling in-flight work")
		cancel()
	}()

	c := &collector.Collector{Config: cfg, Client: client, Logger: logger}
	if err := c.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("collection run failed")
		return 1
	}

	logger.Info().Msg("collection run completed")
	return 0
}

// buildClient constructs the X-Road protocol client that talks to the
// local Security Server at cfg.ServerURL. Wiring a production
// implementation (HTTP, TLS, XML/JSON parsing) is outside the scope of
// this repository; xrdclient.Client is the contract it must satisfy.
func buildClient(cfg *collector.Config) (xrdclient.Client, error) {
	return nil, fmt.Errorf("no x-road protocol client wired: provide a production xrdclient.Client implementation for server_url %q", cfg.ServerURL)
}
