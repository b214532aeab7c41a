package main

import (
	"context"
	"os"

	"github.com/rdelgatto/spindle/internal/auth"
	"github.com/rdelgatto/spindle/internal/pipeline"
	"github.com/rdelgatto/spindle/internal/services"
	"github.com/rdelgatto/spindle/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadDotenv(""); err != nil {
		logger.Warn("failed to load .env file", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}

	catalog := services.NewSpotifyService(nil, nil, logger)
	session := auth.NewManager(config.Credentials.Spotify, catalog.ProbeProfile, logger)
	catalog.SetTokens(session)

	recommender := services.NewLastFMService(
		config.Credentials.LastFM.APIKey,
		config.Credentials.LastFM.SharedSecret,
		nil,
		logger,
	)

	library := pipeline.NewLibrary(catalog, recommender, config.Cache.Capacity, logger)

	runner := NewRunner(RunnerOpts{
		Config:      config,
		Session:     session,
		Catalog:     catalog,
		Recommender: recommender,
		Library:     library,
		Logger:      logger,
	})

	app := &cli.Command{
		Name:     "spindle",
		Usage:    "Browse Spotify playlists, tracks, and related artists",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
