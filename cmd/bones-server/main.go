package main

import (
	"fmt"
	"os"

	"github.com/gameofbones/gameofbones/internal/config"
	"github.com/gameofbones/gameofbones/internal/logger"
	"github.com/gameofbones/gameofbones/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("bones-server %s\n", version)
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	// Create server
	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().Str("version", version).Object("config", cfg).Msg("Starting Game of Bones server...")
	if cfg.Database.URL == ":memory:" {
		log.Warn().Msg("Using an in-memory database: accounts and posts are lost on exit")
	}

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
