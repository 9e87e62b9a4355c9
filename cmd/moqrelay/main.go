// This is the main entrypoint for the moqrelay server.
// It handles configuration loading, server startup, and graceful shutdown.

package main

import (
	"context"
	"flag"
	"log"
	"os"

	"moqrelay/internal/config"
	"moqrelay/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/moqrelay.example.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx := context.Background()
	shutdownHandler := server.NewShutdownHandler(srv, ctx)

	go func() {
		if err := srv.Start(shutdownHandler.Context()); err != nil {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}()

	if err := shutdownHandler.Wait(); err != nil {
		log.Printf("Shutdown error: %v", err)
		os.Exit(1)
	}

	log.Println("Server shut down cleanly")
}
