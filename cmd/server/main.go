package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bernatvadell/muonline-sub002/internal/cipher"
	"github.com/bernatvadell/muonline-sub002/internal/config"
	"github.com/bernatvadell/muonline-sub002/internal/item"
	"github.com/bernatvadell/muonline-sub002/internal/mix"
	"github.com/bernatvadell/muonline-sub002/internal/mixdb"
	"github.com/bernatvadell/muonline-sub002/internal/server"
)

func main() {
	log.Println("Starting mix server...")

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/server.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Configuration loaded from %s", configPath)
	log.Printf("Server will run on %s:%d", cfg.Server.Host, cfg.Server.Port)

	registry, err := item.LoadRegistry(cfg.Mix.ItemsPath)
	if err != nil {
		log.Fatalf("Failed to load item registry: %v", err)
	}
	log.Printf("Item registry loaded with %d entries", registry.Len())

	c, err := cipher.New(cfg.Mix.Cipher, cfg.Mix.CipherKey)
	if err != nil {
		log.Fatalf("Failed to create recipe cipher: %v", err)
	}

	src := mixdb.Embedded()
	if cfg.Mix.DatabasePath != "" {
		src = mixdb.File(cfg.Mix.DatabasePath)
	}
	recipes := mixdb.NewService(src, c)
	db := recipes.Database()
	log.Printf("Recipe database loaded with %d recipes", db.Count())

	// Create and initialize server
	srv, err := server.New(cfg, server.Mix{
		Engine:   mix.NewEngine(recipes, registry),
		Registry: registry,
		Recipes:  db,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server listening on %s", addr)
		if err := srv.Start(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
	}

	if err := srv.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}
