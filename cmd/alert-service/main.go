package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/medisync/dose-alert/internal/alerting"
	"github.com/medisync/dose-alert/pkg/config"
	"github.com/medisync/dose-alert/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Initialize Dose Alert Service
	service, err := alerting.New(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize Dose Alert Service: %v", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if port := os.Getenv("PORT"); port != "" {
		addr = fmt.Sprintf("%s:%s", cfg.Server.Host, port)
	}

	// Start service in a goroutine
	go func() {
		if err := service.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start Dose Alert Service: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Dose Alert Service...")
	if err := service.Stop(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	logger.Info("Dose Alert Service stopped")
}
