// Package main provides the entry point for the EchoTab server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/echotab/echotab-server/internal/di"
	"github.com/echotab/echotab-server/internal/di/providers"
	"github.com/echotab/echotab-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// The DI container shuts services down in reverse provision order.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// The store flushes pending durable writes on close; make sure that
	// happened before the storage adapter goes away.
	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		log.Info("Closing stores...")
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close stores", "error", err)
		} else {
			log.Info("Stores closed successfully")
		}
	}

	log.Info("Goodbye")
}
