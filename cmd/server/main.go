package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akeren/signal-waitlist/config"
	"github.com/akeren/signal-waitlist/domain"
	"github.com/akeren/signal-waitlist/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var autoMigrate bool
	flag.BoolVar(&autoMigrate, "auto-migrate", false, "create the waitlist table with gorm AutoMigrate (development only)")
	flag.BoolVar(&autoMigrate, "m", false, "shorthand for -auto-migrate")
	flag.Parse()

	logger := log.NewLoggerWithJSONOutput()
	if err := run(logger, autoMigrate); err != nil {
		logger.Error("Signal waitlist server stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *log.Logger, autoMigrate bool) error {
	appConfig, err := config.LoadApplicationConfiguration(logger, autoMigrate)
	if err != nil {
		return err
	}
	defer appConfig.Cleanup()

	domain.SetupCoreDomain(appConfig)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- appConfig.RouterService.RunHTTPServer()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Graceful shutdown completed")
	return nil
}
