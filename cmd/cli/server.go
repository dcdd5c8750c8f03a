package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oreforge/oreforge-server/internal/core/app"
	"github.com/oreforge/oreforge-server/internal/core/config"
	"github.com/oreforge/oreforge-server/pkg/logger"
)

func RunServer() {
	log := logger.Get()

	cfg, err := config.GetConfigManager().GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	server, err := app.NewServerBuilder(cfg).
		InitDatabase().
		InitRepositories().
		InitServices().
		InitPoller().
		InitRouter().
		Build()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	go func() {
		serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Info().Str("address", serverAddr).Msg("Server starting")

		if err := server.HttpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-stopChan
	log.Info().Msg("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	signal.Stop(stopChan)

	forceStopChan := make(chan os.Signal, 1)
	signal.Notify(forceStopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-forceStopChan
		log.Warn().Msg("Forced shutdown requested, terminating immediately")
		os.Exit(1)
	}()

	server.Shutdown(shutdownCtx)

	log.Info().Msg("Shutdown completed successfully, exiting")
}
