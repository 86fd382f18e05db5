package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mixfield/songdraft/go/internal/dbconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg := loadConfig()

	var database *sql.DB
	if cfg.StoreBackend == "postgres" {
		var err error
		database, err = setupDatabase(dbconfig.NewConfigFromEnv())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to setup database")
		}
		defer database.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := setupServices(ctx, cfg, database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup services")
	}

	go services.Manager.Start(ctx)

	go func() {
		if err := services.Consumer.Run(ctx); err != nil {
			log.Error().Err(err).Msg("gateway event consumer failed")
		}
	}()

	go func() {
		if err := services.Supervisor.Run(ctx); err != nil {
			log.Error().Err(err).Msg("turn supervisor failed")
		}
	}()

	if services.Relay != nil {
		go func() {
			if err := services.Relay.Run(ctx); err != nil {
				log.Error().Err(err).Msg("outbox relay failed")
			}
		}()
	}

	server := setupServer(cfg, services)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting draft server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	cancel()
	services.Broker.Shutdown()

	log.Info().Msg("draft server shutdown complete")
}
