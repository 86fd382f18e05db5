package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mixfield/songdraft/go/clients/catalog_client"
	"github.com/mixfield/songdraft/go/internal/catalog"
	"github.com/mixfield/songdraft/go/internal/dbconfig"
	"github.com/mixfield/songdraft/go/internal/draft/engine"
	"github.com/mixfield/songdraft/go/internal/draft/gateway"
	"github.com/mixfield/songdraft/go/internal/draft/notify"
	"github.com/mixfield/songdraft/go/internal/draft/outbox"
	"github.com/mixfield/songdraft/go/internal/draft/store"
	"github.com/mixfield/songdraft/go/internal/draft/supervisor"
	"github.com/rs/zerolog/log"
)

// Services holds the wired application graph.
type Services struct {
	Engine     *engine.Engine
	Broker     *notify.Broker
	Supervisor *supervisor.Supervisor
	Manager    *gateway.ConnectionManager
	Consumer   *gateway.Consumer
	API        *gateway.API

	// Relay is nil unless both Postgres and NATS are configured.
	Relay *outbox.Relay
}

func setupServices(ctx context.Context, cfg Config, database *sql.DB) (*Services, error) {
	// Store layer → engine → broker → supervisor → gateway
	var stateStore store.StateStore
	switch cfg.StoreBackend {
	case "postgres":
		stateStore = store.NewPostgresStore(database)
	case "memory":
		log.Warn().Msg("using in-memory store, state will not survive restarts")
		stateStore = store.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	songCatalog, err := setupCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	broker := notify.NewBroker()
	draftEngine := engine.New(stateStore, broker)

	policy := supervisor.NewFirstAvailable(songCatalog)
	turnSupervisor := supervisor.New(draftEngine, broker, policy)

	manager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	consumer := gateway.NewConsumer(broker, manager)
	api := gateway.NewAPI(draftEngine, manager)

	services := &Services{
		Engine:     draftEngine,
		Broker:     broker,
		Supervisor: turnSupervisor,
		Manager:    manager,
		Consumer:   consumer,
		API:        api,
	}

	// Cross-process fan-out: outbox rows written by the Postgres store are
	// relayed to JetStream. The in-process broker covers everything else.
	if cfg.NATSEnabled && cfg.StoreBackend == "postgres" {
		jsConfig := notify.DefaultJetStreamConfig()
		jsConfig.URL = cfg.NATSURL

		publisher, err := notify.NewJetStreamPublisher(ctx, jsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
		}

		relayCfg := outbox.DefaultConfig()
		relayCfg.DatabaseURL = dbconfig.NewConfigFromEnv().DSN()

		relay, err := outbox.NewRelay(database, publisher, relayCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create outbox relay: %w", err)
		}
		services.Relay = relay
	}

	return services, nil
}

// setupCatalog loads the draftable song pool, either from the remote
// catalog service or from the local seed file.
func setupCatalog(ctx context.Context, cfg Config) (*catalog.MemoryCatalog, error) {
	if cfg.CatalogURL != "" {
		client := catalog_client.NewCatalogClient(cfg.CatalogURL, cfg.CatalogAPIKey)
		songs, err := client.GetSongs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch song catalog: %w", err)
		}
		log.Info().Str("url", cfg.CatalogURL).Int("songs", len(songs)).Msg("loaded song catalog from service")
		return catalog.NewMemoryCatalog(songs), nil
	}

	songCatalog, err := catalog.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load song catalog: %w", err)
	}
	log.Info().Str("path", cfg.CatalogPath).Msg("loaded song catalog")
	return songCatalog, nil
}
