// Package outbox relays durably committed draft events to the message bus.
// The Postgres store writes one outbox row per event inside the commit
// transaction; the relay drains unsent rows in insertion order, so
// cross-process subscribers see each group's events in commit order.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mixfield/songdraft/go/internal/draft/events"
	"github.com/mixfield/songdraft/go/internal/draft/notify"
	"github.com/mixfield/songdraft/go/internal/draft/store"
	"github.com/rs/zerolog/log"
)

// Config holds relay tuning knobs.
type Config struct {
	// DatabaseURL is a separate DSN for the LISTEN/NOTIFY connection.
	DatabaseURL      string
	FallbackInterval time.Duration // poll cadence when no notification arrives
	BatchSize        int
	PingInterval     time.Duration
}

// DefaultConfig returns the default relay configuration.
func DefaultConfig() Config {
	return Config{
		FallbackInterval: 30 * time.Second,
		BatchSize:        100,
		PingInterval:     90 * time.Second,
	}
}

// Relay drains the draft_outbox table and publishes rows via the notifier.
type Relay struct {
	db        *sql.DB
	listener  *pq.Listener
	publisher notify.Notifier
	cfg       Config
}

// NewRelay opens the LISTEN connection and returns a ready relay.
func NewRelay(db *sql.DB, publisher notify.Notifier, cfg Config) (*Relay, error) {
	listener := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("outbox listener event")
			}
		},
	)
	if err := listener.Listen(store.NotifyChannel); err != nil {
		return nil, fmt.Errorf("failed to listen on channel: %w", err)
	}

	log.Info().Str("channel", store.NotifyChannel).Msg("outbox relay listening for notifications")

	return &Relay{
		db:        db,
		listener:  listener,
		publisher: publisher,
		cfg:       cfg,
	}, nil
}

// Run drains the outbox until ctx is cancelled. A pg_notify wakes it
// immediately; the fallback ticker catches anything a lost notification
// would otherwise strand.
func (r *Relay) Run(ctx context.Context) error {
	pingTicker := time.NewTicker(r.cfg.PingInterval)
	fallbackTicker := time.NewTicker(r.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	// Drain whatever accumulated while we were down.
	r.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox relay shutting down")
			return r.listener.Close()
		case note := <-r.listener.Notify:
			if note == nil {
				// Connection was lost and re-established; poll to catch up.
				r.drain(ctx)
				continue
			}
			r.drain(ctx)
		case <-fallbackTicker.C:
			r.drain(ctx)
		case <-pingTicker.C:
			if err := r.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("outbox listener ping failed")
			}
		}
	}
}

// drain publishes unsent rows in id order until the table is empty.
func (r *Relay) drain(ctx context.Context) {
	for {
		published, err := r.publishBatch(ctx)
		if err != nil {
			log.Error().Err(err).Msg("outbox drain failed")
			return
		}
		if published < r.cfg.BatchSize {
			return
		}
	}
}

func (r *Relay) publishBatch(ctx context.Context) (int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, group_id, event_type, payload
		 FROM draft_outbox
		 WHERE sent_at IS NULL
		 ORDER BY id
		 LIMIT $1`, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch outbox batch: %w", err)
	}
	defer rows.Close()

	type row struct {
		id      int64
		groupID uuid.UUID
		kind    string
		payload json.RawMessage
	}

	var batch []row
	for rows.Next() {
		var rec row
		if err := rows.Scan(&rec.id, &rec.groupID, &rec.kind, &rec.payload); err != nil {
			return 0, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		batch = append(batch, rec)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate outbox rows: %w", err)
	}

	for _, rec := range batch {
		event := events.Event{
			Kind:    events.Kind(rec.kind),
			GroupID: rec.groupID,
			Payload: rec.payload,
		}
		if err := r.publisher.Publish(ctx, event); err != nil {
			// Leave the row unsent; the next drain retries from here so
			// per-group ordering is preserved.
			return 0, fmt.Errorf("failed to publish outbox event %d: %w", rec.id, err)
		}
		if _, err := r.db.ExecContext(ctx,
			`UPDATE draft_outbox SET sent_at = NOW() WHERE id = $1`, rec.id); err != nil {
			return 0, fmt.Errorf("failed to mark outbox event %d sent: %w", rec.id, err)
		}
	}
	return len(batch), nil
}
