package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mixfield/songdraft/go/internal/draft/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// JetStreamConfig holds configuration for the JetStream publisher.
type JetStreamConfig struct {
	URL           string
	StreamName    string
	SubjectPrefix string // e.g. "draft.events"
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultJetStreamConfig returns the default publisher configuration.
func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:           nats.DefaultURL,
		StreamName:    "DRAFT_EVENTS",
		SubjectPrefix: "draft.events",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// JetStreamPublisher publishes draft events to a NATS JetStream stream,
// subject "<prefix>.<group_id>.<kind>". Used by the outbox relay for
// cross-process fan-out.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

// NewJetStreamPublisher connects to NATS and ensures the stream exists.
func NewJetStreamPublisher(ctx context.Context, config JetStreamConfig) (*JetStreamPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     config.StreamName,
		Subjects: []string{config.SubjectPrefix + ".>"},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	return &JetStreamPublisher{nc: nc, js: js, config: config}, nil
}

func (p *JetStreamPublisher) Publish(ctx context.Context, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	suffix := strings.TrimPrefix(string(event.Kind), "draft.")
	subject := fmt.Sprintf("%s.%s.%s", p.config.SubjectPrefix, event.GroupID, suffix)

	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains the underlying NATS connection.
func (p *JetStreamPublisher) Close() {
	p.nc.Close()
}
