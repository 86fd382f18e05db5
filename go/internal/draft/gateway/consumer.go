package gateway

import (
	"context"

	"github.com/mixfield/songdraft/go/internal/draft/notify"
	"github.com/rs/zerolog/log"
)

// Consumer forwards committed draft events from the broker to the
// WebSocket connection manager.
type Consumer struct {
	broker  *notify.Broker
	manager *ConnectionManager
}

// NewConsumer creates a Consumer feeding the given connection manager.
func NewConsumer(broker *notify.Broker, manager *ConnectionManager) *Consumer {
	return &Consumer{broker: broker, manager: manager}
}

// Run forwards events until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	sub := c.broker.SubscribeAll()
	defer sub.Close()

	log.Info().Msg("gateway event consumer started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway event consumer shutting down")
			return nil
		case event, ok := <-sub.C:
			if !ok {
				return nil
			}
			c.manager.Broadcast(event)
		}
	}
}
