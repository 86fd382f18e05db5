// Package notify fans accepted draft state changes out to subscribers.
package notify

import (
	"context"
	"errors"

	"github.com/mixfield/songdraft/go/internal/draft/events"
)

// Notifier pushes a committed event to interested observers. The engine
// calls Publish only after a durable commit; a publish failure never rolls
// the commit back, so implementations are best-effort.
type Notifier interface {
	Publish(ctx context.Context, event events.Event) error
}

// Multi fans an event out to several notifiers, collecting errors.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, event events.Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
