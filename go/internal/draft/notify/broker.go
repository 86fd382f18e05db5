package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/mixfield/songdraft/go/internal/draft/events"
	"github.com/rs/zerolog/log"
)

const defaultSubscriptionBuffer = 64

// Broker is an in-process Notifier with per-group subscriber channels.
// Publish runs on the committer's goroutine, so subscribers of one group
// observe events in commit order. Slow subscribers are dropped rather than
// allowed to block a commit.
type Broker struct {
	mu   sync.RWMutex
	subs map[*Subscription]bool
}

// Subscription receives events for one group, or for all groups when
// groupID is the zero UUID.
type Subscription struct {
	C chan events.Event

	broker  *Broker
	groupID uuid.UUID
	all     bool
	once    sync.Once
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[*Subscription]bool),
	}
}

// Subscribe registers a subscriber for a single group's events.
func (b *Broker) Subscribe(groupID uuid.UUID) *Subscription {
	return b.subscribe(groupID, false)
}

// SubscribeAll registers a subscriber for every group's events.
func (b *Broker) SubscribeAll() *Subscription {
	return b.subscribe(uuid.Nil, true)
}

func (b *Broker) subscribe(groupID uuid.UUID, all bool) *Subscription {
	sub := &Subscription{
		C:       make(chan events.Event, defaultSubscriptionBuffer),
		broker:  b,
		groupID: groupID,
		all:     all,
	}

	b.mu.Lock()
	b.subs[sub] = true
	b.mu.Unlock()
	return sub
}

// Close removes the subscription and closes its channel. The close happens
// under the broker lock so an in-flight Publish can never send on it.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.subs, s)
		close(s.C)
		s.broker.mu.Unlock()
	})
}

// Shutdown closes every remaining subscription.
func (b *Broker) Shutdown() {
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// Publish delivers the event to every matching subscriber. A subscriber
// whose buffer is full misses the event; it can recover by re-reading state.
// The read lock is held across the fan-out so a concurrent Close cannot
// close a channel mid-send; the sends never block, so neither does a commit.
func (b *Broker) Publish(ctx context.Context, event events.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		if !sub.all && sub.groupID != event.GroupID {
			continue
		}
		select {
		case sub.C <- event:
		default:
			log.Warn().
				Str("group_id", event.GroupID.String()).
				Str("event_kind", string(event.Kind)).
				Msg("subscriber buffer full, dropping event")
		}
	}
	return nil
}
