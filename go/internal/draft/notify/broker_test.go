package notify_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mixfield/songdraft/go/internal/draft/events"
	"github.com/mixfield/songdraft/go/internal/draft/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *notify.Subscription) events.Event {
	t.Helper()
	select {
	case event := <-sub.C:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}

func TestSubscribeFiltersByGroup(t *testing.T) {
	broker := notify.NewBroker()
	ctx := context.Background()

	groupA := uuid.New()
	groupB := uuid.New()

	subA := broker.Subscribe(groupA)
	defer subA.Close()
	all := broker.SubscribeAll()
	defer all.Close()

	require.NoError(t, broker.Publish(ctx, events.Event{Kind: events.KindDraftStarted, GroupID: groupA}))
	require.NoError(t, broker.Publish(ctx, events.Event{Kind: events.KindDraftStarted, GroupID: groupB}))

	got := receive(t, subA)
	assert.Equal(t, groupA, got.GroupID)
	select {
	case unexpected := <-subA.C:
		t.Fatalf("group subscription leaked event for %s", unexpected.GroupID)
	default:
	}

	assert.Equal(t, groupA, receive(t, all).GroupID)
	assert.Equal(t, groupB, receive(t, all).GroupID)
}

func TestPublishPreservesOrder(t *testing.T) {
	broker := notify.NewBroker()
	ctx := context.Background()
	groupID := uuid.New()

	sub := broker.Subscribe(groupID)
	defer sub.Close()

	kinds := []events.Kind{
		events.KindDraftStarted,
		events.KindDraftPick,
		events.KindDraftPick,
		events.KindDraftCompleted,
	}
	for _, kind := range kinds {
		require.NoError(t, broker.Publish(ctx, events.Event{Kind: kind, GroupID: groupID}))
	}
	for _, want := range kinds {
		assert.Equal(t, want, receive(t, sub).Kind)
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	broker := notify.NewBroker()
	ctx := context.Background()
	groupID := uuid.New()

	sub := broker.Subscribe(groupID)
	defer sub.Close()

	// Overflow the buffer without draining; Publish must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = broker.Publish(ctx, events.Event{Kind: events.KindDraftPick, GroupID: groupID})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

// Publish runs on the engine's post-commit path while subscribers come and
// go freely; closing a subscription mid-publish must never panic the
// committer with a send on a closed channel.
func TestPublishSafeDuringSubscriberChurn(t *testing.T) {
	broker := notify.NewBroker()
	ctx := context.Background()
	groupID := uuid.New()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = broker.Publish(ctx, events.Event{Kind: events.KindDraftPick, GroupID: groupID})
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		subs := make([]*notify.Subscription, 16)
		for j := range subs {
			if j%2 == 0 {
				subs[j] = broker.Subscribe(groupID)
			} else {
				subs[j] = broker.SubscribeAll()
			}
		}
		for _, sub := range subs {
			sub.Close()
		}
	}

	close(done)
	wg.Wait()
}

func TestCloseIsIdempotentAndUnsubscribes(t *testing.T) {
	broker := notify.NewBroker()
	ctx := context.Background()
	groupID := uuid.New()

	sub := broker.Subscribe(groupID)
	sub.Close()
	sub.Close()

	// Publishing after close must not panic on the closed channel.
	require.NoError(t, broker.Publish(ctx, events.Event{Kind: events.KindDraftPick, GroupID: groupID}))
}

func TestShutdownClosesAllSubscriptions(t *testing.T) {
	broker := notify.NewBroker()

	subA := broker.Subscribe(uuid.New())
	subB := broker.SubscribeAll()

	broker.Shutdown()

	_, okA := <-subA.C
	_, okB := <-subB.C
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestMultiFansOut(t *testing.T) {
	brokerA := notify.NewBroker()
	brokerB := notify.NewBroker()
	ctx := context.Background()
	groupID := uuid.New()

	subA := brokerA.Subscribe(groupID)
	defer subA.Close()
	subB := brokerB.Subscribe(groupID)
	defer subB.Close()

	multi := notify.Multi{brokerA, brokerB}
	require.NoError(t, multi.Publish(ctx, events.Event{Kind: events.KindDraftStarted, GroupID: groupID}))

	assert.Equal(t, events.KindDraftStarted, receive(t, subA).Kind)
	assert.Equal(t, events.KindDraftStarted, receive(t, subB).Kind)
}
