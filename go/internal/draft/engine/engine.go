// Package engine validates and commits draft claims. It is the only
// component that ever mutates draft state: manual picks, auto-picks and
// lifecycle transitions all funnel through its compare-and-set loop.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mixfield/songdraft/go/internal/draft/events"
	"github.com/mixfield/songdraft/go/internal/draft/notify"
	"github.com/mixfield/songdraft/go/internal/draft/order"
	"github.com/mixfield/songdraft/go/internal/draft/store"
	"github.com/mixfield/songdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

const defaultMaxAttempts = 5

// Engine is the pick validator and committer for all groups.
type Engine struct {
	store       store.StateStore
	notifier    notify.Notifier
	clock       clockwork.Clock
	maxAttempts int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's clock. Tests use a clockwork.FakeClock.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithMaxAttempts bounds the compare-and-set retry loop.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) { e.maxAttempts = n }
}

// New creates an Engine over the given store and notifier.
func New(st store.StateStore, notifier notify.Notifier, opts ...Option) *Engine {
	e := &Engine{
		store:       st,
		notifier:    notifier,
		clock:       clockwork.NewRealClock(),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateGroup validates and registers a new group with a fresh draft state.
// The participant order is the round-one pick order and is immutable from
// here on.
func (e *Engine) CreateGroup(ctx context.Context, group models.Group) error {
	if len(group.ParticipantIDs) == 0 {
		return fmt.Errorf("group needs at least one participant")
	}
	if group.Rounds < 1 {
		return fmt.Errorf("group needs at least one round")
	}
	if group.TimePerPickSec < 0 {
		return fmt.Errorf("time per pick must not be negative")
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = e.clock.Now()
	}

	if err := e.store.CreateGroup(ctx, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}

	log.Info().
		Str("group_id", group.ID.String()).
		Int("participants", len(group.ParticipantIDs)).
		Int("rounds", group.Rounds).
		Msg("group created")
	return nil
}

// StartDraft transitions a group from NOT_STARTED to IN_PROGRESS and opens
// the first turn.
func (e *Engine) StartDraft(ctx context.Context, groupID uuid.UUID) error {
	group, err := e.group(ctx, groupID)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		state, version, err := e.state(ctx, groupID)
		if err != nil {
			return err
		}
		if state.Status != models.DraftStatusNotStarted {
			return ErrAlreadyStarted
		}

		now := e.clock.Now()
		next := state
		next.Status = models.DraftStatusInProgress
		next.StartedAt = &now
		next.TurnStartedAt = &now
		next.CurrentTurnIndex = 0
		next.CurrentRound = 1

		event := newEvent(events.KindDraftStarted, groupID, events.DraftStartedPayload{
			GroupID:            groupID.String(),
			StartedAt:          now,
			TotalRounds:        group.Rounds,
			TotalPicks:         group.TotalPicks(),
			FirstParticipantID: group.ParticipantIDs[0].String(),
			TimePerPickSec:     group.TimePerPickSec,
		})

		err = e.store.CompareAndSet(ctx, groupID, version, next, nil, toOutbox(event)...)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("commit draft start: %w", err)
		}

		e.publish(ctx, event)
		log.Info().Str("group_id", groupID.String()).Msg("draft started")
		return nil
	}
	return ErrContention
}

// SubmitClaim is the manual pick path: the participant claims a song for
// the pending turn.
func (e *Engine) SubmitClaim(ctx context.Context, groupID, participantID uuid.UUID, songID string) (*models.Claim, error) {
	return e.submit(ctx, groupID, participantID, songID, false)
}

// AutoClaim is the supervisor's pick path. It runs the exact same
// validation as SubmitClaim; a stale timeout simply fails ErrWrongTurn.
func (e *Engine) AutoClaim(ctx context.Context, groupID, participantID uuid.UUID, songID string) (*models.Claim, error) {
	return e.submit(ctx, groupID, participantID, songID, true)
}

func (e *Engine) submit(ctx context.Context, groupID, participantID uuid.UUID, songID string, autoPick bool) (*models.Claim, error) {
	group, err := e.group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	slots, err := order.Slots(group.ParticipantIDs, group.Rounds)
	if err != nil {
		return nil, fmt.Errorf("compute turn order: %w", err)
	}

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		state, version, err := e.state(ctx, groupID)
		if err != nil {
			return nil, err
		}

		switch state.Status {
		case models.DraftStatusNotStarted:
			return nil, ErrNotStarted
		case models.DraftStatusInProgress:
		default:
			return nil, ErrNotAcceptingPicks
		}

		slot := slots[state.PicksMade]
		if participantID != slot.ParticipantID {
			return nil, ErrWrongTurn
		}

		// The claim log is the authoritative availability check; the
		// catalog's view is advisory only.
		claims, err := e.store.ListClaims(ctx, groupID)
		if err != nil {
			return nil, fmt.Errorf("list claims: %w", err)
		}
		for _, c := range claims {
			if c.SongID == songID {
				return nil, ErrSongUnavailable
			}
		}

		now := e.clock.Now()
		claim := &models.Claim{
			ID:            uuid.New(),
			GroupID:       groupID,
			ParticipantID: participantID,
			SongID:        songID,
			Round:         slot.Round,
			Pick:          slot.Pick,
			OverallPick:   slot.Overall,
			AutoPick:      autoPick,
			MadeAt:        now,
		}
		if state.TurnStartedAt != nil {
			claim.TimeUsed = now.Sub(*state.TurnStartedAt)
		}

		next := state
		next.PicksMade++
		completed := next.PicksMade == len(slots)

		pickPayload := events.DraftPickPayload{
			ClaimID:       claim.ID.String(),
			ParticipantID: participantID.String(),
			SongID:        songID,
			Round:         claim.Round,
			Pick:          claim.Pick,
			OverallPick:   claim.OverallPick,
			AutoPick:      autoPick,
			MadeAt:        now,
		}

		if completed {
			next.Status = models.DraftStatusCompleted
			next.CompletedAt = &now
			next.CurrentTurnIndex = 0
			next.TurnStartedAt = nil
		} else {
			nextSlot := slots[next.PicksMade]
			next.CurrentTurnIndex = nextSlot.Pick - 1
			next.CurrentRound = nextSlot.Round
			next.TurnStartedAt = &now
			pickPayload.NextParticipantID = nextSlot.ParticipantID.String()
		}

		committed := []events.Event{newEvent(events.KindDraftPick, groupID, pickPayload)}
		if completed {
			committed = append(committed, newEvent(events.KindDraftCompleted, groupID, events.DraftCompletedPayload{
				GroupID:     groupID.String(),
				CompletedAt: now,
				TotalPicks:  next.PicksMade,
			}))
		}

		err = e.store.CompareAndSet(ctx, groupID, version, next, claim, toOutbox(committed...)...)
		if errors.Is(err, store.ErrVersionConflict) {
			// Lost the race; re-validate against the fresh state.
			continue
		}
		if errors.Is(err, store.ErrSongTaken) {
			return nil, ErrSongUnavailable
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("commit claim: %w", err)
		}

		e.publish(ctx, committed...)
		log.Info().
			Str("group_id", groupID.String()).
			Str("participant_id", participantID.String()).
			Str("song_id", songID).
			Int("overall_pick", claim.OverallPick).
			Bool("auto_pick", autoPick).
			Msg("claim committed")
		return claim, nil
	}
	return nil, ErrContention
}

// PauseDraft suspends an in-progress draft. The supervisor cancels the
// group's timer on the resulting event.
func (e *Engine) PauseDraft(ctx context.Context, groupID uuid.UUID, reason string) error {
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		state, version, err := e.state(ctx, groupID)
		if err != nil {
			return err
		}
		switch state.Status {
		case models.DraftStatusNotStarted:
			return ErrNotStarted
		case models.DraftStatusInProgress:
		default:
			return ErrNotAcceptingPicks
		}

		now := e.clock.Now()
		next := state
		next.Status = models.DraftStatusPaused

		event := newEvent(events.KindDraftPaused, groupID, events.DraftPausedPayload{
			GroupID:  groupID.String(),
			PausedAt: now,
			Reason:   reason,
		})

		err = e.store.CompareAndSet(ctx, groupID, version, next, nil, toOutbox(event)...)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("commit draft pause: %w", err)
		}

		e.publish(ctx, event)
		log.Info().Str("group_id", groupID.String()).Str("reason", reason).Msg("draft paused")
		return nil
	}
	return ErrContention
}

// ResumeDraft reopens a paused draft. The pending turn restarts with a
// full time budget.
func (e *Engine) ResumeDraft(ctx context.Context, groupID uuid.UUID) error {
	group, err := e.group(ctx, groupID)
	if err != nil {
		return err
	}
	slots, err := order.Slots(group.ParticipantIDs, group.Rounds)
	if err != nil {
		return fmt.Errorf("compute turn order: %w", err)
	}

	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		state, version, err := e.state(ctx, groupID)
		if err != nil {
			return err
		}
		if state.Status != models.DraftStatusPaused {
			return ErrNotAcceptingPicks
		}

		now := e.clock.Now()
		next := state
		next.Status = models.DraftStatusInProgress
		next.TurnStartedAt = &now

		event := newEvent(events.KindDraftResumed, groupID, events.DraftResumedPayload{
			GroupID:           groupID.String(),
			ResumedAt:         now,
			NextParticipantID: slots[state.PicksMade].ParticipantID.String(),
		})

		err = e.store.CompareAndSet(ctx, groupID, version, next, nil, toOutbox(event)...)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("commit draft resume: %w", err)
		}

		e.publish(ctx, event)
		log.Info().Str("group_id", groupID.String()).Msg("draft resumed")
		return nil
	}
	return ErrContention
}

// CancelDraft terminates a draft that has not completed. Committed claims
// are history and stay untouched.
func (e *Engine) CancelDraft(ctx context.Context, groupID uuid.UUID) error {
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		state, version, err := e.state(ctx, groupID)
		if err != nil {
			return err
		}
		switch state.Status {
		case models.DraftStatusCompleted, models.DraftStatusCancelled:
			return ErrNotAcceptingPicks
		}

		now := e.clock.Now()
		next := state
		next.Status = models.DraftStatusCancelled
		next.TurnStartedAt = nil

		event := newEvent(events.KindDraftCancelled, groupID, events.DraftCancelledPayload{
			GroupID:     groupID.String(),
			CancelledAt: now,
		})

		err = e.store.CompareAndSet(ctx, groupID, version, next, nil, toOutbox(event)...)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("commit draft cancel: %w", err)
		}

		e.publish(ctx, event)
		log.Info().Str("group_id", groupID.String()).Msg("draft cancelled")
		return nil
	}
	return ErrContention
}

// GetState returns a read-only snapshot of the group's draft progress.
func (e *Engine) GetState(ctx context.Context, groupID uuid.UUID) (*Snapshot, error) {
	group, err := e.group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	state, _, err := e.state(ctx, groupID)
	if err != nil {
		return nil, err
	}
	claims, err := e.store.ListClaims(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}

	snapshot := &Snapshot{
		Group:  *group,
		State:  state,
		Claims: claims,
	}

	if state.PicksMade < group.TotalPicks() &&
		(state.Status == models.DraftStatusInProgress || state.Status == models.DraftStatusPaused) {
		slots, err := order.Slots(group.ParticipantIDs, group.Rounds)
		if err != nil {
			return nil, fmt.Errorf("compute turn order: %w", err)
		}
		id := slots[state.PicksMade].ParticipantID
		snapshot.NextParticipantID = &id
	}
	return snapshot, nil
}

func (e *Engine) group(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	group, err := e.store.GetGroup(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return group, nil
}

func (e *Engine) state(ctx context.Context, groupID uuid.UUID) (models.DraftState, int64, error) {
	state, version, err := e.store.GetState(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) {
		return models.DraftState{}, 0, ErrNotFound
	}
	if err != nil {
		return models.DraftState{}, 0, fmt.Errorf("get draft state: %w", err)
	}
	return state, version, nil
}

// publish hands committed events to the notifier. The commit is already
// durable, so failures are logged and dropped.
func (e *Engine) publish(ctx context.Context, committed ...events.Event) {
	for _, event := range committed {
		if err := e.notifier.Publish(ctx, event); err != nil {
			log.Error().
				Err(err).
				Str("group_id", event.GroupID.String()).
				Str("event_kind", string(event.Kind)).
				Msg("failed to publish event")
		}
	}
}

func newEvent(kind events.Kind, groupID uuid.UUID, payload any) events.Event {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payload structs are plain data; this cannot fail in practice.
		log.Error().Err(err).Str("event_kind", string(kind)).Msg("failed to marshal event payload")
	}
	return events.Event{Kind: kind, GroupID: groupID, Payload: data}
}

func toOutbox(committed ...events.Event) []store.OutboxEvent {
	outbox := make([]store.OutboxEvent, len(committed))
	for i, event := range committed {
		outbox[i] = store.OutboxEvent{Kind: string(event.Kind), Payload: event.Payload}
	}
	return outbox
}
