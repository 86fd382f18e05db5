// Package supervisor enforces per-turn time budgets. It consumes the
// broker's event feed, keeps one pending timer per active group, and on
// expiry routes an auto-pick through the engine's normal claim path.
package supervisor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mixfield/songdraft/go/internal/draft/engine"
	"github.com/mixfield/songdraft/go/internal/draft/events"
	"github.com/mixfield/songdraft/go/internal/draft/notify"
	"github.com/mixfield/songdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// DraftEngine is what the supervisor needs from the engine.
type DraftEngine interface {
	AutoClaim(ctx context.Context, groupID, participantID uuid.UUID, songID string) (*models.Claim, error)
	GetState(ctx context.Context, groupID uuid.UUID) (*engine.Snapshot, error)
}

// Supervisor owns the turn timers for all groups.
type Supervisor struct {
	engine DraftEngine
	broker *notify.Broker
	policy CandidatePolicy
	clock  clockwork.Clock

	activeTimers   map[uuid.UUID]*groupTimer
	activeTimersMu sync.Mutex

	// lastArmed guards against arming two timers for the same turn when
	// multiple events for one commit arrive close together.
	lastArmed   map[uuid.UUID]time.Time
	lastArmedMu sync.Mutex
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithClock overrides the supervisor's clock. Tests use a FakeClock.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Supervisor) { s.clock = clock }
}

// New creates a Supervisor reading from the given broker.
func New(draftEngine DraftEngine, broker *notify.Broker, policy CandidatePolicy, opts ...Option) *Supervisor {
	s := &Supervisor{
		engine:       draftEngine,
		broker:       broker,
		policy:       policy,
		clock:        clockwork.NewRealClock(),
		activeTimers: make(map[uuid.UUID]*groupTimer),
		lastArmed:    make(map[uuid.UUID]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consumes events until ctx is cancelled, arming and cancelling turn
// timers as draft state changes.
func (s *Supervisor) Run(ctx context.Context) error {
	sub := s.broker.SubscribeAll()
	defer sub.Close()

	log.Info().Msg("timeout supervisor started")

	for {
		select {
		case <-ctx.Done():
			s.cancelAllTimers()
			log.Info().Msg("timeout supervisor shutting down")
			return nil
		case event, ok := <-sub.C:
			if !ok {
				s.cancelAllTimers()
				return nil
			}
			s.handleEvent(ctx, event)
		}
	}
}

func (s *Supervisor) handleEvent(ctx context.Context, event events.Event) {
	switch event.Kind {
	case events.KindDraftStarted, events.KindDraftPick, events.KindDraftResumed:
		s.armTimer(ctx, event.GroupID)
	case events.KindDraftPaused, events.KindDraftCompleted, events.KindDraftCancelled:
		s.cancelTimer(event.GroupID)
	}
}

// armTimer re-reads the group's state and schedules a timer for the
// pending turn, replacing any stale one. Groups with an unlimited budget
// (or nothing pending) end up with no timer.
func (s *Supervisor) armTimer(ctx context.Context, groupID uuid.UUID) {
	snapshot, err := s.engine.GetState(ctx, groupID)
	if err != nil {
		log.Error().Err(err).Str("group_id", groupID.String()).Msg("failed to load state for timer")
		return
	}

	if !snapshot.State.AcceptingPicks() || snapshot.NextParticipantID == nil ||
		snapshot.Group.TimePerPickSec == 0 || snapshot.State.TurnStartedAt == nil {
		s.cancelTimer(groupID)
		return
	}

	turnStarted := *snapshot.State.TurnStartedAt
	s.lastArmedMu.Lock()
	if last, exists := s.lastArmed[groupID]; exists && last.Equal(turnStarted) {
		s.lastArmedMu.Unlock()
		log.Debug().
			Str("group_id", groupID.String()).
			Time("turn_started_at", turnStarted).
			Msg("skipping duplicate timer for this turn")
		return
	}
	s.lastArmed[groupID] = turnStarted
	s.lastArmedMu.Unlock()

	deadline := turnStarted.Add(time.Duration(snapshot.Group.TimePerPickSec) * time.Second)
	duration := deadline.Sub(s.clock.Now())
	if duration <= 0 {
		go s.handleTimeout(ctx, groupID)
		return
	}

	timer := &groupTimer{
		timer: s.clock.NewTimer(duration),
		done:  make(chan struct{}),
	}
	s.replaceTimer(groupID, timer)

	go func(id uuid.UUID, t *groupTimer) {
		select {
		case <-t.timer.Chan():
			s.removeTimer(id, t)
			s.handleTimeout(ctx, id)
		case <-t.done:
			// Replaced or cancelled; the new owner tracks the turn now.
		case <-ctx.Done():
			stopAndDrainTimer(t.timer)
			s.removeTimer(id, t)
		}
	}(groupID, timer)

	log.Debug().
		Str("group_id", groupID.String()).
		Time("deadline", deadline).
		Dur("duration", duration).
		Msg("armed turn timer")
}

// handleTimeout fires the auto-pick for a group whose turn budget expired.
// The attempt is stateless with respect to the turn: if a manual pick beat
// the timer, the engine rejects it ErrWrongTurn and it is discarded.
func (s *Supervisor) handleTimeout(ctx context.Context, groupID uuid.UUID) {
	log.Info().Str("group_id", groupID.String()).Msg("turn budget expired, auto-picking")

	snapshot, err := s.engine.GetState(ctx, groupID)
	if err != nil {
		log.Error().Err(err).Str("group_id", groupID.String()).Msg("failed to load state for auto-pick")
		return
	}
	if !snapshot.State.AcceptingPicks() || snapshot.NextParticipantID == nil {
		log.Debug().Str("group_id", groupID.String()).Msg("draft no longer accepting picks, dropping auto-pick")
		return
	}

	songID, err := s.policy.SelectSong(ctx, snapshot)
	if err != nil {
		if errors.Is(err, engine.ErrNoAvailableSongs) {
			// The turn stalls until an admin intervenes; skipping the turn is
			// a caller policy decision the supervisor does not make.
			log.Error().
				Str("group_id", groupID.String()).
				Str("participant_id", snapshot.NextParticipantID.String()).
				Msg("auto-pick failed: candidate pool is empty, turn stalls")
			return
		}
		log.Error().Err(err).Str("group_id", groupID.String()).Msg("auto-pick candidate selection failed")
		return
	}

	claim, err := s.engine.AutoClaim(ctx, groupID, *snapshot.NextParticipantID, songID)
	switch {
	case errors.Is(err, engine.ErrWrongTurn), errors.Is(err, engine.ErrNotAcceptingPicks):
		// A manual pick beat the timer by a hair; the stale attempt is moot.
		log.Debug().Str("group_id", groupID.String()).Msg("stale auto-pick discarded")
	case errors.Is(err, engine.ErrSongUnavailable):
		// Someone grabbed the candidate between selection and commit. The
		// next state-change event re-arms us; nothing to do here.
		log.Debug().Str("group_id", groupID.String()).Str("song_id", songID).Msg("auto-pick candidate taken, discarded")
	case err != nil:
		log.Error().Err(err).Str("group_id", groupID.String()).Msg("auto-pick failed")
	default:
		log.Info().
			Str("group_id", groupID.String()).
			Str("participant_id", claim.ParticipantID.String()).
			Str("song_id", claim.SongID).
			Int("overall_pick", claim.OverallPick).
			Msg("auto-pick committed")
	}
}
