package supervisor

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// groupTimer pairs a turn timer with a done channel; closing done releases
// the watcher goroutine when the timer is replaced or cancelled.
type groupTimer struct {
	timer clockwork.Timer
	done  chan struct{}
}

// replaceTimer atomically replaces a group's timer, cancelling any existing
// one so a new timer cannot slip in between Stop and delete.
func (s *Supervisor) replaceTimer(groupID uuid.UUID, newTimer *groupTimer) {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()

	if existing, exists := s.activeTimers[groupID]; exists {
		stopAndDrainTimer(existing.timer)
		close(existing.done)
		log.Debug().Str("group_id", groupID.String()).Msg("replaced existing turn timer")
	}
	s.activeTimers[groupID] = newTimer
}

// cancelTimer cancels and removes a group's pending timer, if any.
func (s *Supervisor) cancelTimer(groupID uuid.UUID) {
	s.activeTimersMu.Lock()
	if existing, exists := s.activeTimers[groupID]; exists {
		stopAndDrainTimer(existing.timer)
		close(existing.done)
		delete(s.activeTimers, groupID)
		log.Debug().Str("group_id", groupID.String()).Msg("cancelled turn timer")
	}
	s.activeTimersMu.Unlock()

	s.lastArmedMu.Lock()
	delete(s.lastArmed, groupID)
	s.lastArmedMu.Unlock()
}

// removeTimer drops a timer from tracking after it fired. A newer timer may
// already hold the slot, so only the firing timer removes itself.
func (s *Supervisor) removeTimer(groupID uuid.UUID, fired *groupTimer) {
	s.activeTimersMu.Lock()
	if current, exists := s.activeTimers[groupID]; exists && current == fired {
		delete(s.activeTimers, groupID)
	}
	s.activeTimersMu.Unlock()
}

func (s *Supervisor) cancelAllTimers() {
	s.activeTimersMu.Lock()
	for groupID, existing := range s.activeTimers {
		stopAndDrainTimer(existing.timer)
		close(existing.done)
		delete(s.activeTimers, groupID)
	}
	s.activeTimersMu.Unlock()

	s.lastArmedMu.Lock()
	s.lastArmed = make(map[uuid.UUID]time.Time)
	s.lastArmedMu.Unlock()
}

// stopAndDrainTimer stops a timer and drains its channel, following the
// pattern from the time.Timer.Stop documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
