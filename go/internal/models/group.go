package models

import (
	"time"

	"github.com/google/uuid"
)

// Group is one draft instance: a fixed set of participants competing for
// songs from a shared pool. The participant order is the round-one pick
// order and is immutable once the draft starts.
type Group struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
	Rounds         int         `json:"rounds"`
	// TimePerPickSec is the per-turn budget in seconds. 0 means unlimited
	// and disables the timeout supervisor for this group.
	TimePerPickSec int       `json:"time_per_pick_sec"`
	CreatedAt      time.Time `json:"created_at"`
}

// TotalPicks returns the number of picks scheduled for the whole draft.
func (g Group) TotalPicks() int {
	return g.Rounds * len(g.ParticipantIDs)
}
