package models

import (
	"time"
)

// DraftStatus defines the status of a group's draft.
type DraftStatus string

const (
	DraftStatusNotStarted DraftStatus = "NOT_STARTED"
	DraftStatusInProgress DraftStatus = "IN_PROGRESS"
	DraftStatusPaused     DraftStatus = "PAUSED"
	DraftStatusCompleted  DraftStatus = "COMPLETED"
	DraftStatusCancelled  DraftStatus = "CANCELLED"
)

// DraftState is the mutable progress record for one group. It is owned by
// the engine and only ever mutated through the store's compare-and-set.
//
// Invariants: CurrentTurnIndex is always in [0, len(participants));
// CurrentRound == PicksMade/len(participants) + 1 while in progress.
type DraftState struct {
	Status           DraftStatus `json:"status"`
	CurrentTurnIndex int         `json:"current_turn_index"`
	CurrentRound     int         `json:"current_round"`
	PicksMade        int         `json:"picks_made"`
	StartedAt        *time.Time  `json:"started_at,omitempty"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
	// TurnStartedAt is when the pending turn began; the supervisor derives
	// its deadline from it and claims record their time used against it.
	TurnStartedAt *time.Time `json:"turn_started_at,omitempty"`
}

// AcceptingPicks reports whether a claim can be validated against this state.
func (s DraftState) AcceptingPicks() bool {
	return s.Status == DraftStatusInProgress
}
