package events

import (
	"time"
)

// DraftStartedPayload is the payload for a draft.started event.
type DraftStartedPayload struct {
	GroupID            string    `json:"group_id"`
	StartedAt          time.Time `json:"started_at"`
	TotalRounds        int       `json:"total_rounds"`
	TotalPicks         int       `json:"total_picks"`
	FirstParticipantID string    `json:"first_participant_id"`
	TimePerPickSec     int       `json:"time_per_pick_sec"`
}

// DraftPickPayload is the payload for a draft.pick event.
type DraftPickPayload struct {
	ClaimID           string    `json:"claim_id"`
	ParticipantID     string    `json:"participant_id"`
	SongID            string    `json:"song_id"`
	Round             int       `json:"round"`
	Pick              int       `json:"pick"`
	OverallPick       int       `json:"overall_pick"`
	AutoPick          bool      `json:"auto_pick"`
	MadeAt            time.Time `json:"made_at"`
	NextParticipantID string    `json:"next_participant_id,omitempty"`
}

// DraftPausedPayload is the payload for a draft.paused event.
type DraftPausedPayload struct {
	GroupID  string    `json:"group_id"`
	PausedAt time.Time `json:"paused_at"`
	Reason   string    `json:"reason,omitempty"`
}

// DraftResumedPayload is the payload for a draft.resumed event.
type DraftResumedPayload struct {
	GroupID           string    `json:"group_id"`
	ResumedAt         time.Time `json:"resumed_at"`
	NextParticipantID string    `json:"next_participant_id"`
}

// DraftCompletedPayload is the payload for a draft.completed event.
type DraftCompletedPayload struct {
	GroupID     string    `json:"group_id"`
	CompletedAt time.Time `json:"completed_at"`
	TotalPicks  int       `json:"total_picks"`
}

// DraftCancelledPayload is the payload for a draft.cancelled event.
type DraftCancelledPayload struct {
	GroupID     string    `json:"group_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}
