package models

import (
	"time"

	"github.com/google/uuid"
)

// Claim is an immutable record that a participant took a specific song.
// Claims form an append-only log per group; the set of claimed song ids is
// the single source of truth for "already taken".
type Claim struct {
	ID            uuid.UUID     `json:"id"`
	GroupID       uuid.UUID     `json:"group_id"`
	ParticipantID uuid.UUID     `json:"participant_id"`
	SongID        string        `json:"song_id"`
	Round         int           `json:"round"`
	Pick          int           `json:"pick"` // 1-indexed pick number within round
	OverallPick   int           `json:"overall_pick"`
	AutoPick      bool          `json:"auto_pick"`
	TimeUsed      time.Duration `json:"time_used"`
	MadeAt        time.Time     `json:"made_at"`
}
