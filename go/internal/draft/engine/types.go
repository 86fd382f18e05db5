package engine

import (
	"github.com/google/uuid"
	"github.com/mixfield/songdraft/go/internal/models"
)

// Snapshot is a read-only view of one group's draft progress.
type Snapshot struct {
	Group             models.Group      `json:"group"`
	State             models.DraftState `json:"state"`
	Claims            []models.Claim    `json:"claims"`
	NextParticipantID *uuid.UUID        `json:"next_participant_id,omitempty"`
}
