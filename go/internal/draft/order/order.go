// Package order computes the deterministic turn sequence for a draft.
package order

import (
	"fmt"

	"github.com/google/uuid"
)

// Slot is one entry in a draft's flat turn sequence.
type Slot struct {
	Round         int       `json:"round"`
	Pick          int       `json:"pick"` // 1-indexed pick number within round
	Overall       int       `json:"overall"`
	ParticipantID uuid.UUID `json:"participant_id"`
}

// Slots generates the complete snake-ordered turn sequence for a draft:
// odd rounds follow the participant order as given, even rounds reverse it.
// Pure and deterministic so the layout can be recomputed for audit/replay.
func Slots(participants []uuid.UUID, rounds int) ([]Slot, error) {
	numParticipants := len(participants)
	if numParticipants == 0 {
		return nil, fmt.Errorf("participant order is empty, cannot generate slots")
	}
	if rounds < 1 {
		return nil, fmt.Errorf("rounds must be greater than 0, got %d", rounds)
	}

	slots := make([]Slot, 0, rounds*numParticipants)
	overall := 1

	for round := 1; round <= rounds; round++ {
		roundOrder := participants
		if round%2 == 0 {
			// Even rounds are reversed in snake drafts
			roundOrder = make([]uuid.UUID, numParticipants)
			for i, id := range participants {
				roundOrder[numParticipants-1-i] = id
			}
		}

		for pick, participantID := range roundOrder {
			slots = append(slots, Slot{
				Round:         round,
				Pick:          pick + 1,
				Overall:       overall,
				ParticipantID: participantID,
			})
			overall++
		}
	}

	return slots, nil
}
