// Package events defines the domain events broadcast on every accepted
// draft state change, shared between the engine, supervisor and gateway.
package events

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Kind identifies a draft event type.
type Kind string

const (
	KindDraftStarted   Kind = "draft.started"
	KindDraftPick      Kind = "draft.pick"
	KindDraftPaused    Kind = "draft.paused"
	KindDraftResumed   Kind = "draft.resumed"
	KindDraftCompleted Kind = "draft.completed"
	KindDraftCancelled Kind = "draft.cancelled"
)

// Event is the envelope handed to notifiers. Within one group, events are
// published in commit order; no ordering holds across groups.
type Event struct {
	Kind    Kind            `json:"kind"`
	GroupID uuid.UUID       `json:"group_id"`
	Payload json.RawMessage `json:"payload"`
}
