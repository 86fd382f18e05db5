// Package store provides atomic access to draft state. It is a dumb
// key-value layer with an optimistic-concurrency primitive; all business
// validation lives in the engine.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/mixfield/songdraft/go/internal/models"
)

var (
	// ErrNotFound is returned when a group or its draft state does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when a compare-and-set loses a race.
	ErrVersionConflict = errors.New("version conflict")
	// ErrSongTaken is returned when appending a claim for a song that
	// already has one in the same group.
	ErrSongTaken = errors.New("song already claimed")
)

// OutboxEvent is a pre-marshaled domain event recorded durably alongside a
// compare-and-set so the relay can publish it in commit order.
type OutboxEvent struct {
	Kind    string
	Payload json.RawMessage
}

// StateStore holds one draft state per group and provides atomic
// read-modify-write access keyed by a version token.
type StateStore interface {
	CreateGroup(ctx context.Context, group models.Group) error
	GetGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, error)

	// GetState returns the current draft state and its version token.
	GetState(ctx context.Context, groupID uuid.UUID) (models.DraftState, int64, error)

	// CompareAndSet swaps the draft state iff the stored version still equals
	// expectedVersion. When claim is non-nil it is appended to the group's
	// claim log in the same atomic step; events are recorded for the outbox
	// relay. Returns ErrVersionConflict when the version moved and
	// ErrSongTaken when the claim's song already has one.
	CompareAndSet(ctx context.Context, groupID uuid.UUID, expectedVersion int64, state models.DraftState, claim *models.Claim, events ...OutboxEvent) error

	// ListClaims returns the group's claims ordered by overall pick number.
	ListClaims(ctx context.Context, groupID uuid.UUID) ([]models.Claim, error)
}
