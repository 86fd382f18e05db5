package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mixfield/songdraft/go/internal/models"
)

// MemoryStore is an in-memory StateStore for tests and single-process
// deployments. Concurrency control is per group: claims against different
// groups never contend on the same lock.
type MemoryStore struct {
	mu     sync.RWMutex
	groups map[uuid.UUID]*memoryGroup
}

type memoryGroup struct {
	mu      sync.Mutex
	group   models.Group
	state   models.DraftState
	version int64
	claims  []models.Claim
	claimed map[string]bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups: make(map[uuid.UUID]*memoryGroup),
	}
}

// CreateGroup registers a group with a fresh NOT_STARTED draft state.
func (m *MemoryStore) CreateGroup(ctx context.Context, group models.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.groups[group.ID]; exists {
		return fmt.Errorf("group %s already exists", group.ID)
	}

	m.groups[group.ID] = &memoryGroup{
		group: group,
		state: models.DraftState{
			Status:       models.DraftStatusNotStarted,
			CurrentRound: 1,
		},
		version: 1,
		claimed: make(map[string]bool),
	}
	return nil
}

func (m *MemoryStore) GetGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	rec, err := m.record(groupID)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	group := rec.group
	return &group, nil
}

func (m *MemoryStore) GetState(ctx context.Context, groupID uuid.UUID) (models.DraftState, int64, error) {
	rec, err := m.record(groupID)
	if err != nil {
		return models.DraftState{}, 0, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.state, rec.version, nil
}

func (m *MemoryStore) CompareAndSet(ctx context.Context, groupID uuid.UUID, expectedVersion int64, state models.DraftState, claim *models.Claim, events ...OutboxEvent) error {
	rec, err := m.record(groupID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.version != expectedVersion {
		return ErrVersionConflict
	}
	if claim != nil && rec.claimed[claim.SongID] {
		return ErrSongTaken
	}

	rec.state = state
	rec.version++
	if claim != nil {
		rec.claims = append(rec.claims, *claim)
		rec.claimed[claim.SongID] = true
	}
	// Outbox events are durable-relay concerns; the in-memory store has no
	// relay, in-process subscribers get them from the broker instead.
	return nil
}

func (m *MemoryStore) ListClaims(ctx context.Context, groupID uuid.UUID) ([]models.Claim, error) {
	rec, err := m.record(groupID)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	claims := make([]models.Claim, len(rec.claims))
	copy(claims, rec.claims)
	return claims, nil
}

func (m *MemoryStore) record(groupID uuid.UUID) (*memoryGroup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.groups[groupID]
	if !exists {
		return nil, ErrNotFound
	}
	return rec, nil
}
