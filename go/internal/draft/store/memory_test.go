package store_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mixfield/songdraft/go/internal/draft/store"
	"github.com/mixfield/songdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedGroup(t *testing.T, st *store.MemoryStore) models.Group {
	t.Helper()
	group := models.Group{
		ID:             uuid.New(),
		Name:           "test group",
		ParticipantIDs: []uuid.UUID{uuid.New(), uuid.New()},
		Rounds:         2,
	}
	require.NoError(t, st.CreateGroup(context.Background(), group))
	return group
}

func TestCreateGroupInitialState(t *testing.T) {
	st := store.NewMemoryStore()
	group := seedGroup(t, st)
	ctx := context.Background()

	got, err := st.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, group.ID, got.ID)

	state, version, err := st.GetState(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusNotStarted, state.Status)
	assert.Equal(t, int64(1), version)

	err = st.CreateGroup(ctx, group)
	assert.Error(t, err, "duplicate group id must be rejected")
}

func TestGetUnknownGroup(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	_, err := st.GetGroup(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = st.GetState(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.ListClaims(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCompareAndSetVersionDiscipline(t *testing.T) {
	st := store.NewMemoryStore()
	group := seedGroup(t, st)
	ctx := context.Background()

	state, version, err := st.GetState(ctx, group.ID)
	require.NoError(t, err)

	state.Status = models.DraftStatusInProgress
	require.NoError(t, st.CompareAndSet(ctx, group.ID, version, state, nil))

	// The version moved; replaying the same expected version must fail.
	err = st.CompareAndSet(ctx, group.ID, version, state, nil)
	assert.ErrorIs(t, err, store.ErrVersionConflict)

	_, bumped, err := st.GetState(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, version+1, bumped)
}

func TestCompareAndSetRejectsTakenSong(t *testing.T) {
	st := store.NewMemoryStore()
	group := seedGroup(t, st)
	ctx := context.Background()

	state, version, err := st.GetState(ctx, group.ID)
	require.NoError(t, err)

	claim := models.Claim{
		ID:            uuid.New(),
		GroupID:       group.ID,
		ParticipantID: group.ParticipantIDs[0],
		SongID:        "song-1",
		Round:         1,
		Pick:          1,
		OverallPick:   1,
	}
	state.PicksMade = 1
	require.NoError(t, st.CompareAndSet(ctx, group.ID, version, state, &claim))

	dupe := claim
	dupe.ID = uuid.New()
	dupe.ParticipantID = group.ParticipantIDs[1]
	dupe.OverallPick = 2

	state.PicksMade = 2
	err = st.CompareAndSet(ctx, group.ID, version+1, state, &dupe)
	assert.ErrorIs(t, err, store.ErrSongTaken)

	claims, err := st.ListClaims(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}

func TestListClaimsReturnsCopyInOrder(t *testing.T) {
	st := store.NewMemoryStore()
	group := seedGroup(t, st)
	ctx := context.Background()

	state, version, err := st.GetState(ctx, group.ID)
	require.NoError(t, err)

	for i, songID := range []string{"a", "b", "c"} {
		claim := models.Claim{
			ID:          uuid.New(),
			GroupID:     group.ID,
			SongID:      songID,
			OverallPick: i + 1,
		}
		state.PicksMade = i + 1
		require.NoError(t, st.CompareAndSet(ctx, group.ID, version+int64(i), state, &claim))
	}

	claims, err := st.ListClaims(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, claims, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, claims[i].SongID)
		assert.Equal(t, i+1, claims[i].OverallPick)
	}

	// Mutating the returned slice must not touch the store.
	claims[0].SongID = "mutated"
	fresh, err := st.ListClaims(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", fresh[0].SongID)
}
