package order_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mixfield/songdraft/go/internal/draft/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotsSnakeReversesEvenRounds(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	slots, err := order.Slots([]uuid.UUID{a, b, c}, 2)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	// Round 1 ascending, round 2 descending: A B C C B A
	want := []uuid.UUID{a, b, c, c, b, a}
	for i, slot := range slots {
		assert.Equal(t, want[i], slot.ParticipantID, "slot %d", i)
		assert.Equal(t, i+1, slot.Overall)
	}

	// The fourth pick opens round 2 and belongs to the last participant.
	assert.Equal(t, 2, slots[3].Round)
	assert.Equal(t, 1, slots[3].Pick)
	assert.Equal(t, c, slots[3].ParticipantID)
	assert.Equal(t, b, slots[4].ParticipantID)
	assert.Equal(t, a, slots[5].ParticipantID)
}

func TestSlotsDeterministic(t *testing.T) {
	participants := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}

	first, err := order.Slots(participants, 5)
	require.NoError(t, err)
	second, err := order.Slots(participants, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSlotsRoundAndPickNumbering(t *testing.T) {
	participants := []uuid.UUID{uuid.New(), uuid.New()}

	slots, err := order.Slots(participants, 3)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	for i, slot := range slots {
		assert.Equal(t, i/2+1, slot.Round, "slot %d round", i)
		assert.Equal(t, i%2+1, slot.Pick, "slot %d pick", i)
	}
}

func TestSlotsSingleParticipant(t *testing.T) {
	only := uuid.New()

	slots, err := order.Slots([]uuid.UUID{only}, 3)
	require.NoError(t, err)
	require.Len(t, slots, 3)

	for i, slot := range slots {
		assert.Equal(t, only, slot.ParticipantID)
		assert.Equal(t, i+1, slot.Round)
		assert.Equal(t, 1, slot.Pick)
	}
}

func TestSlotsRejectsEmptyOrder(t *testing.T) {
	_, err := order.Slots(nil, 2)
	assert.Error(t, err)
}

func TestSlotsRejectsZeroRounds(t *testing.T) {
	_, err := order.Slots([]uuid.UUID{uuid.New()}, 0)
	assert.Error(t, err)
}
