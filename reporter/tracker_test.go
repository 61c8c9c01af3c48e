package reporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerStreaks(t *testing.T) {
	tracker, err := NewTracker(4)
	require.NoError(t, err)
	opp := testOpportunity(t)

	s := tracker.Observe(1, opp)
	assert.True(t, s.New())
	assert.Equal(t, Sighting{FirstSeen: 1, LastSeen: 1, Streak: 1}, s)

	// same cycle twice is a no-op
	assert.Equal(t, s, tracker.Observe(1, opp))

	s = tracker.Observe(2, opp)
	assert.False(t, s.New())
	assert.Equal(t, Sighting{FirstSeen: 1, LastSeen: 2, Streak: 2}, s)

	s = tracker.Observe(3, opp)
	assert.Equal(t, 3, s.Streak)

	// a missed cycle resets the streak
	s = tracker.Observe(5, opp)
	assert.Equal(t, Sighting{FirstSeen: 5, LastSeen: 5, Streak: 1}, s)
	assert.Equal(t, 1, tracker.Len())
}

func TestTrackerKeys(t *testing.T) {
	a := testOpportunity(t)
	b := testOpportunity(t)
	assert.Equal(t, Key(a), Key(b))

	reversed := testOpportunity(t)
	reversed.BuyFrom, reversed.SellTo = reversed.SellTo, reversed.BuyFrom
	assert.NotEqual(t, Key(a), Key(reversed))

	// profit and volume are not part of the identity
	b.Profit.SetInt64(1)
	assert.Equal(t, Key(a), Key(b))
}

func TestTrackerEviction(t *testing.T) {
	tracker, err := NewTracker(1)
	require.NoError(t, err)

	a := testOpportunity(t)
	b := testOpportunity(t)
	b.BuyFrom, b.SellTo = b.SellTo, b.BuyFrom

	tracker.Observe(1, a)
	tracker.Observe(1, b)
	assert.Equal(t, 1, tracker.Len())

	// a was evicted and starts over
	assert.True(t, tracker.Observe(2, a).New())

	_, err = NewTracker(0)
	assert.Error(t, err)
}
