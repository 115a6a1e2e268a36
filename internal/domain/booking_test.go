package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusIsValid(t *testing.T) {
	for _, s := range []BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled, BookingStatusRejected} {
		assert.True(t, s.IsValid(), "%s should be valid", s)
	}
	assert.False(t, BookingStatus("shipped").IsValid())
	assert.False(t, BookingStatus("").IsValid())
}

func TestBookingStatusTerminal(t *testing.T) {
	assert.False(t, BookingStatusPending.IsTerminal())
	assert.False(t, BookingStatusConfirmed.IsTerminal())
	assert.True(t, BookingStatusCompleted.IsTerminal())
	assert.True(t, BookingStatusCancelled.IsTerminal())
	assert.True(t, BookingStatusRejected.IsTerminal())
}

func TestBookingTransitionTable(t *testing.T) {
	cases := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusRejected, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusPending, BookingStatusCompleted, false},
		{BookingStatusConfirmed, BookingStatusCompleted, true},
		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusRejected, false},
		{BookingStatusConfirmed, BookingStatusPending, false},
		// self-transitions are never legal
		{BookingStatusPending, BookingStatusPending, false},
		{BookingStatusConfirmed, BookingStatusConfirmed, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}

	// nothing leaves a terminal state
	for _, terminal := range []BookingStatus{BookingStatusCompleted, BookingStatusCancelled, BookingStatusRejected} {
		for _, target := range []BookingStatus{BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled, BookingStatusRejected} {
			assert.False(t, terminal.CanTransitionTo(target), "%s -> %s", terminal, target)
		}
	}
}
