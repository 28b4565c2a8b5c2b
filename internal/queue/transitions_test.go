package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kooko-labs/kooko/internal/entity"
)

var allStatuses = []entity.Status{
	entity.StatusPending,
	entity.StatusPreparing,
	entity.StatusReady,
	entity.StatusCompleted,
	entity.StatusCancelled,
}

func TestTerminalStatusesAreAbsorbing(t *testing.T) {
	for _, from := range []entity.Status{entity.StatusCompleted, entity.StatusCancelled} {
		for _, to := range allStatuses {
			assert.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestNonTerminalMovesAreAllowed(t *testing.T) {
	cases := []struct {
		from, to entity.Status
	}{
		{entity.StatusPending, entity.StatusPreparing},
		{entity.StatusPending, entity.StatusReady},
		{entity.StatusPending, entity.StatusCompleted},
		{entity.StatusPending, entity.StatusCancelled},
		{entity.StatusPreparing, entity.StatusPending},
		{entity.StatusPreparing, entity.StatusReady},
		{entity.StatusPreparing, entity.StatusCompleted},
		{entity.StatusPreparing, entity.StatusCancelled},
		{entity.StatusReady, entity.StatusPending},
		{entity.StatusReady, entity.StatusPreparing},
		{entity.StatusReady, entity.StatusCompleted},
	}
	for _, tc := range cases {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestReadyCannotBeCancelled(t *testing.T) {
	assert.False(t, CanTransition(entity.StatusReady, entity.StatusCancelled))
}

func TestSelfAndInvalidTransitionsAreRejected(t *testing.T) {
	for _, s := range allStatuses {
		assert.False(t, CanTransition(s, s), "%s -> %s", s, s)
	}
	assert.False(t, CanTransition(entity.Status("queued"), entity.StatusReady))
	assert.False(t, CanTransition(entity.StatusPending, entity.Status("done")))
}

func TestCustomerCanCancel(t *testing.T) {
	assert.True(t, CustomerCanCancel(entity.StatusPending))
	assert.True(t, CustomerCanCancel(entity.StatusPreparing))
	assert.False(t, CustomerCanCancel(entity.StatusReady))
	assert.False(t, CustomerCanCancel(entity.StatusCompleted))
	assert.False(t, CustomerCanCancel(entity.StatusCancelled))
}
