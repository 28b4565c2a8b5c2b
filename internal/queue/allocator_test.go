package queue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kooko-labs/kooko/internal/config"
)

// memCounter mimics storage: the unresolved count only grows once a
// reservation's persist step ran.
type memCounter struct {
	mu    sync.Mutex
	count int
	err   error
}

func (c *memCounter) CountUnresolved(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count, c.err
}

func (c *memCounter) add() {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

func newTestAllocator(counter *memCounter) *Allocator {
	cfg := config.Config{Queue: config.Queue{ServiceMinutes: 5}}
	return NewAllocator(cfg, counter)
}

func TestReserveSequentialPositions(t *testing.T) {
	counter := &memCounter{}
	alloc := newTestAllocator(counter)

	for want := 1; want <= 5; want++ {
		got, err := alloc.Reserve(context.Background(), func(position int) error {
			counter.add()
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestReserveConcurrentPositionsAreUnique(t *testing.T) {
	counter := &memCounter{}
	alloc := newTestAllocator(counter)

	const n = 50
	positions := make([]int, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			positions[i], errs[i] = alloc.Reserve(context.Background(), func(position int) error {
				counter.add()
				return nil
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	sort.Ints(positions)
	for i, pos := range positions {
		assert.Equal(t, i+1, pos)
	}
}

func TestReserveCountErrorPropagates(t *testing.T) {
	counter := &memCounter{err: errors.New("storage down")}
	alloc := newTestAllocator(counter)

	_, err := alloc.Reserve(context.Background(), func(int) error {
		t.Fatal("persist must not run when the count failed")
		return nil
	})
	assert.Error(t, err)
}

func TestReservePersistErrorPropagates(t *testing.T) {
	counter := &memCounter{}
	alloc := newTestAllocator(counter)

	persistErr := errors.New("insert failed")
	pos, err := alloc.Reserve(context.Background(), func(int) error {
		return persistErr
	})
	assert.ErrorIs(t, err, persistErr)
	assert.Equal(t, 1, pos)
}

func TestEstimate(t *testing.T) {
	alloc := newTestAllocator(&memCounter{})
	assert.Equal(t, 5, alloc.Estimate(1))
	assert.Equal(t, 15, alloc.Estimate(3))
	assert.Equal(t, 5, alloc.ServiceMinutes())
}
