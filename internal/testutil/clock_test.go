package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock_StartsAtEpoch(t *testing.T) {
	clock := NewDeterministicClock()
	assert.True(t, DefaultEpoch.Equal(clock.Peek()))
	assert.True(t, DefaultEpoch.Equal(clock.Now()))
}

func TestDeterministicClock_Steps(t *testing.T) {
	clock := NewDeterministicClock()

	first := clock.Now()
	second := clock.Now()
	third := clock.Now()

	assert.Equal(t, time.Second, second.Sub(first))
	assert.Equal(t, time.Second, third.Sub(second))
}

func TestDeterministicClock_ZeroStepFrozen(t *testing.T) {
	start := time.Date(2020, 5, 5, 5, 5, 5, 0, time.UTC)
	clock := NewDeterministicClockAt(start, 0)

	assert.True(t, start.Equal(clock.Now()))
	assert.True(t, start.Equal(clock.Now()))
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()

	clock.Now()
	clock.Now()
	clock.Reset()

	assert.True(t, DefaultEpoch.Equal(clock.Now()))
}

func TestDeterministicClock_ConcurrentAccess(t *testing.T) {
	clock := NewDeterministicClock()

	const goroutines = 10
	const perGoroutine = 100

	var mu sync.Mutex
	seen := make(map[time.Time]bool)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				now := clock.Now()
				mu.Lock()
				seen[now] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Every call observed a distinct instant.
	assert.Len(t, seen, goroutines*perGoroutine)
}
