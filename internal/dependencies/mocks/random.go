package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/leaguetracker/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	mu sync.Mutex

	// DurationResults is a queue of results to return from Duration
	DurationResults []time.Duration
	durationIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Duration returns the next queued result, or 0 if none remaining
func (r *MockRandom) Duration(max time.Duration) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.durationIndex >= len(r.DurationResults) {
		return 0
	}
	result := r.DurationResults[r.durationIndex]
	r.durationIndex++
	return result
}

// QueueDuration adds values to the Duration result queue
func (r *MockRandom) QueueDuration(values ...time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DurationResults = append(r.DurationResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DurationResults = nil
	r.durationIndex = 0
}
