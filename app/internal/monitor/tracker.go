package monitor

import (
	"sync"

	"uptime/app/internal/models"
)

// StatusTracker remembers the last observed status so the scheduler can
// tell a transition from a repeat. It is safe for concurrent use.
type StatusTracker struct {
	mu   sync.Mutex
	last *models.StatusSample
}

// NewStatusTracker creates a tracker, optionally seeded with the last
// persisted sample so a restart does not register a spurious transition.
func NewStatusTracker(seed *models.StatusSample) *StatusTracker {
	t := &StatusTracker{}
	if seed != nil {
		s := *seed
		t.last = &s
	}
	return t
}

// Observe records sample and returns the previously observed status.
// changed is true when there was no previous status or it differs.
func (t *StatusTracker) Observe(sample models.StatusSample) (prev *models.StatusSample, changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev = t.last
	t.last = &sample
	return prev, prev == nil || prev.Status != sample.Status
}

// Last returns a copy of the most recent sample, or nil before the first observation.
func (t *StatusTracker) Last() *models.StatusSample {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.last == nil {
		return nil
	}
	s := *t.last
	return &s
}

// Reset forgets the last status.
func (t *StatusTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = nil
}
