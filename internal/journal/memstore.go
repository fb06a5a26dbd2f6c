package journal

import (
	"context"
	"sort"
	"sync"

	"github.com/netgrid/activation/model"
)

// MemoryStore is an in-memory Store. It backs tests and the default demo
// mode.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]model.StepEvent // key: change request
}

// NewMemoryStore creates a new in-memory journal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string][]model.StepEvent),
	}
}

// Append adds an event to the audit trail.
func (s *MemoryStore) Append(_ context.Context, event model.StepEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[event.ChangeRequest] = append(s.events[event.ChangeRequest], event)
	return nil
}

// List retrieves all events for a change request, ordered by timestamp.
// Events with equal timestamps keep their append order.
func (s *MemoryStore) List(_ context.Context, changeRequest string) ([]model.StepEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.events[changeRequest]
	result := make([]model.StepEvent, len(events))
	copy(result, events)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// Len returns the total number of events across all change requests.
// For testing.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, events := range s.events {
		n += len(events)
	}
	return n
}
