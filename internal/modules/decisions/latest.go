package decisions

import (
	"sync"
)

// LatestStore holds the most recent decision report in memory
type LatestStore struct {
	mu     sync.RWMutex
	report *DecisionReport
}

// NewLatestStore creates an empty store
func NewLatestStore() *LatestStore {
	return &LatestStore{}
}

// Swap stores report and returns the one it replaced, or false when the
// store was empty. Concurrent swaps each see a distinct predecessor.
func (s *LatestStore) Swap(report DecisionReport) (DecisionReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.report
	s.report = &report
	if previous == nil {
		return DecisionReport{}, false
	}
	return *previous, true
}

// Get returns the stored report, or false when no cycle has run yet
func (s *LatestStore) Get() (DecisionReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return DecisionReport{}, false
	}
	return *s.report, true
}
