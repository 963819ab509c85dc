package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/stylefix/internal/fixes"
)

// Snapshot represents the latest engine view available to the console and
// the bridge status endpoint.
type Snapshot struct {
	Running             bool
	Applied             []fixes.Fix
	Cycles              int64
	LastPoll            time.Time
	LastFetched         int // fixes returned by the last successful poll
	LastPending         int // of those, pending and not yet seen
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the backend has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// RecordCycle stores the outcome of one sync cycle. When err is non-nil the
// previous counts are kept but the error is recorded for visibility.
func (s *Store) RecordCycle(fetched, pending int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Cycles++
	s.snapshot.LastPoll = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastFetched = fetched
	s.snapshot.LastPending = pending
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// SetRunning records the poll loop state.
func (s *Store) SetRunning(running bool) {
	s.mu.Lock()
	s.snapshot.Running = running
	s.mu.Unlock()
}

// SetApplied replaces the applied list with copies of the given fixes.
func (s *Store) SetApplied(applied []*fixes.Fix) {
	dup := make([]fixes.Fix, 0, len(applied))
	for _, f := range applied {
		if f != nil {
			dup = append(dup, cloneFix(*f))
		}
	}
	s.mu.Lock()
	s.snapshot.Applied = dup
	s.mu.Unlock()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Applied = cloneFixes(s.snapshot.Applied)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneFixes(items []fixes.Fix) []fixes.Fix {
	if len(items) == 0 {
		return nil
	}
	dup := make([]fixes.Fix, len(items))
	for i, f := range items {
		dup[i] = cloneFix(f)
	}
	return dup
}

func cloneFix(f fixes.Fix) fixes.Fix {
	if len(f.Changes) > 0 {
		changes := make([]fixes.Change, len(f.Changes))
		copy(changes, f.Changes)
		f.Changes = changes
	}
	return f
}
