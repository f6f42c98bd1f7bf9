package engine

import (
	"sync"
	"time"

	"github.com/skyward/skytrack/internal/metrics"
	"github.com/skyward/skytrack/internal/object"
)

// Snapshot is the published per-tick output: rows with index-aligned
// record references, the producing instant, and a monotonic revision.
type Snapshot struct {
	Rows     []DisplayRow
	Refs     []*object.Record
	At       time.Time
	Revision uint64
}

// State is the single shared snapshot between the orchestrator and its
// readers. Publication is one locked replacement, so a reader never sees a
// partial update; readers copy under the lock and release before doing any
// real work.
type State struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewState creates an empty shared state.
func NewState() *State {
	return &State{}
}

// Publish replaces the snapshot and bumps the revision counter.
func (s *State) Publish(rows []DisplayRow, refs []*object.Record, at time.Time) {
	s.mu.Lock()
	s.snap.Rows = rows
	s.snap.Refs = refs
	s.snap.At = at
	s.snap.Revision++
	rev := s.snap.Revision
	s.mu.Unlock()

	metrics.SetRowsPublished(len(rows))
	metrics.SetSnapshotRevision(rev)
}

// Read returns a shallow copy of the current snapshot. The row and ref
// slices are copied so the caller can hold them after releasing the lock.
func (s *State) Read() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{
		At:       s.snap.At,
		Revision: s.snap.Revision,
		Rows:     make([]DisplayRow, len(s.snap.Rows)),
		Refs:     make([]*object.Record, len(s.snap.Refs)),
	}
	copy(out.Rows, s.snap.Rows)
	copy(out.Refs, s.snap.Refs)
	return out
}

// Revision returns the current revision counter.
func (s *State) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Revision
}

// ClearRefs drops the record references ahead of a store reload so no
// published snapshot outlives the records it points at.
func (s *State) ClearRefs() {
	s.mu.Lock()
	s.snap.Refs = nil
	s.mu.Unlock()
}
