package engine

import "time"

// DefaultSmoothingTTL masks momentary drop-outs: a row missing from a tick
// (propagator transient) keeps rendering from the cache for this long.
const DefaultSmoothingTTL = 2000 * time.Millisecond

type smoothedRow struct {
	row       DisplayRow
	refreshed time.Time
}

// Smoother is the reader-side row cache keyed by catalog number. It is not
// concurrency-safe; each reader owns its own instance.
type Smoother struct {
	ttl     time.Duration
	entries map[int]smoothedRow
}

// NewSmoother creates a Smoother with the given retention; zero selects
// the default.
func NewSmoother(ttl time.Duration) *Smoother {
	if ttl <= 0 {
		ttl = DefaultSmoothingTTL
	}
	return &Smoother{
		ttl:     ttl,
		entries: make(map[int]smoothedRow),
	}
}

// Merge refreshes the cache from the latest snapshot rows, evicts entries
// older than the retention window, and returns the union re-sorted and
// re-capped exactly like the orchestrator's pipeline.
func (s *Smoother) Merge(rows []DisplayRow, now time.Time, maxObjects int) []DisplayRow {
	for _, r := range rows {
		s.entries[r.CatalogID] = smoothedRow{row: r, refreshed: now}
	}

	merged := make([]DisplayRow, 0, len(s.entries))
	for id, e := range s.entries {
		if now.Sub(e.refreshed) > s.ttl {
			delete(s.entries, id)
			continue
		}
		merged = append(merged, e.row)
	}

	sortRows(merged)
	return capRows(merged, maxObjects)
}
