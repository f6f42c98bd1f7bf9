package object

import (
	"errors"
	"log/slog"

	"github.com/skyward/skytrack/internal/tle"
)

// Store holds the loaded records in insertion order with a catalog-number
// index. It is built whole and replaced whole at reload boundaries; the
// orchestrator owns replacement, so no internal locking is needed.
type Store struct {
	records []*Record
	byID    map[int]*Record
}

// BuildStore constructs records from parsed entries. Rejected element sets
// are logged and skipped; duplicate catalog numbers keep the first
// occurrence.
func BuildStore(entries []tle.Entry, logger *slog.Logger) *Store {
	s := &Store{byID: make(map[int]*Record, len(entries))}
	var skipped int
	for _, e := range entries {
		if _, dup := s.byID[e.CatalogID]; dup {
			continue
		}
		rec, err := New(e)
		if err != nil {
			if errors.Is(err, ErrElementParse) {
				logger.Warn("element set rejected", "catalog_id", e.CatalogID, "name", e.Name, "error", err)
				skipped++
				continue
			}
			logger.Warn("record build failed", "catalog_id", e.CatalogID, "error", err)
			skipped++
			continue
		}
		s.records = append(s.records, rec)
		s.byID[e.CatalogID] = rec
	}

	if skipped > 0 {
		logger.Info("object store built", "loaded", len(s.records), "skipped", skipped)
	}
	return s
}

// All returns the records in insertion order. Callers must not mutate the
// slice.
func (s *Store) All() []*Record {
	return s.records
}

// Get returns the record with the given catalog number, or nil.
func (s *Store) Get(catalogID int) *Record {
	return s.byID[catalogID]
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}
