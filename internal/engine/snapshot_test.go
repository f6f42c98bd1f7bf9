package engine

import (
	"testing"
	"time"

	"github.com/skyward/skytrack/internal/object"
)

func TestState_PublishRead(t *testing.T) {
	st := NewState()

	if snap := st.Read(); snap.Revision != 0 || len(snap.Rows) != 0 {
		t.Fatalf("fresh state = %+v", snap)
	}

	sun := object.NewSun()
	at := time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	st.Publish([]DisplayRow{{Name: "Sun", CatalogID: object.SunID}}, []*object.Record{sun}, at)

	snap := st.Read()
	if snap.Revision != 1 {
		t.Errorf("revision = %d, want 1", snap.Revision)
	}
	if !snap.At.Equal(at) {
		t.Errorf("at = %v, want %v", snap.At, at)
	}
	if len(snap.Rows) != 1 || len(snap.Refs) != 1 {
		t.Fatalf("rows/refs = %d/%d, want 1/1", len(snap.Rows), len(snap.Refs))
	}
	if snap.Refs[0].CatalogID() != snap.Rows[0].CatalogID {
		t.Error("row and ref catalog ids misaligned")
	}
}

func TestState_RevisionMonotonic(t *testing.T) {
	st := NewState()
	var last uint64
	for i := 0; i < 10; i++ {
		st.Publish(nil, nil, time.Now())
		rev := st.Revision()
		if rev <= last {
			t.Fatalf("revision %d not greater than %d", rev, last)
		}
		last = rev
	}
}

func TestState_ReadReturnsCopies(t *testing.T) {
	st := NewState()
	st.Publish([]DisplayRow{{Name: "A", CatalogID: 1}}, []*object.Record{nil}, time.Now())

	snap := st.Read()
	snap.Rows[0].Name = "mutated"

	if st.Read().Rows[0].Name != "A" {
		t.Error("reader mutation leaked into the shared snapshot")
	}
}

func TestState_ClearRefs(t *testing.T) {
	st := NewState()
	st.Publish([]DisplayRow{{CatalogID: 1}}, []*object.Record{object.NewSun()}, time.Now())

	st.ClearRefs()

	snap := st.Read()
	if len(snap.Refs) != 0 {
		t.Error("refs survive ClearRefs")
	}
	// Rows are untouched; only the back-references drop.
	if len(snap.Rows) != 1 {
		t.Error("rows lost by ClearRefs")
	}
}

func TestCapRows_PreservesSpecials(t *testing.T) {
	rows := []DisplayRow{
		{CatalogID: 1, ElDeg: 80},
		{CatalogID: 2, ElDeg: 70},
		{CatalogID: object.SunID, ElDeg: -10},
		{CatalogID: 3, ElDeg: -20},
		{CatalogID: object.MoonID, ElDeg: -30},
	}

	out := capRows(rows, 2)
	if len(out) != 4 {
		t.Fatalf("capped to %d rows, want 4 (2 + both specials)", len(out))
	}
	for _, id := range []int{1, 2, object.SunID, object.MoonID} {
		if !containsID(out, id) {
			t.Errorf("id %d missing after cap", id)
		}
	}
	if containsID(out, 3) {
		t.Error("row beyond the cap survived")
	}
}

func TestSortRows_StableByElevation(t *testing.T) {
	rows := []DisplayRow{
		{CatalogID: 1, ElDeg: 10},
		{CatalogID: 2, ElDeg: 50},
		{CatalogID: 3, ElDeg: 50},
		{CatalogID: 4, ElDeg: 90},
	}
	sortRows(rows)

	wantOrder := []int{4, 2, 3, 1}
	for i, id := range wantOrder {
		if rows[i].CatalogID != id {
			t.Fatalf("order[%d] = %d, want %d", i, rows[i].CatalogID, id)
		}
	}
}
