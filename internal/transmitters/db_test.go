package transmitters

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

var testLogger = slog.New(slog.DiscardHandler)

const sampleJSON = `[
  {"norad_cat_id": 25544, "uplink_low": 145990000, "downlink_low": 437800000, "mode": "FM", "description": "Voice Repeater", "status": "active"},
  {"norad_cat_id": 25544, "uplink_low": 0, "downlink_low": 145800000, "mode": "FM", "description": "SSTV", "status": "inactive"},
  {"norad_cat_id": 33591, "uplink_low": 0, "downlink_low": 137100000, "mode": "APT FM", "description": "APT", "status": "active"},
  {"norad_cat_id": 7530, "uplink_low": 432125000, "downlink_low": 145950000, "mode": "SSB", "description": "Linear Transponder", "status": "active"},
  {"norad_cat_id": 20442, "uplink_low": 0, "downlink_low": 435795000, "mode": "CW", "description": "Beacon", "status": "inactive"},
  {"norad_cat_id": 0, "uplink_low": 1, "downlink_low": 1, "mode": "FM", "status": "active"}
]`

func loadedDB(t *testing.T) *DB {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleJSON))
	}))
	t.Cleanup(srv.Close)

	db := NewDB(testLogger)
	cache := filepath.Join(t.TempDir(), "tx.json")
	if err := db.Load(context.Background(), srv.URL, cache); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return db
}

func TestLoad_IndexesByCatalogNumber(t *testing.T) {
	db := loadedDB(t)

	if db.Count() != 4 {
		t.Errorf("indexed %d objects, want 4 (zero ids dropped)", db.Count())
	}
	if !db.Has(25544) || db.Has(99999) {
		t.Error("Has lookups wrong")
	}
}

func TestLoad_FallsBackToCache(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "tx.json")
	if err := os.WriteFile(cache, []byte(sampleJSON), 0644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	db := NewDB(testLogger)
	if err := db.Load(context.Background(), srv.URL, cache); err != nil {
		t.Fatalf("Load with cache fallback: %v", err)
	}
	if !db.Has(25544) {
		t.Error("cache fallback did not populate the database")
	}
}

func TestBest_Priority(t *testing.T) {
	db := loadedDB(t)

	cases := []struct {
		id       int
		downlink int64
		reason   string
	}{
		// Weather APT beats everything else.
		{33591, 137100000, "active weather APT"},
		// Amateur FM voice repeater picked over the inactive FM entry.
		{25544, 437800000, "active FM voice"},
		// Linear SSB when no FM exists.
		{7530, 145950000, "active SSB"},
		// Inactive-only object still yields its downlink.
		{20442, 435795000, "any downlink"},
	}

	for _, c := range cases {
		tx, ok := db.Best(c.id)
		if !ok {
			t.Errorf("Best(%d) found nothing (%s)", c.id, c.reason)
			continue
		}
		if tx.DownlinkLow != c.downlink {
			t.Errorf("Best(%d) downlink = %d, want %d (%s)", c.id, tx.DownlinkLow, c.downlink, c.reason)
		}
	}

	if _, ok := db.Best(424242); ok {
		t.Error("Best for unknown object returned a transmitter")
	}
}
