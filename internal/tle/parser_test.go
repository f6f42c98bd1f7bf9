package tle

import (
	"log/slog"
	"math"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.DiscardHandler)

const issText = `ISS (ZARYA)
1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993
2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058
`

func TestParse_ISS(t *testing.T) {
	entries, err := Parse(strings.NewReader(issText), testLogger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("parsed %d entries, want 1", len(entries))
	}

	e := entries[0]
	if e.CatalogID != 25544 {
		t.Errorf("catalog id = %d, want 25544", e.CatalogID)
	}
	if e.Name != "ISS (ZARYA)" {
		t.Errorf("name = %q", e.Name)
	}
	if e.EpochYear != 2025 {
		t.Errorf("epoch year = %d, want 2025", e.EpochYear)
	}
	if math.Abs(e.MeanMotion-15.49874301) > 1e-8 {
		t.Errorf("mean motion = %.8f, want 15.49874301", e.MeanMotion)
	}
	if math.Abs(e.Eccentricity-0.0003457) > 1e-9 {
		t.Errorf("eccentricity = %.7f, want 0.0003457", e.Eccentricity)
	}
	if e.Epoch.Year() != 2025 || e.Epoch.Month() != 2 {
		t.Errorf("epoch = %v, want mid-February 2025", e.Epoch)
	}
}

func TestParse_ResyncAfterGarbage(t *testing.T) {
	text := "SOME HEADER LINE\ngarbage\n" + issText
	entries, err := Parse(strings.NewReader(text), testLogger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 1 || entries[0].CatalogID != 25544 {
		t.Fatalf("resync failed: %+v", entries)
	}
}

func TestParse_ShortLinesSkipped(t *testing.T) {
	text := "BAD SAT\n1 11111U\n2 11111\n" + issText
	entries, err := Parse(strings.NewReader(text), testLogger)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 1 || entries[0].CatalogID != 25544 {
		t.Fatalf("short-line entry not skipped: %+v", entries)
	}
}

func TestParseEpoch_CenturyWindow(t *testing.T) {
	cases := []struct {
		in   string
		year int
	}{
		{"98123.50000000", 1998},
		{"57001.00000000", 1957},
		{"25045.18032407", 2025},
		{"00001.00000000", 2000},
	}
	for _, c := range cases {
		year, _, err := parseEpoch(c.in)
		if err != nil {
			t.Errorf("parseEpoch(%q): %v", c.in, err)
			continue
		}
		if year != c.year {
			t.Errorf("parseEpoch(%q) year = %d, want %d", c.in, year, c.year)
		}
	}
}

func TestGroupURL(t *testing.T) {
	if _, ok := GroupURL("weather"); !ok {
		t.Error("weather should be a known group")
	}
	if url, ok := GroupURL(" stations "); !ok || !strings.Contains(url, "GROUP=stations") {
		t.Errorf("stations URL = %q, ok=%v", url, ok)
	}
	if _, ok := GroupURL("not-a-real-group"); ok {
		t.Error("unknown group should be rejected")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" amateur, weather ,,stations ")
	want := []string{"amateur", "weather", "stations"}
	if len(got) != len(want) {
		t.Fatalf("SplitList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SplitList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
