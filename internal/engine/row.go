// Package engine contains the tick orchestrator and the shared snapshot it
// publishes: the per-tick propagate/classify/filter/rank pipeline, the
// effector fan-out for the selected object, and the reader-side smoothing
// cache.
package engine

import (
	"sort"

	"github.com/skyward/skytrack/internal/illumination"
	"github.com/skyward/skytrack/internal/object"
)

// DisplayRow is the per-tick product for one object.
type DisplayRow struct {
	Name      string
	AzDeg     float64
	ElDeg     float64
	RangeKm   float64
	RangeRate float64 // km/s, positive receding
	LatDeg    float64
	LonDeg    float64
	ApogeeKm  float64
	State     illumination.State
	CatalogID int
	NextEvent string
	Flare     illumination.FlareStatus
}

// sortRows orders rows by elevation descending, stable.
func sortRows(rows []DisplayRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ElDeg > rows[j].ElDeg
	})
}

// capRows truncates to at most max non-special rows while always keeping
// the Sun and Moon rows wherever they rank.
func capRows(rows []DisplayRow, max int) []DisplayRow {
	out := make([]DisplayRow, 0, min(len(rows), max+2))
	kept := 0
	for _, r := range rows {
		if r.CatalogID == object.SunID || r.CatalogID == object.MoonID {
			out = append(out, r)
			continue
		}
		if kept < max {
			out = append(out, r)
			kept++
		}
	}
	return out
}
