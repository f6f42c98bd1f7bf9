// Package display renders the terminal frame: a header with the observer
// site and the display clock, then one line per tracked object sorted by
// elevation. The rendered frame doubles as the payload of the terminal
// mirror endpoint.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/skyward/skytrack/internal/config"
	"github.com/skyward/skytrack/internal/engine"
	"github.com/skyward/skytrack/internal/illumination"
)

const headerWidth = 118

// Render formats one text frame. total is the number of loaded records;
// displayTime is the display-clock reading (labelled LOC).
func Render(rows []engine.DisplayRow, cfg config.Config, total int, displayTime time.Time) string {
	var b strings.Builder

	mode := "OPTICAL"
	if cfg.Visibility == config.VisibilityRadio {
		mode = "RADIO"
	}

	fmt.Fprintf(&b, "SKYTRACK | Obs %.4f %.4f | Mode %s | MinEl %.1f | Shown %d/%d | %s LOC\n",
		cfg.ObserverLat, cfg.ObserverLon, mode, cfg.MinElevationDeg,
		len(rows), total, displayTime.UTC().Format("2006-01-02 15:04:05"))
	b.WriteString(strings.Repeat("-", headerWidth))
	b.WriteByte('\n')

	fmt.Fprintf(&b, "%-24s %8s %8s %10s %8s %8s %9s %9s %-8s %-16s %-5s\n",
		"NAME", "AZ", "EL", "RANGE", "RATE", "LAT", "LON", "APOGEE", "VIS", "NEXT", "FLARE")
	b.WriteString(strings.Repeat("=", headerWidth))
	b.WriteByte('\n')

	if len(rows) == 0 {
		b.WriteString("No objects match the current filters.\n")
		return b.String()
	}

	for _, r := range rows {
		fmt.Fprintf(&b, "%-24s %8.2f %8.2f %10.1f %8.3f %8.2f %9.2f %9.0f %-8s %-16s %-5s\n",
			truncate(r.Name, 24), r.AzDeg, r.ElDeg, r.RangeKm, r.RangeRate,
			r.LatDeg, r.LonDeg, r.ApogeeKm, r.State, r.NextEvent, flareLabel(r.Flare))
	}

	return b.String()
}

func flareLabel(f illumination.FlareStatus) string {
	switch f {
	case illumination.FlareHit:
		return "HIT"
	case illumination.FlareNear:
		return "NEAR"
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
