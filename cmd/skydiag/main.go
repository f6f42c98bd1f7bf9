// skydiag is a one-shot diagnostic: it loads a group, propagates every
// object once, and prints the look angles and upcoming passes for the
// highest object. Useful for sanity-checking a site configuration without
// starting the full tracker.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/skyward/skytrack/internal/object"
	"github.com/skyward/skytrack/internal/observer"
	"github.com/skyward/skytrack/internal/passes"
	"github.com/skyward/skytrack/internal/tle"
)

func main() {
	lat := flag.Float64("lat", 39.5478, "observer latitude (deg)")
	lon := flag.Float64("lon", -76.0916, "observer longitude (deg)")
	alt := flag.Float64("alt", 0.1, "observer altitude (km)")
	group := flag.String("group", "stations", "Celestrak group tag")
	cacheDir := flag.String("cache", "./tle_cache", "element-set cache directory")
	window := flag.Int("window", 240, "pass search window (minutes)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	loader := tle.NewLoader(tle.NewCache(*cacheDir, 0), tle.NewFetcher(), logger)
	entries, err := loader.LoadGroups(context.Background(), *group)
	if err != nil || len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "no element sets for group %q: %v\n", *group, err)
		os.Exit(1)
	}

	store := object.BuildStore(entries, logger)
	obs := observer.New(*lat, *lon, *alt)
	now := time.Now().UTC()

	fmt.Printf("%-24s %8s %8s %10s %8s\n", "NAME", "AZ", "EL", "RANGE", "RATE")
	var best *object.Record
	bestEl := -91.0
	for _, rec := range store.All() {
		pos, vel := rec.Propagate(now)
		if pos.IsZero() {
			continue
		}
		look := obs.Look(pos, now)
		rr := obs.RangeRate(pos, vel, now)
		fmt.Printf("%-24s %8.2f %8.2f %10.1f %8.3f\n",
			rec.Name(), look.AzDeg, look.ElDeg, look.RangeKm, rr)
		if look.ElDeg > bestEl {
			bestEl = look.ElDeg
			best = rec
		}
	}

	if best == nil {
		fmt.Println("no propagatable objects")
		return
	}

	fmt.Printf("\nUpcoming horizon crossings for %s:\n", best.Name())
	pred := passes.New(obs)
	for _, ev := range pred.Predict(context.Background(), best, now, *window) {
		kind := "LOS"
		if ev.Rising {
			kind = "AOS"
		}
		fmt.Printf("  %s  %s\n", kind, ev.Time.UTC().Format(time.RFC3339))
	}
}
