// Package passes predicts horizon-crossing events (AOS/LOS) for a tracked
// object over a search window: a coarse elevation scan finds sign changes,
// then a Newton iteration with a finite-difference derivative refines each
// crossing to the horizon.
package passes

import (
	"context"
	"math"
	"time"

	"github.com/skyward/skytrack/internal/object"
	"github.com/skyward/skytrack/internal/observer"
)

const (
	// Coarse scan step. LEO passes last several minutes, so a 2-minute
	// grid cannot skip over one entirely.
	coarseStep = 2 * time.Minute

	// Newton refinement parameters.
	newtonMaxIter  = 10
	newtonTolDeg   = 0.01
	newtonClampSec = 600.0
	derivStep      = time.Second

	// DefaultWindowMin is the search window handed to background jobs.
	DefaultWindowMin = 240
)

// Predictor finds passes for one observer site.
type Predictor struct {
	obs *observer.Observer
}

// New creates a Predictor for the given observer.
func New(obs *observer.Observer) *Predictor {
	return &Predictor{obs: obs}
}

// Predict scans [start, start+windowMin) and returns the horizon crossings
// in time order. Each event's elevation is within the Newton tolerance of
// zero; Rising distinguishes AOS from LOS by the sign of the elevation
// slope one second past the root.
func (p *Predictor) Predict(ctx context.Context, rec *object.Record, start time.Time, windowMin int) []object.PassEvent {
	var events []object.PassEvent

	end := start.Add(time.Duration(windowMin) * time.Minute)
	prevEl := p.elevation(rec, start)

	for t := start; t.Before(end); t = t.Add(coarseStep) {
		if ctx.Err() != nil {
			return events
		}

		next := t.Add(coarseStep)
		nextEl := p.elevation(rec, next)

		if (prevEl < 0 && nextEl >= 0) || (prevEl >= 0 && nextEl < 0) {
			crossing := p.refine(rec, t.Add(coarseStep/2))
			slope := p.elevation(rec, crossing.Add(derivStep)) - p.elevation(rec, crossing)
			events = append(events, object.PassEvent{Time: crossing, Rising: slope > 0})
		}
		prevEl = nextEl
	}

	return events
}

// refine runs a Newton iteration on elevation(t) = 0 with a one-second
// forward-difference derivative, step clamped to +/-600 s.
func (p *Predictor) refine(rec *object.Record, guess time.Time) time.Time {
	t := guess
	for i := 0; i < newtonMaxIter; i++ {
		el := p.elevation(rec, t)
		if math.Abs(el) < newtonTolDeg {
			return t
		}

		deriv := p.elevation(rec, t.Add(derivStep)) - el
		if math.Abs(deriv) < 1e-5 {
			break
		}

		deltaSec := el / deriv
		if deltaSec > newtonClampSec {
			deltaSec = newtonClampSec
		} else if deltaSec < -newtonClampSec {
			deltaSec = -newtonClampSec
		}
		t = t.Add(-time.Duration(deltaSec * float64(time.Second)))
	}
	return t
}

func (p *Predictor) elevation(rec *object.Record, t time.Time) float64 {
	pos, _ := rec.Propagate(t)
	if pos.IsZero() {
		return -90
	}
	return p.obs.Look(pos, t).ElDeg
}
