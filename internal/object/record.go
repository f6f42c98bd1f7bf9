// Package object owns the tracked-object records: element set, propagator
// handle, derived orbit figures, and the per-object caches (ground track,
// predicted passes) that background workers populate.
package object

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/skyward/skytrack/internal/astro"
	"github.com/skyward/skytrack/internal/illumination"
	"github.com/skyward/skytrack/internal/tle"
)

// Reserved catalog numbers for the special bodies that carry no element set.
const (
	SunID  = -1
	MoonID = -2
)

// earthMu is Earth's gravitational parameter (km^3/s^2).
const earthMu = 398600.4418

// Objects whose apogee falls below this altitude are treated as decayed and
// excluded from every output.
const DecayApogeeKm = 80.0

// ErrElementParse marks a two-line set the propagator rejected. The
// offending object is skipped; others continue.
var ErrElementParse = fmt.Errorf("element set rejected")

// PassEvent is one horizon crossing: the instant and whether the object is
// rising (AOS) or setting (LOS).
type PassEvent struct {
	Time   time.Time
	Rising bool
}

// Record is one tracked object. The propagator handle is immutable after
// construction; the ground-track and pass caches are guarded by the record
// mutex, and the computing flag admits at most one background job.
type Record struct {
	name      string
	catalogID int
	epoch     time.Time
	epochYear int
	apogeeKm  float64

	sat    satellite.Satellite
	hasSat bool

	mu     sync.Mutex
	track  []astro.Geodetic
	passes []PassEvent

	computing atomic.Bool
}

// New builds a Record from a parsed element-set entry. The SGP4 model is
// initialized eagerly so rejects surface at load time.
func New(e tle.Entry) (*Record, error) {
	if e.EpochYear < 1957 {
		return nil, fmt.Errorf("%w: epoch year %d predates the catalog", ErrElementParse, e.EpochYear)
	}
	// The propagator aborts the process on malformed lines, so length is
	// checked here rather than left to it.
	if len(e.Line1) != 69 || len(e.Line2) != 69 {
		return nil, fmt.Errorf("%w: catalog lines must be 69 characters (%d/%d)",
			ErrElementParse, len(e.Line1), len(e.Line2))
	}

	sat := satellite.TLEToSat(e.Line1, e.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: sgp4 init code=%d %s", ErrElementParse, sat.Error, sat.ErrorStr)
	}

	return &Record{
		name:      e.Name,
		catalogID: e.CatalogID,
		epoch:     e.Epoch,
		epochYear: e.EpochYear,
		apogeeKm:  apogeeFromElements(e.MeanMotion, e.Eccentricity),
		sat:       sat,
		hasSat:    true,
	}, nil
}

// NewSun returns the Sun pseudo-record. Its position comes from the solar
// ephemeris; the huge apogee keeps it clear of the decay and apogee filters
// (which special bodies bypass anyway).
func NewSun() *Record {
	return &Record{name: "Sun", catalogID: SunID, apogeeKm: illumination.AstronomicalUnitKm}
}

// NewMoon returns the Moon pseudo-record.
func NewMoon() *Record {
	return &Record{name: "Moon", catalogID: MoonID, apogeeKm: 405500}
}

// apogeeFromElements derives apogee altitude from mean motion (rev/day) and
// eccentricity: n in rad/s, a = (mu/n^2)^(1/3), apogee = a(1+e) - Re.
func apogeeFromElements(meanMotion, ecc float64) float64 {
	if meanMotion <= 0 {
		return 0
	}
	n := meanMotion * 2.0 * math.Pi / 86400.0
	a := math.Cbrt(earthMu / (n * n))
	return a*(1+ecc) - astro.EarthRadiusKm
}

// Name returns the display name.
func (r *Record) Name() string { return r.name }

// CatalogID returns the catalog number. Negative values are reserved for
// the special bodies.
func (r *Record) CatalogID() int { return r.catalogID }

// ApogeeKm returns the derived apogee altitude.
func (r *Record) ApogeeKm() float64 { return r.apogeeKm }

// Epoch returns the element-set epoch (zero for special bodies).
func (r *Record) Epoch() time.Time { return r.epoch }

// Special reports whether this record is the Sun or the Moon.
func (r *Record) Special() bool { return r.catalogID < 0 }

// Decayed reports whether the object is treated as reentered and excluded
// from all outputs.
func (r *Record) Decayed() bool {
	return !r.Special() && r.apogeeKm < DecayApogeeKm
}

// Propagate returns the object's inertial position and velocity (km, km/s)
// at time t. Numerical failures return zero vectors, which downstream
// treats as a transient miss for that tick only, never an error.
func (r *Record) Propagate(t time.Time) (astro.Vector3, astro.Vector3) {
	switch r.catalogID {
	case SunID:
		return ephemerisWithVelocity(illumination.SunECI, t)
	case MoonID:
		return ephemerisWithVelocity(illumination.MoonECI, t)
	}
	if !r.hasSat {
		return astro.Vector3{}, astro.Vector3{}
	}

	t = t.UTC()
	pos, vel := satellite.Propagate(r.sat, t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second())

	p := astro.Vector3{X: pos.X, Y: pos.Y, Z: pos.Z}
	v := astro.Vector3{X: vel.X, Y: vel.Y, Z: vel.Z}

	if !saneOrbit(p) {
		return astro.Vector3{}, astro.Vector3{}
	}
	return p, v
}

// saneOrbit rejects NaN/Inf output and absurd magnitudes, both of which the
// propagator produces for decayed or badly conditioned element sets.
func saneOrbit(p astro.Vector3) bool {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
		return false
	}
	if math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) || math.IsInf(p.Z, 0) {
		return false
	}
	mag := p.Mag()
	return mag >= 6200.0 && mag <= 500000.0
}

// ephemerisWithVelocity differentiates an analytic ephemeris over one
// second to supply the velocity the range-rate projection needs.
func ephemerisWithVelocity(f func(time.Time) astro.Vector3, t time.Time) (astro.Vector3, astro.Vector3) {
	pos := f(t)
	next := f(t.Add(time.Second))
	return pos, next.Sub(pos)
}

// SubSatellite returns the ground point beneath the object at time t, or
// the zero Geodetic on a propagation transient.
func (r *Record) SubSatellite(t time.Time) astro.Geodetic {
	pos, _ := r.Propagate(t)
	return astro.SubPoint(pos, t)
}

// EnsureGroundTrack samples the ground track over a symmetric window around
// ref and installs it in the cache. Samples with near-zero latitude and
// altitude indicate a propagator failure and are filtered out. Safe to call
// repeatedly; callers serialize through the computing flag.
func (r *Record) EnsureGroundTrack(ref time.Time, halfWidthMin, stepSec int) {
	if stepSec <= 0 || halfWidthMin <= 0 {
		return
	}

	start := ref.Add(-time.Duration(halfWidthMin) * time.Minute)
	end := ref.Add(time.Duration(halfWidthMin) * time.Minute)

	samples := make([]astro.Geodetic, 0, halfWidthMin*2*60/stepSec+1)
	for t := start; !t.After(end); t = t.Add(time.Duration(stepSec) * time.Second) {
		g := r.SubSatellite(t)
		if math.Abs(g.LatDeg) < 0.001 && math.Abs(g.AltKm) < 0.001 {
			continue
		}
		samples = append(samples, g)
	}

	r.mu.Lock()
	r.track = samples
	r.mu.Unlock()
}

// GroundTrack returns a copy of the cached ground track; may be empty.
func (r *Record) GroundTrack() []astro.Geodetic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]astro.Geodetic, len(r.track))
	copy(out, r.track)
	return out
}

// SetPasses replaces the cached pass list.
func (r *Record) SetPasses(events []PassEvent) {
	r.mu.Lock()
	r.passes = events
	r.mu.Unlock()
}

// ClearPasses drops the cached pass list so the next tick resubmits a
// prediction job.
func (r *Record) ClearPasses() {
	r.SetPasses(nil)
}

// Passes returns a copy of the cached pass list; may be empty.
func (r *Record) Passes() []PassEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PassEvent, len(r.passes))
	copy(out, r.passes)
	return out
}

// CachesEmpty reports whether either per-object cache still needs a
// background fill.
func (r *Record) CachesEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.passes) == 0 || len(r.track) == 0
}

// TryBeginCompute claims the single-writer background slot. Exactly one
// caller wins until EndCompute releases it.
func (r *Record) TryBeginCompute() bool {
	return r.computing.CompareAndSwap(false, true)
}

// EndCompute releases the background slot.
func (r *Record) EndCompute() {
	r.computing.Store(false)
}
