package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skyward/skytrack/internal/astro"
	"github.com/skyward/skytrack/internal/config"
	"github.com/skyward/skytrack/internal/illumination"
	"github.com/skyward/skytrack/internal/metrics"
	"github.com/skyward/skytrack/internal/object"
	"github.com/skyward/skytrack/internal/observer"
	"github.com/skyward/skytrack/internal/passes"
	"github.com/skyward/skytrack/internal/pool"
	"github.com/skyward/skytrack/internal/rig"
	"github.com/skyward/skytrack/internal/transmitters"
)

const (
	tickInterval = time.Second
	// Pacing sleeps in short slices so shutdown is observed promptly.
	paceSlice = 50 * time.Millisecond
)

// calculatingLabel shows while an object's pass cache is empty or stale.
const calculatingLabel = "Calculating..."

// Pointer drives an antenna rotator toward the selected object.
type Pointer interface {
	Connected() bool
	Command(azDeg, elDeg float64) error
}

// Tuner drives a transceiver's frequencies and mode.
type Tuner interface {
	Connected() bool
	SetFreqs(uplinkHz, downlinkHz int64) error
	SetMode(mode string) error
}

// TransmitterSource answers transmitter lookups for radio tracking.
type TransmitterSource interface {
	Best(catalogID int) (transmitters.Transmitter, bool)
}

// RecordSource rebuilds the object store for a configuration, used at the
// hot-reload gate when the selection changes.
type RecordSource interface {
	Build(ctx context.Context, cfg config.Config) (*object.Store, error)
}

// PhysicsClock supplies the physics-time instant that feeds every
// numerical routine in the tick.
type PhysicsClock interface {
	Physics() time.Time
}

// Deps are the orchestrator's collaborators. NewPointer/NewTuner are
// factories so adapters can be rebuilt when a reload changes endpoints;
// either may be nil to run without effectors.
type Deps struct {
	Source     RecordSource
	TxDB       TransmitterSource
	NewPointer func(endpoint string) Pointer
	NewTuner   func(endpoint string) Tuner
	Clock      PhysicsClock
	State      *State
	Reload     *config.Mailbox
	Pool       *pool.Pool
	Logger     *slog.Logger
}

// Orchestrator is the single producer: it runs the per-tick pipeline at
// ~1 Hz and publishes snapshots to the shared state. All fields other than
// the selected-target atomic are owned by the orchestrator goroutine.
type Orchestrator struct {
	deps Deps

	cfgMu sync.RWMutex
	cfg   config.Config

	store atomic.Pointer[object.Store]
	obs   *observer.Observer
	pred  *passes.Predictor

	sun  *object.Record
	moon *object.Record

	rotator Pointer
	radio   Tuner

	selected    atomic.Int64
	objectCount atomic.Int64
}

// New creates an orchestrator over an initial store and configuration.
func New(cfg config.Config, store *object.Store, deps Deps) *Orchestrator {
	o := &Orchestrator{
		deps: deps,
		cfg:  cfg,
		sun:  object.NewSun(),
		moon: object.NewMoon(),
	}
	o.store.Store(store)
	o.applyObserver(cfg)
	o.applyEffectors(config.Config{}, cfg)

	// A single explicitly selected object becomes the effector target.
	if cfg.Selection == config.SelectExplicit && store.Len() == 1 {
		o.selected.Store(int64(store.All()[0].CatalogID()))
	}

	o.objectCount.Store(int64(store.Len()))
	metrics.SetObjectsTracked(store.Len())
	return o
}

// ObjectCount returns the number of loaded records, safe from any
// goroutine.
func (o *Orchestrator) ObjectCount() int {
	return int(o.objectCount.Load())
}

// SetTarget selects the effector target by catalog number. Returns false
// if no such object is loaded.
func (o *Orchestrator) SetTarget(catalogID int) bool {
	if o.store.Load().Get(catalogID) == nil {
		return false
	}
	o.selected.Store(int64(catalogID))
	return true
}

// Target returns the currently selected catalog number, or 0.
func (o *Orchestrator) Target() int {
	return int(o.selected.Load())
}

// Config returns the active configuration.
func (o *Orchestrator) Config() config.Config {
	o.cfgMu.RLock()
	defer o.cfgMu.RUnlock()
	return o.cfg
}

// Run drives the tick loop until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	o.deps.Logger.Info("orchestrator started", "objects", o.store.Load().Len())

	for {
		start := time.Now()
		o.Tick(ctx)
		metrics.ObserveTick(time.Since(start))

		if !o.pace(ctx, start.Add(tickInterval)) {
			o.deps.Logger.Info("orchestrator stopped")
			return
		}
	}
}

// pace sleeps until the next tick edge in short slices that observe
// cancellation. Returns false when the context is done.
func (o *Orchestrator) pace(ctx context.Context, until time.Time) bool {
	for {
		remaining := time.Until(until)
		if remaining <= 0 {
			return true
		}
		if remaining > paceSlice {
			remaining = paceSlice
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(remaining):
		}
	}
}

// Tick runs one iteration of the pipeline: reload gate, special bodies,
// per-object rows, sort, cap, back-reference rebuild, publish.
func (o *Orchestrator) Tick(ctx context.Context) {
	o.reloadGate(ctx)

	cfg := o.Config()
	store := o.store.Load()
	now := o.deps.Clock.Physics()
	sunECI := illumination.SunECI(now)
	obsECI := o.obs.PositionECI(now)

	rows := make([]DisplayRow, 0, store.Len()+2)
	rows = append(rows, o.specialRow(o.sun, now, obsECI))
	rows = append(rows, o.specialRow(o.moon, now, obsECI))

	for _, rec := range store.All() {
		if row, ok := o.objectRow(ctx, rec, cfg, now, sunECI, obsECI); ok {
			rows = append(rows, row)
		}
	}

	sortRows(rows)
	rows = capRows(rows, cfg.EffectiveMaxObjects())

	refs := make([]*object.Record, len(rows))
	for i, r := range rows {
		refs[i] = o.resolve(r.CatalogID)
	}

	o.deps.State.Publish(rows, refs, now)
}

// specialRow builds the Sun or Moon row. Special bodies bypass every user
// filter and the object cap.
func (o *Orchestrator) specialRow(rec *object.Record, now time.Time, obsECI astro.Vector3) DisplayRow {
	pos, vel := rec.Propagate(now)
	look := o.obs.Look(pos, now)
	rr := o.obs.RangeRate(pos, vel, now)
	geo := astro.SubPointSpherical(pos, now)

	var state illumination.State
	if rec.CatalogID() == object.SunID {
		// The Sun is its own light source: in view whenever it is above
		// the horizon.
		if look.ElDeg > 0 {
			state = illumination.Visible
		} else {
			state = illumination.Daylight
		}
	} else {
		state = illumination.Classify(pos, obsECI, now)
	}

	return DisplayRow{
		Name:      rec.Name(),
		AzDeg:     look.AzDeg,
		ElDeg:     look.ElDeg,
		RangeKm:   look.RangeKm,
		RangeRate: rr,
		LatDeg:    geo.LatDeg,
		LonDeg:    geo.LonDeg,
		ApogeeKm:  rec.ApogeeKm(),
		State:     state,
		CatalogID: rec.CatalogID(),
	}
}

// objectRow runs pipeline steps 4a-4j for one record. The bool result is
// false when the object is skipped this tick (decayed, transient miss, or
// filtered).
func (o *Orchestrator) objectRow(ctx context.Context, rec *object.Record, cfg config.Config, now time.Time, sunECI, obsECI astro.Vector3) (DisplayRow, bool) {
	if rec.Decayed() {
		return DisplayRow{}, false
	}

	pos, vel := rec.Propagate(now)
	if pos.IsZero() {
		// Transient numerical miss: drop the row for this tick only.
		metrics.IncPropagationTransient()
		return DisplayRow{}, false
	}

	look := o.obs.Look(pos, now)
	rr := o.obs.RangeRate(pos, vel, now)

	isTarget := rec.CatalogID() == o.Target()
	if isTarget && cfg.RotatorEnabled && o.rotator != nil &&
		look.ElDeg >= cfg.RotatorMinElevationDeg {
		// Command failures are the adapter's problem; it reconnects on
		// the next tick.
		_ = o.rotator.Command(look.AzDeg, look.ElDeg)
	}

	state := illumination.Classify(pos, obsECI, now)

	if cfg.MaxApogeeKm >= 0 && rec.ApogeeKm() > cfg.MaxApogeeKm {
		return DisplayRow{}, false
	}
	if cfg.MinElevationDeg >= 0 && look.ElDeg < cfg.MinElevationDeg {
		return DisplayRow{}, false
	}
	if cfg.Visibility == config.VisibilityOptical && state != illumination.Visible {
		return DisplayRow{}, false
	}

	flare := illumination.FlareNone
	if state == illumination.Visible {
		flare = illumination.Flare(pos, obsECI, sunECI, rec.ApogeeKm())
	}

	if rec.CachesEmpty() {
		o.submitBackground(ctx, rec, cfg, now)
	}

	nextEvent := o.nextEventLabel(rec, now)

	if isTarget && cfg.RadioEnabled && o.radio != nil && o.deps.TxDB != nil {
		o.tuneRadio(rec.CatalogID(), rr)
	}

	geo := astro.SubPoint(pos, now)

	return DisplayRow{
		Name:      rec.Name(),
		AzDeg:     look.AzDeg,
		ElDeg:     look.ElDeg,
		RangeKm:   look.RangeKm,
		RangeRate: rr,
		LatDeg:    geo.LatDeg,
		LonDeg:    geo.LonDeg,
		ApogeeKm:  rec.ApogeeKm(),
		State:     state,
		CatalogID: rec.CatalogID(),
		NextEvent: nextEvent,
		Flare:     flare,
	}, true
}

// submitBackground queues the pass-prediction and ground-track job for a
// record. The record's computing flag is the admission control: only one
// job per object, released when the job finishes.
func (o *Orchestrator) submitBackground(ctx context.Context, rec *object.Record, cfg config.Config, now time.Time) {
	if !rec.TryBeginCompute() {
		return
	}

	submitted := o.deps.Pool.Submit(func() {
		defer rec.EndCompute()
		events := o.pred.Predict(ctx, rec, now, passes.DefaultWindowMin)
		rec.SetPasses(events)
		rec.EnsureGroundTrack(now, cfg.TrailHalfMinutes, 60)
	})
	if !submitted {
		rec.EndCompute()
		return
	}
	metrics.IncBackgroundJobs()
}

// nextEventLabel formats the countdown to the first future pass event. A
// stale head clears the cache so the next tick resubmits prediction.
func (o *Orchestrator) nextEventLabel(rec *object.Record, now time.Time) string {
	events := rec.Passes()
	if len(events) == 0 {
		return calculatingLabel
	}

	next := events[0]
	diff := next.Time.Sub(now)
	if diff < 0 {
		rec.ClearPasses()
		return calculatingLabel
	}

	kind := "LOS"
	if next.Rising {
		kind = "AOS"
	}
	total := int(diff.Seconds())
	return fmt.Sprintf("%s %dm %ds", kind, total/60, total%60)
}

// tuneRadio applies Doppler compensation for the selected object and
// pushes the tuned pair to the transceiver.
func (o *Orchestrator) tuneRadio(catalogID int, rangeRate float64) {
	tx, ok := o.deps.TxDB.Best(catalogID)
	if !ok || tx.DownlinkLow <= 0 {
		return
	}

	_ = o.radio.SetMode(tx.Mode)

	down := rig.TunedDownlink(tx.DownlinkLow, rangeRate)
	var up int64
	if tx.UplinkLow > 0 {
		up = rig.TunedUplink(tx.UplinkLow, rangeRate)
	}
	_ = o.radio.SetFreqs(up, down)
}

// resolve maps a row's catalog number back to its record.
func (o *Orchestrator) resolve(catalogID int) *object.Record {
	switch catalogID {
	case object.SunID:
		return o.sun
	case object.MoonID:
		return o.moon
	default:
		return o.store.Load().Get(catalogID)
	}
}

// reloadGate applies a pending configuration at the top of the tick: clear
// the snapshot back-references, rebuild the store when the selection
// changed, rebuild the observer, and reconnect effectors whose settings
// changed.
func (o *Orchestrator) reloadGate(ctx context.Context) {
	next, ok := o.deps.Reload.Take()
	if !ok {
		return
	}

	prev := o.Config()
	o.deps.State.ClearRefs()

	if selectionChanged(prev, next) {
		store, err := o.deps.Source.Build(ctx, next)
		if err != nil {
			o.deps.Logger.Error("reload: store rebuild failed, keeping previous objects", "error", err)
		} else {
			o.store.Store(store)
			o.selected.Store(0)
			if next.Selection == config.SelectExplicit && store.Len() == 1 {
				o.selected.Store(int64(store.All()[0].CatalogID()))
			}
			o.objectCount.Store(int64(store.Len()))
			metrics.SetObjectsTracked(store.Len())
		}
	}

	if observerChanged(prev, next) {
		o.applyObserver(next)
		// Cached passes were computed against the old site.
		for _, rec := range o.store.Load().All() {
			rec.ClearPasses()
		}
	}

	o.applyEffectors(prev, next)

	o.cfgMu.Lock()
	o.cfg = next
	o.cfgMu.Unlock()

	metrics.IncReloads()
	o.deps.Logger.Info("configuration reloaded",
		"lat", next.ObserverLat,
		"lon", next.ObserverLon,
		"selection", string(next.Selection),
		"visibility", string(next.Visibility),
	)
}

func (o *Orchestrator) applyObserver(cfg config.Config) {
	o.obs = observer.New(cfg.ObserverLat, cfg.ObserverLon, cfg.ObserverAltKm)
	o.pred = passes.New(o.obs)
}

// applyEffectors reconciles the adapters with the new configuration,
// reconnecting only when an enable bit or endpoint changed.
func (o *Orchestrator) applyEffectors(prev, next config.Config) {
	if prev.RotatorEnabled != next.RotatorEnabled || prev.RotatorEndpoint != next.RotatorEndpoint {
		o.rotator = nil
		if next.RotatorEnabled && o.deps.NewPointer != nil {
			o.rotator = o.deps.NewPointer(next.RotatorEndpoint)
		}
	}
	if prev.RadioEnabled != next.RadioEnabled || prev.RadioEndpoint != next.RadioEndpoint {
		o.radio = nil
		if next.RadioEnabled && o.deps.NewTuner != nil {
			o.radio = o.deps.NewTuner(next.RadioEndpoint)
		}
	}
}

func selectionChanged(a, b config.Config) bool {
	if a.Selection != b.Selection {
		return true
	}
	return !equalStrings(a.Groups, b.Groups) || !equalStrings(a.ExplicitNames, b.ExplicitNames)
}

func observerChanged(a, b config.Config) bool {
	return a.ObserverLat != b.ObserverLat ||
		a.ObserverLon != b.ObserverLon ||
		a.ObserverAltKm != b.ObserverAltKm
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
