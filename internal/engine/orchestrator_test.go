package engine

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skyward/skytrack/internal/config"
	"github.com/skyward/skytrack/internal/illumination"
	"github.com/skyward/skytrack/internal/object"
	"github.com/skyward/skytrack/internal/pool"
	"github.com/skyward/skytrack/internal/rig"
	"github.com/skyward/skytrack/internal/tle"
	"github.com/skyward/skytrack/internal/transmitters"
)

var testLogger = slog.New(slog.DiscardHandler)

const issText = `ISS (ZARYA)
1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9993
2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495058
`

var tickTime = time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Physics() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

type fakeSource struct {
	store *object.Store
}

func (s *fakeSource) Build(ctx context.Context, cfg config.Config) (*object.Store, error) {
	return s.store, nil
}

type fakePointer struct {
	mu    sync.Mutex
	calls [][2]float64
}

func (p *fakePointer) Connected() bool { return true }
func (p *fakePointer) Command(az, el float64) error {
	p.mu.Lock()
	p.calls = append(p.calls, [2]float64{az, el})
	p.mu.Unlock()
	return nil
}
func (p *fakePointer) commands() [][2]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][2]float64(nil), p.calls...)
}

type fakeTuner struct {
	mu    sync.Mutex
	freqs [][2]int64
	modes []string
}

func (t *fakeTuner) Connected() bool { return true }
func (t *fakeTuner) SetFreqs(up, down int64) error {
	t.mu.Lock()
	t.freqs = append(t.freqs, [2]int64{up, down})
	t.mu.Unlock()
	return nil
}
func (t *fakeTuner) SetMode(mode string) error {
	t.mu.Lock()
	t.modes = append(t.modes, mode)
	t.mu.Unlock()
	return nil
}

type fakeTxDB struct {
	tx transmitters.Transmitter
	ok bool
}

func (d *fakeTxDB) Best(catalogID int) (transmitters.Transmitter, bool) {
	return d.tx, d.ok
}

func issStore(t *testing.T) *object.Store {
	t.Helper()
	entries, err := tle.Parse(strings.NewReader(issText), testLogger)
	if err != nil {
		t.Fatal(err)
	}
	return object.BuildStore(entries, testLogger)
}

// radioModeConfig shows every loaded object regardless of illumination and
// elevation, which keeps the ISS row deterministic at any tick time.
func radioModeConfig() config.Config {
	cfg := config.Default()
	cfg.Selection = config.SelectExplicit
	cfg.ExplicitNames = []string{"ISS"}
	cfg.Visibility = config.VisibilityRadio
	cfg.MinElevationDeg = -91
	cfg.MaxApogeeKm = -1
	return cfg
}

type fixture struct {
	orch  *Orchestrator
	state *State
	clock *fakeClock
	store *object.Store
}

func newFixture(t *testing.T, cfg config.Config, mutate func(*Deps)) *fixture {
	t.Helper()

	store := issStore(t)
	clock := &fakeClock{t: tickTime}
	state := NewState()
	workers := pool.New(1, testLogger)
	t.Cleanup(workers.Shutdown)

	deps := Deps{
		Source: &fakeSource{store: store},
		Clock:  clock,
		State:  state,
		Reload: &config.Mailbox{},
		Pool:   workers,
		Logger: testLogger,
	}
	if mutate != nil {
		mutate(&deps)
	}

	return &fixture{
		orch:  New(cfg, store, deps),
		state: state,
		clock: clock,
		store: store,
	}
}

// primeCaches fills both per-object caches so ticks stay deterministic
// (no background submissions).
func primeCaches(store *object.Store, at time.Time) {
	for _, rec := range store.All() {
		rec.SetPasses([]object.PassEvent{{Time: at.Add(30 * time.Minute), Rising: true}})
		rec.EnsureGroundTrack(at, 5, 60)
	}
}

func TestTick_PublishesAlignedSnapshot(t *testing.T) {
	f := newFixture(t, radioModeConfig(), nil)
	primeCaches(f.store, tickTime)

	f.orch.Tick(context.Background())
	snap := f.state.Read()

	if snap.Revision != 1 {
		t.Errorf("revision = %d, want 1", snap.Revision)
	}
	if len(snap.Rows) != len(snap.Refs) {
		t.Fatalf("rows/refs length mismatch: %d vs %d", len(snap.Rows), len(snap.Refs))
	}
	for i, row := range snap.Rows {
		if snap.Refs[i] == nil {
			t.Fatalf("nil back-reference at %d", i)
		}
		if snap.Refs[i].CatalogID() != row.CatalogID {
			t.Errorf("ref %d id %d != row id %d", i, snap.Refs[i].CatalogID(), row.CatalogID)
		}
	}

	for _, id := range []int{object.SunID, object.MoonID, 25544} {
		if !containsID(snap.Rows, id) {
			t.Errorf("id %d missing from snapshot", id)
		}
	}

	for i := 1; i < len(snap.Rows); i++ {
		if snap.Rows[i].ElDeg > snap.Rows[i-1].ElDeg {
			t.Errorf("rows not sorted by elevation at %d", i)
		}
	}
}

func TestTick_RevisionMonotonic(t *testing.T) {
	f := newFixture(t, radioModeConfig(), nil)
	primeCaches(f.store, tickTime)

	var last uint64
	for i := 0; i < 5; i++ {
		f.orch.Tick(context.Background())
		f.clock.advance(time.Second)
		rev := f.state.Revision()
		if rev != last+1 {
			t.Fatalf("revision = %d after tick %d", rev, i)
		}
		last = rev
	}
}

func TestTick_ApogeeFilterKeepsSpecials(t *testing.T) {
	cfg := radioModeConfig()
	cfg.MaxApogeeKm = 100 // well below the ISS orbit

	f := newFixture(t, cfg, nil)
	primeCaches(f.store, tickTime)
	f.orch.Tick(context.Background())

	snap := f.state.Read()
	if containsID(snap.Rows, 25544) {
		t.Error("apogee filter did not drop the ISS")
	}
	if !containsID(snap.Rows, object.SunID) || !containsID(snap.Rows, object.MoonID) {
		t.Error("special bodies lost to a user filter")
	}
}

func TestTick_DecayedNeverPublished(t *testing.T) {
	entries, err := tle.Parse(strings.NewReader(issText), testLogger)
	if err != nil {
		t.Fatal(err)
	}
	// Drive the derived apogee below the decay threshold.
	entries[0].MeanMotion = 17.0
	entries[0].Eccentricity = 0.0001
	store := object.BuildStore(entries, testLogger)

	clock := &fakeClock{t: tickTime}
	state := NewState()
	workers := pool.New(1, testLogger)
	defer workers.Shutdown()

	orch := New(radioModeConfig(), store, Deps{
		Source: &fakeSource{store: store},
		Clock:  clock,
		State:  state,
		Reload: &config.Mailbox{},
		Pool:   workers,
		Logger: testLogger,
	})

	for i := 0; i < 3; i++ {
		orch.Tick(context.Background())
		clock.advance(time.Second)
		if containsID(state.Read().Rows, 25544) {
			t.Fatal("decayed object appeared in a published row")
		}
	}
}

func TestTick_OpticalModeOnlyVisibleRows(t *testing.T) {
	cfg := radioModeConfig()
	cfg.Visibility = config.VisibilityOptical
	cfg.RotatorEnabled = false
	cfg.RadioEnabled = false

	f := newFixture(t, cfg, nil)
	primeCaches(f.store, tickTime)

	// March across a day so the object passes through every illumination
	// state at least once.
	for i := 0; i < 24; i++ {
		f.orch.Tick(context.Background())
		for _, row := range f.state.Read().Rows {
			if row.CatalogID < 0 {
				continue
			}
			if row.State != illumination.Visible {
				t.Fatalf("optical mode published state %v", row.State)
			}
		}
		f.clock.advance(time.Hour)
	}
}

func TestTick_RotatorDrivenForTarget(t *testing.T) {
	cfg := radioModeConfig()
	cfg.RotatorEnabled = true
	cfg.RotatorMinElevationDeg = -91 // always above the gate in this test

	pointer := &fakePointer{}
	f := newFixture(t, cfg, func(d *Deps) {
		d.NewPointer = func(endpoint string) Pointer { return pointer }
	})
	primeCaches(f.store, tickTime)

	if f.orch.Target() != 25544 {
		t.Fatalf("single explicit object not auto-targeted: %d", f.orch.Target())
	}

	f.orch.Tick(context.Background())

	snap := f.state.Read()
	var issRow *DisplayRow
	for i := range snap.Rows {
		if snap.Rows[i].CatalogID == 25544 {
			issRow = &snap.Rows[i]
		}
	}
	if issRow == nil {
		t.Fatal("ISS row missing")
	}

	calls := pointer.commands()
	if len(calls) != 1 {
		t.Fatalf("rotator commanded %d times, want 1", len(calls))
	}
	if math.Abs(calls[0][0]-issRow.AzDeg) > 1e-9 || math.Abs(calls[0][1]-issRow.ElDeg) > 1e-9 {
		t.Errorf("rotator command (%.3f, %.3f) != row look angle (%.3f, %.3f)",
			calls[0][0], calls[0][1], issRow.AzDeg, issRow.ElDeg)
	}
}

func TestTick_RotatorGatedByElevation(t *testing.T) {
	cfg := radioModeConfig()
	cfg.RotatorEnabled = true
	cfg.RotatorMinElevationDeg = 91 // unreachable

	pointer := &fakePointer{}
	f := newFixture(t, cfg, func(d *Deps) {
		d.NewPointer = func(endpoint string) Pointer { return pointer }
	})
	primeCaches(f.store, tickTime)

	f.orch.Tick(context.Background())
	if len(pointer.commands()) != 0 {
		t.Error("rotator commanded below its elevation gate")
	}
}

func TestTick_DopplerTuning(t *testing.T) {
	cfg := radioModeConfig()
	cfg.RadioEnabled = true

	tuner := &fakeTuner{}
	txDB := &fakeTxDB{
		tx: transmitters.Transmitter{
			CatalogID:   25544,
			UplinkLow:   145800000,
			DownlinkLow: 437000000,
			Mode:        "FM",
			Status:      "active",
		},
		ok: true,
	}
	f := newFixture(t, cfg, func(d *Deps) {
		d.TxDB = txDB
		d.NewTuner = func(endpoint string) Tuner { return tuner }
	})
	primeCaches(f.store, tickTime)

	f.orch.Tick(context.Background())

	snap := f.state.Read()
	var rr float64
	for _, row := range snap.Rows {
		if row.CatalogID == 25544 {
			rr = row.RangeRate
		}
	}

	tuner.mu.Lock()
	defer tuner.mu.Unlock()
	if len(tuner.freqs) != 1 {
		t.Fatalf("tuner commanded %d times, want 1", len(tuner.freqs))
	}
	wantDown := rig.TunedDownlink(437000000, rr)
	wantUp := rig.TunedUplink(145800000, rr)
	if tuner.freqs[0][1] != wantDown || tuner.freqs[0][0] != wantUp {
		t.Errorf("tuned (%d, %d), want (%d, %d)",
			tuner.freqs[0][0], tuner.freqs[0][1], wantUp, wantDown)
	}
	if len(tuner.modes) != 1 || tuner.modes[0] != "FM" {
		t.Errorf("modes = %v, want [FM]", tuner.modes)
	}
}

func TestTick_StalePassClearsToCalculating(t *testing.T) {
	f := newFixture(t, radioModeConfig(), nil)

	rec := f.store.Get(25544)
	rec.EnsureGroundTrack(tickTime, 5, 60)
	rec.SetPasses([]object.PassEvent{{Time: tickTime.Add(-time.Minute), Rising: true}})

	f.orch.Tick(context.Background())

	snap := f.state.Read()
	for _, row := range snap.Rows {
		if row.CatalogID == 25544 && row.NextEvent != calculatingLabel {
			t.Errorf("stale pass rendered %q, want %q", row.NextEvent, calculatingLabel)
		}
	}
	if len(rec.Passes()) != 0 {
		t.Error("stale pass cache not cleared")
	}
}

func TestTick_NextEventCountdown(t *testing.T) {
	f := newFixture(t, radioModeConfig(), nil)

	rec := f.store.Get(25544)
	rec.EnsureGroundTrack(tickTime, 5, 60)
	rec.SetPasses([]object.PassEvent{{Time: tickTime.Add(12*time.Minute + 5*time.Second), Rising: true}})

	f.orch.Tick(context.Background())

	snap := f.state.Read()
	for _, row := range snap.Rows {
		if row.CatalogID == 25544 && row.NextEvent != "AOS 12m 5s" {
			t.Errorf("next event = %q, want \"AOS 12m 5s\"", row.NextEvent)
		}
	}
}

func TestReload_ObserverApplied(t *testing.T) {
	reload := &config.Mailbox{}
	f := newFixture(t, radioModeConfig(), func(d *Deps) {
		d.Reload = reload
	})
	primeCaches(f.store, tickTime)

	f.orch.Tick(context.Background())
	revBefore := f.state.Revision()

	next := f.orch.Config()
	next.ObserverLat = -33.86
	next.ObserverLon = 151.21
	if err := reload.Offer(next); err != nil {
		t.Fatalf("Offer: %v", err)
	}

	// Hold the compute slot so the tick cannot refill the pass cache
	// behind the assertion below.
	rec := f.store.Get(25544)
	rec.TryBeginCompute()
	defer rec.EndCompute()

	f.orch.Tick(context.Background())

	got := f.orch.Config()
	if got.ObserverLat != -33.86 || got.ObserverLon != 151.21 {
		t.Errorf("config after reload = (%v, %v)", got.ObserverLat, got.ObserverLon)
	}
	// The very next snapshot was produced with the new observer.
	if f.state.Revision() != revBefore+1 {
		t.Error("reload tick did not publish")
	}
	// Site change invalidates the cached pass predictions.
	if len(f.store.Get(25544).Passes()) != 0 {
		t.Error("pass cache survived an observer change")
	}
}

func TestReload_BadConfigNeverArrives(t *testing.T) {
	reload := &config.Mailbox{}
	f := newFixture(t, radioModeConfig(), func(d *Deps) {
		d.Reload = reload
	})
	primeCaches(f.store, tickTime)

	bad := f.orch.Config()
	bad.ObserverLat = 500
	if err := reload.Offer(bad); err == nil {
		t.Fatal("invalid config accepted by the mailbox")
	}

	before := f.orch.Config()
	f.orch.Tick(context.Background())
	if f.orch.Config().ObserverLat != before.ObserverLat {
		t.Error("rejected config leaked into the orchestrator")
	}
}
