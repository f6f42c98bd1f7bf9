package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/skyward/skytrack/internal/api"
	"github.com/skyward/skytrack/internal/astro"
	"github.com/skyward/skytrack/internal/builder"
	"github.com/skyward/skytrack/internal/config"
	"github.com/skyward/skytrack/internal/display"
	"github.com/skyward/skytrack/internal/engine"
	"github.com/skyward/skytrack/internal/mirror"
	"github.com/skyward/skytrack/internal/object"
	"github.com/skyward/skytrack/internal/pool"
	"github.com/skyward/skytrack/internal/rig"
	"github.com/skyward/skytrack/internal/tle"
	"github.com/skyward/skytrack/internal/transmitters"
	"github.com/skyward/skytrack/web"
)

const timeLayout = "2006-01-02 15:04:05"

// recordSource rebuilds the object store from the element-set loader, both
// at startup and at hot-reload boundaries.
type recordSource struct {
	loader *tle.Loader
	logger *slog.Logger
}

func (rs *recordSource) Build(ctx context.Context, cfg config.Config) (*object.Store, error) {
	var (
		entries []tle.Entry
		err     error
	)
	switch cfg.Selection {
	case config.SelectExplicit:
		entries, err = rs.loader.LoadNames(ctx, cfg.ExplicitNames)
	default:
		entries, err = rs.loader.LoadGroups(ctx, strings.Join(cfg.Groups, ","))
	}
	if err != nil {
		return nil, err
	}
	return object.BuildStore(entries, rs.logger), nil
}

func main() {
	// Optional .env for endpoint settings; absence is fine.
	godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	flags := flag.NewFlagSet("skytrack", flag.ExitOnError)
	flags.Usage = func() { printUsage(flags) }

	latFlag := flags.Float64("lat", 0, "override observer latitude (deg)")
	lonFlag := flags.Float64("lon", 0, "override observer longitude (deg)")
	altFlag := flags.Float64("alt", 0, "override observer altitude (km)")
	minElFlag := flags.Float64("minel", 0, "override minimum elevation filter (deg)")
	maxApoFlag := flags.Float64("maxapo", 0, "override maximum apogee filter (km, negative disables)")
	maxSatsFlag := flags.Int("max_sats", 0, "override maximum displayed objects")
	trailFlag := flags.Int("trail_mins", 0, "override ground-track half window (minutes)")
	groupSel := flags.String("groupsel", "", "comma-separated group tags (selects group mode)")
	satSel := flags.String("satsel", "", "comma-separated object names (selects explicit mode)")
	visibleFlag := flags.String("visible", "", "true=optical visibility mode, false=radio")
	rotatorFlag := flags.String("rotator", "", "true/false: drive the rotator (needs one explicit object)")
	radioFlag := flags.String("radio", "", "true/false: drive the radio (needs one explicit object)")
	refreshFlag := flags.Bool("refresh", false, "clear the element-set cache before loading")
	timeFlag := flags.String("time", "", "simulated start time \"YYYY-MM-DD HH:MM:SS\"")
	groupBuild := flags.Bool("groupbuild", false, "run the mission planner first, then the tracker")
	flags.Parse(os.Args[1:])

	cfgPath := envOr("SKYTRACK_CONFIG", "skytrack.conf")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("config load failed", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	// CLI overrides, only for flags that were actually set.
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			cfg.ObserverLat = *latFlag
		case "lon":
			cfg.ObserverLon = *lonFlag
		case "alt":
			cfg.ObserverAltKm = *altFlag
		case "minel":
			cfg.MinElevationDeg = *minElFlag
		case "maxapo":
			cfg.MaxApogeeKm = *maxApoFlag
		case "max_sats":
			cfg.MaxObjects = *maxSatsFlag
		case "trail_mins":
			cfg.TrailHalfMinutes = *trailFlag
		case "groupsel":
			cfg.Selection = config.SelectGroups
			cfg.Groups = tle.SplitList(*groupSel)
		case "satsel":
			cfg.Selection = config.SelectExplicit
			cfg.ExplicitNames = tle.SplitList(*satSel)
		case "visible":
			if b, err := strconv.ParseBool(*visibleFlag); err == nil {
				if b {
					cfg.Visibility = config.VisibilityOptical
				} else {
					cfg.Visibility = config.VisibilityRadio
				}
			}
		case "rotator":
			if b, err := strconv.ParseBool(*rotatorFlag); err == nil {
				cfg.RotatorEnabled = b
			}
		case "radio":
			if b, err := strconv.ParseBool(*radioFlag); err == nil {
				cfg.RadioEnabled = b
			}
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiAddr := envOr("SKYTRACK_HTTP_ADDR", ":8080")
	mirrorAddr := envOr("SKYTRACK_MIRROR_ADDR", ":8081")

	if *groupBuild {
		cfg, err = builder.Run(ctx, apiAddr, cfgPath, cfg, logger)
		if err != nil {
			logger.Error("mission planner failed", "error", err)
			os.Exit(1)
		}
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Decoupled clocks: both track real UTC unless a simulated start was
	// requested.
	clock := astro.NewClock()
	if *timeFlag != "" {
		face, err := time.ParseInLocation(timeLayout, *timeFlag, time.Local)
		if err != nil {
			logger.Error("invalid --time value", "value", *timeFlag, "error", err)
			os.Exit(1)
		}
		clock = astro.NewSimClock(face)
		logger.Info("simulated start time", "display", face.Format(timeLayout))
	}

	// Element-set loading.
	tleCache := tle.NewCache(envOr("SKYTRACK_TLE_CACHE_DIR", "./tle_cache"), envDuration("SKYTRACK_TLE_MAX_AGE", 24*time.Hour))
	if *refreshFlag {
		if err := tleCache.Clear(); err != nil {
			logger.Warn("cache clear failed", "error", err)
		} else {
			logger.Info("element-set cache cleared")
		}
	}
	loader := tle.NewLoader(tleCache, tle.NewFetcher(), logger)
	source := &recordSource{loader: loader, logger: logger}

	store, err := source.Build(ctx, cfg)
	if err != nil {
		logger.Error("element-set load failed", "error", err)
		os.Exit(1)
	}
	if store.Len() == 0 {
		// The Sun and Moon are always tracked, so an empty catalog load
		// degrades rather than aborts.
		logger.Warn("no objects loaded; tracking special bodies only")
	} else {
		logger.Info("objects loaded", "count", store.Len())
	}

	// Transmitter database, fetched opportunistically when radio tracking
	// is on.
	txDB := transmitters.NewDB(logger)
	if cfg.RadioEnabled {
		go func() {
			url := envOr("SKYTRACK_TRANSMITTER_URL", transmitters.DefaultURL)
			cache := envOr("SKYTRACK_TRANSMITTER_CACHE", "./transmitters.json")
			if err := txDB.Load(ctx, url, cache); err != nil {
				logger.Warn("transmitter database unavailable; radio tuning disabled", "error", err)
			}
		}()
	}

	workers := pool.New(envInt("SKYTRACK_WORKERS", pool.DefaultWorkers), logger)
	state := engine.NewState()
	reload := &config.Mailbox{}

	orch := engine.New(cfg, store, engine.Deps{
		Source: source,
		TxDB:   txDB,
		NewPointer: func(endpoint string) engine.Pointer {
			return rig.NewRotator(endpoint, logger)
		},
		NewTuner: func(endpoint string) engine.Tuner {
			return rig.NewRadio(endpoint, logger)
		},
		Clock:  clock,
		State:  state,
		Reload: reload,
		Pool:   workers,
		Logger: logger,
	})

	frames := mirror.NewFrameStore()
	renderLoop := display.NewLoop(state, frames, clock,
		orch.Config, orch.ObjectCount, os.Stdout, logger)

	apiSrv := api.NewServer(apiAddr, state, orch, reload, clock.Physics, web.Content, logger)
	mirrorSrv := mirror.NewServer(mirrorAddr, frames, logger)

	go orch.Run(ctx)
	go renderLoop.Run(ctx)

	go func() {
		logger.Info("data server starting", "addr", apiAddr)
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("data server listen error", "error", err)
			os.Exit(1)
		}
	}()
	go func() {
		logger.Info("mirror server starting", "addr", mirrorAddr)
		if err := mirrorSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("mirror server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiSrv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Warn("data server shutdown error", "error", err)
	}
	if err := mirrorSrv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Warn("mirror server shutdown error", "error", err)
	}
	workers.Shutdown()

	logger.Info("shutdown complete")
}

func printUsage(flags *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Usage: skytrack [OPTIONS]

Ground-station situational awareness for Earth-orbiting objects.

Options:
`)
	flags.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Configuration is loaded from %s (override with SKYTRACK_CONFIG).
The JSON data server listens on SKYTRACK_HTTP_ADDR (default :8080),
the terminal mirror on SKYTRACK_MIRROR_ADDR (default :8081).
`, envOr("SKYTRACK_CONFIG", "skytrack.conf"))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}
