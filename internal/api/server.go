// Package api is the JSON data server: the per-tick satellite table, the
// effector target selector, the hot-reload writer, health probes, metrics,
// and the embedded dashboard.
package api

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/skyward/skytrack/internal/config"
	"github.com/skyward/skytrack/internal/engine"
	"github.com/skyward/skytrack/internal/health"
	"github.com/skyward/skytrack/internal/httputil"
	"github.com/skyward/skytrack/internal/illumination"
	"github.com/skyward/skytrack/internal/metrics"
)

// Control is the orchestrator surface the API needs: the active
// configuration and the effector target.
type Control interface {
	Config() config.Config
	Target() int
	SetTarget(catalogID int) bool
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	state      *engine.State
	control    Control
	reload     *config.Mailbox
	now        func() time.Time
	logger     *slog.Logger
}

// NewServer creates a configured data server. now supplies the physics
// clock for the sun ground point; webFS carries the dashboard files.
func NewServer(addr string, state *engine.State, control Control, reload *config.Mailbox,
	now func() time.Time, webFS fs.FS, logger *slog.Logger) *Server {

	s := &Server{
		state:   state,
		control: control,
		reload:  reload,
		now:     now,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(func() bool { return state.Revision() > 0 }))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/satellites", s.handleSatellites)
	mux.HandleFunc("GET /api/track/", s.handleTrack)
	mux.HandleFunc("GET /api/select/", s.handleSelect)
	mux.HandleFunc("POST /api/config", s.handleConfig)
	mux.Handle("GET /", http.FileServerFS(webFS))

	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for shutdown control.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// satellitePayload is the wire form of one display row.
type satellitePayload struct {
	ID    int     `json:"id"`
	Name  string  `json:"n"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Az    float64 `json:"a"`
	El    float64 `json:"e"`
	Vis   string  `json:"v"`
	Next  string  `json:"next"`
	Apo   float64 `json:"apo"`
	Flare int     `json:"f"`
}

type configPayload struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	MinEl   float64 `json:"min_el"`
	MaxApo  float64 `json:"max_apo"`
	ShowAll bool    `json:"show_all"`
	Groups  string  `json:"groups"`
	SunLat  float64 `json:"sun_lat"`
	SunLon  float64 `json:"sun_lon"`
}

func (s *Server) handleSatellites(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Read()
	cfg := s.control.Config()
	sun := illumination.SunSubPoint(s.now())

	payload := struct {
		Config     configPayload      `json:"config"`
		Satellites []satellitePayload `json:"satellites"`
	}{
		Config: configPayload{
			Lat:     cfg.ObserverLat,
			Lon:     cfg.ObserverLon,
			MinEl:   cfg.MinElevationDeg,
			MaxApo:  cfg.MaxApogeeKm,
			ShowAll: cfg.Visibility == config.VisibilityRadio,
			Groups:  strings.Join(cfg.Groups, ","),
			SunLat:  sun.LatDeg,
			SunLon:  sun.LonDeg,
		},
		Satellites: make([]satellitePayload, 0, len(snap.Rows)),
	}

	for _, row := range snap.Rows {
		payload.Satellites = append(payload.Satellites, satellitePayload{
			ID:    row.CatalogID,
			Name:  row.Name,
			Lat:   row.LatDeg,
			Lon:   row.LonDeg,
			Az:    row.AzDeg,
			El:    row.ElDeg,
			Vis:   row.State.Short(),
			Next:  row.NextEvent,
			Apo:   row.ApogeeKm,
			Flare: int(row.Flare),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	json.NewEncoder(w).Encode(payload)
}

// trackPoint is one ground-track sample on the wire.
type trackPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
}

// handleTrack serves the cached ground track for one object, resolved
// through the published snapshot's back-references. An empty list means
// the background fill has not landed yet.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/track/"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error", "message": "invalid catalog number",
		})
		return
	}

	snap := s.state.Read()
	for i, row := range snap.Rows {
		if row.CatalogID != id || i >= len(snap.Refs) || snap.Refs[i] == nil {
			continue
		}
		track := snap.Refs[i].GroundTrack()
		points := make([]trackPoint, 0, len(track))
		for _, g := range track {
			points = append(points, trackPoint{Lat: g.LatDeg, Lon: g.LonDeg, Alt: g.AltKm})
		}
		w.Header().Set("Cache-Control", "no-cache, no-store")
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "track": points})
		return
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"status": "error", "message": "object not in the current snapshot",
	})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/select/")
	id, err := strconv.Atoi(idStr)
	if err != nil || !s.control.SetTarget(id) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "invalid catalog number",
		})
		return
	}

	s.logger.Info("effector target selected", "catalog_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// configPatch is a partial configuration update; absent fields keep their
// current values.
type configPatch struct {
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
	AltKm          *float64 `json:"alt"`
	MaxObjects     *int     `json:"max_sats"`
	MinEl          *float64 `json:"min_el"`
	MaxApo         *float64 `json:"max_apo"`
	TrailHalfMins  *int     `json:"trail_half_mins"`
	SelectionMode  *string  `json:"selection_mode"`
	Groups         *string  `json:"groups"`
	Sats           *string  `json:"sats"`
	VisibilityMode *string  `json:"visibility_mode"`
	Rotator        *bool    `json:"rotator"`
	RotatorMinEl   *float64 `json:"rotator_min_el"`
	RotatorEndpt   *string  `json:"rotator_endpoint"`
	Radio          *bool    `json:"radio"`
	RadioEndpt     *string  `json:"radio_endpoint"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var patch configPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error", "message": "malformed request body",
		})
		return
	}

	cfg := s.control.Config()
	applyPatch(&cfg, patch)

	if err := s.reload.Offer(cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error", "message": err.Error(),
		})
		return
	}

	s.logger.Info("configuration update queued", "remote_ip", httputil.ClientIP(r))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func applyPatch(cfg *config.Config, p configPatch) {
	if p.Lat != nil {
		cfg.ObserverLat = *p.Lat
	}
	if p.Lon != nil {
		cfg.ObserverLon = *p.Lon
	}
	if p.AltKm != nil {
		cfg.ObserverAltKm = *p.AltKm
	}
	if p.MaxObjects != nil {
		cfg.MaxObjects = *p.MaxObjects
	}
	if p.MinEl != nil {
		cfg.MinElevationDeg = *p.MinEl
	}
	if p.MaxApo != nil {
		cfg.MaxApogeeKm = *p.MaxApo
	}
	if p.TrailHalfMins != nil {
		cfg.TrailHalfMinutes = *p.TrailHalfMins
	}
	if p.SelectionMode != nil {
		cfg.Selection = config.SelectionMode(*p.SelectionMode)
	}
	if p.Groups != nil {
		cfg.Groups = splitCSV(*p.Groups)
	}
	if p.Sats != nil {
		cfg.ExplicitNames = splitCSV(*p.Sats)
	}
	if p.VisibilityMode != nil {
		cfg.Visibility = config.VisibilityMode(*p.VisibilityMode)
	}
	if p.Rotator != nil {
		cfg.RotatorEnabled = *p.Rotator
	}
	if p.RotatorMinEl != nil {
		cfg.RotatorMinElevationDeg = *p.RotatorMinEl
	}
	if p.RotatorEndpt != nil {
		cfg.RotatorEndpoint = *p.RotatorEndpt
	}
	if p.Radio != nil {
		cfg.RadioEnabled = *p.Radio
	}
	if p.RadioEndpt != nil {
		cfg.RadioEndpoint = *p.RadioEndpt
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, seg := range strings.Split(s, ",") {
		if t := strings.TrimSpace(seg); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// probePath returns true for health probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r),
			)
		})
	}
}
