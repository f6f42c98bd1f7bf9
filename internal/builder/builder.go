// Package builder is the mission-planner front-end: a single-page HTTP
// form served before the tracker starts. The operator picks groups,
// filters and the observer site; submitting writes the configuration file
// and hands control back to the tracker.
package builder

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/skyward/skytrack/internal/config"
)

var pageTmpl = template.Must(template.New("builder").Parse(`<!DOCTYPE html>
<html>
<head><title>skytrack planner</title>
<style>
body{background:#111;color:#ddd;font-family:monospace;max-width:640px;margin:40px auto}
h2{color:#4da6ff} label{display:block;margin-top:12px} input,select{width:100%;padding:6px;background:#222;color:#ddd;border:1px solid #444}
button{margin-top:20px;padding:8px 24px;background:#2c3e50;color:#fff;border:1px solid #4da6ff;cursor:pointer}
.err{color:#f55}
</style>
</head>
<body>
<h2>SKYTRACK MISSION PLANNER</h2>
{{if .Error}}<p class="err">{{.Error}}</p>{{end}}
<form method="POST" action="/save">
<label>Latitude (deg) <input name="lat" value="{{.Cfg.ObserverLat}}"></label>
<label>Longitude (deg) <input name="lon" value="{{.Cfg.ObserverLon}}"></label>
<label>Altitude (km) <input name="alt" value="{{.Cfg.ObserverAltKm}}"></label>
<label>Groups (csv) <input name="groups" value="{{.Groups}}"></label>
<label>Max objects <input name="max_sats" value="{{.Cfg.MaxObjects}}"></label>
<label>Min elevation (deg) <input name="min_el" value="{{.Cfg.MinElevationDeg}}"></label>
<label>Max apogee (km, -1 disables) <input name="max_apo" value="{{.Cfg.MaxApogeeKm}}"></label>
<label>Visibility
<select name="visibility_mode">
<option value="optical" {{if eq .Vis "optical"}}selected{{end}}>optical</option>
<option value="radio" {{if eq .Vis "radio"}}selected{{end}}>radio</option>
</select></label>
<button type="submit">SAVE AND START TRACKER</button>
</form>
</body>
</html>
`))

type pageData struct {
	Cfg    config.Config
	Groups string
	Vis    string
	Error  string
}

// Run serves the planner on addr until the operator saves a valid
// configuration or ctx is cancelled. Returns the saved config.
func Run(ctx context.Context, addr, cfgPath string, current config.Config, logger *slog.Logger) (config.Config, error) {
	done := make(chan config.Config, 1)
	var lastErr string

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		pageTmpl.Execute(w, pageData{
			Cfg:    current,
			Groups: strings.Join(current.Groups, ","),
			Vis:    string(current.Visibility),
			Error:  lastErr,
		})
	})
	mux.HandleFunc("POST /save", func(w http.ResponseWriter, r *http.Request) {
		cfg := current
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		formFloat(r, "lat", &cfg.ObserverLat)
		formFloat(r, "lon", &cfg.ObserverLon)
		formFloat(r, "alt", &cfg.ObserverAltKm)
		formInt(r, "max_sats", &cfg.MaxObjects)
		formFloat(r, "min_el", &cfg.MinElevationDeg)
		formFloat(r, "max_apo", &cfg.MaxApogeeKm)
		if v := r.FormValue("groups"); v != "" {
			cfg.Groups = splitCSV(v)
			cfg.Selection = config.SelectGroups
		}
		switch config.VisibilityMode(r.FormValue("visibility_mode")) {
		case config.VisibilityOptical:
			cfg.Visibility = config.VisibilityOptical
		case config.VisibilityRadio:
			cfg.Visibility = config.VisibilityRadio
		}

		if err := cfg.Validate(); err != nil {
			lastErr = err.Error()
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			lastErr = err.Error()
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		fmt.Fprint(w, "<html><body style=\"background:#111;color:#0f0;font-family:monospace\">"+
			"Configuration saved. The tracker is starting; this page can be closed.</body></html>")
		done <- cfg
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mission planner started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var result config.Config
	select {
	case result = <-done:
	case err := <-errCh:
		return current, err
	case <-ctx.Done():
		srv.Close()
		return current, ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)

	logger.Info("mission planner finished, continuing into tracker")
	return result, nil
}

func formFloat(r *http.Request, key string, dst *float64) {
	if v, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue(key)), 64); err == nil {
		*dst = v
	}
}

func formInt(r *http.Request, key string, dst *int) {
	if v, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key))); err == nil {
		*dst = v
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
