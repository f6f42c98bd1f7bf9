package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Load reads a line-oriented "key: value" configuration file. Comments
// start with '#', whitespace and matching quotes around values are
// trimmed, unknown keys are ignored, and legacy key names map to their
// modern equivalents. Missing file returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		applyField(&cfg, strings.TrimSpace(key), trimValue(val))
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration in the same format Load reads.
func Save(path string, cfg Config) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# skytrack configuration\n")
	fmt.Fprintf(&b, "lat: %g\n", cfg.ObserverLat)
	fmt.Fprintf(&b, "lon: %g\n", cfg.ObserverLon)
	fmt.Fprintf(&b, "alt: %g\n", cfg.ObserverAltKm)
	fmt.Fprintf(&b, "max_sats: %d\n", cfg.MaxObjects)
	fmt.Fprintf(&b, "min_el: %g\n", cfg.MinElevationDeg)
	fmt.Fprintf(&b, "max_apo: %g\n", cfg.MaxApogeeKm)
	fmt.Fprintf(&b, "trail_half_mins: %d\n", cfg.TrailHalfMinutes)
	fmt.Fprintf(&b, "selection_mode: %s\n", cfg.Selection)
	fmt.Fprintf(&b, "groups: %s\n", strings.Join(cfg.Groups, ","))
	fmt.Fprintf(&b, "sats: %s\n", strings.Join(cfg.ExplicitNames, ","))
	fmt.Fprintf(&b, "visibility_mode: %s\n", cfg.Visibility)
	fmt.Fprintf(&b, "rotator: %s\n", formatBool(cfg.RotatorEnabled))
	fmt.Fprintf(&b, "rotator_min_el: %g\n", cfg.RotatorMinElevationDeg)
	fmt.Fprintf(&b, "rotator_endpoint: %s\n", cfg.RotatorEndpoint)
	fmt.Fprintf(&b, "radio: %s\n", formatBool(cfg.RadioEnabled))
	fmt.Fprintf(&b, "radio_endpoint: %s\n", cfg.RadioEndpoint)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// applyField sets one config field from its textual form. Unparseable
// values leave the field untouched, matching the tolerant file contract.
func applyField(cfg *Config, key, val string) {
	switch key {
	case "lat":
		setFloat(&cfg.ObserverLat, val)
	case "lon":
		setFloat(&cfg.ObserverLon, val)
	case "alt":
		setFloat(&cfg.ObserverAltKm, val)
	case "max_sats":
		setInt(&cfg.MaxObjects, val)
	case "min_el":
		setFloat(&cfg.MinElevationDeg, val)
	case "max_apo":
		setFloat(&cfg.MaxApogeeKm, val)
	case "trail_half_mins", "trail_length_mins":
		setInt(&cfg.TrailHalfMinutes, val)
	case "selection_mode":
		switch SelectionMode(val) {
		case SelectGroups, SelectExplicit:
			cfg.Selection = SelectionMode(val)
		}
	case "groups", "group_selection":
		cfg.Groups = splitCSV(val)
	case "sats":
		cfg.ExplicitNames = splitCSV(val)
	case "visibility_mode":
		switch VisibilityMode(val) {
		case VisibilityOptical, VisibilityRadio:
			cfg.Visibility = VisibilityMode(val)
		}
	case "show_all_visible", "radio_mode":
		// Legacy booleans: true meant "show everything", i.e. radio mode.
		if b, ok := parseBool(val); ok {
			if b {
				cfg.Visibility = VisibilityRadio
			} else {
				cfg.Visibility = VisibilityOptical
			}
		}
	case "rotator", "rotator_enabled":
		setBool(&cfg.RotatorEnabled, val)
	case "rotator_min_el":
		setFloat(&cfg.RotatorMinElevationDeg, val)
	case "rotator_endpoint":
		cfg.RotatorEndpoint = val
	case "radio":
		setBool(&cfg.RadioEnabled, val)
	case "radio_endpoint":
		cfg.RadioEndpoint = val
	}
}

// trimValue strips surrounding whitespace and one pair of matching quotes.
func trimValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	return s
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

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func setFloat(dst *float64, s string) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*dst = v
	}
}

func setInt(dst *int, s string) {
	if v, err := strconv.Atoi(s); err == nil {
		*dst = v
	}
}

func setBool(dst *bool, s string) {
	if v, ok := parseBool(s); ok {
		*dst = v
	}
}
