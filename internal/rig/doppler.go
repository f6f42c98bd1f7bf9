// Package rig drives the station effectors: an azimuth/elevation rotator
// and a transceiver, both reached over the hamlib network daemons
// (rotctld/rigctld line protocol). It also provides the Doppler arithmetic
// the orchestrator applies before tuning.
package rig

import "strings"

// SpeedOfLightKmS is c in km/s.
const SpeedOfLightKmS = 299792.458

// DopplerFactor returns f = 1 - rdot/c for a line-of-sight range rate in
// km/s (positive receding).
func DopplerFactor(rangeRateKmS float64) float64 {
	return 1.0 - rangeRateKmS/SpeedOfLightKmS
}

// TunedDownlink shifts a nominal downlink for the observed range rate: a
// receding object appears below its nominal frequency.
func TunedDownlink(nominalHz int64, rangeRateKmS float64) int64 {
	return int64(float64(nominalHz) * DopplerFactor(rangeRateKmS))
}

// TunedUplink pre-compensates a nominal uplink so it arrives on frequency.
func TunedUplink(nominalHz int64, rangeRateKmS float64) int64 {
	return int64(float64(nominalHz) / DopplerFactor(rangeRateKmS))
}

// MapMode normalizes a transmitter-database mode string to a rig mode.
// Unrecognized modes fall back to FM.
func MapMode(mode string) string {
	m := strings.ToUpper(mode)
	switch {
	case strings.Contains(m, "USB"), strings.Contains(m, "SSB"):
		return "USB"
	case strings.Contains(m, "LSB"):
		return "LSB"
	case strings.Contains(m, "CW"):
		return "CW"
	case strings.Contains(m, "AM") && !strings.Contains(m, "FM"):
		return "AM"
	case strings.Contains(m, "FM"):
		return "FM"
	default:
		return "FM"
	}
}
