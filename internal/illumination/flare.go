package illumination

import (
	"math"

	"github.com/skyward/skytrack/internal/astro"
)

// FlareStatus is the result of the specular glint test. The numeric values
// are served verbatim on the JSON endpoint.
type FlareStatus int

const (
	FlareNone FlareStatus = 0
	FlareNear FlareStatus = 1
	FlareHit  FlareStatus = 2
)

const (
	// Flares only matter for low orbits with a plausible flat nadir face.
	flareMaxApogeeKm = 1000.0
	// Observer must be in deep twilight for a glint to be seen.
	flareTwilightRad = -12.0 * astro.Deg2Rad

	flareHitDeg  = 0.5
	flareNearDeg = 1.0
)

// Flare models the object's nadir face as a flat mirror and tests whether
// the reflected sunlight reaches the observer's line of sight. sat, obs and
// sun are inertial positions.
func Flare(sat, obs, sun astro.Vector3, apogeeKm float64) FlareStatus {
	if apogeeKm > flareMaxApogeeKm {
		return FlareNone
	}
	if SolarElevationRad(obs, sun) >= flareTwilightRad {
		return FlareNone
	}

	// Mirror normal points at the nadir.
	n := sat.Norm().Scale(-1)
	// Incoming sunlight direction.
	i := sat.Sub(sun).Norm()

	// Light must strike the nadir face, not its back.
	cos := i.Dot(n)
	if cos >= 0 {
		return FlareNone
	}

	// Specular reflection r = i - 2(i.n)n.
	r := i.Sub(n.Scale(2 * cos))
	v := obs.Sub(sat).Norm()

	sep := math.Acos(clamp(r.Dot(v), -1, 1)) * astro.Rad2Deg
	switch {
	case sep < flareHitDeg:
		return FlareHit
	case sep < flareNearDeg:
		return FlareNear
	default:
		return FlareNone
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
