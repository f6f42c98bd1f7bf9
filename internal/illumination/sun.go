// Package illumination provides the Sun and Moon ephemerides, the
// satellite illumination state machine, and the optical flare test.
//
// The ephemerides are low-precision analytic series: arcminute order for
// the Sun and a few kilometres for the Moon, which is sufficient for the
// eclipse and flare geometry they feed.
package illumination

import (
	"math"
	"time"

	"github.com/skyward/skytrack/internal/astro"
)

// AstronomicalUnitKm is the mean Earth-Sun distance.
const AstronomicalUnitKm = 149597870.7

// SunECI returns the Sun's inertial position at time t from the standard
// low-precision solar formula (mean longitude, mean anomaly, ecliptic
// longitude, obliquity).
func SunECI(t time.Time) astro.Vector3 {
	n := astro.JulianDate(t) - 2451545.0

	L := math.Mod(280.460+0.9856474*n, 360.0)
	if L < 0 {
		L += 360
	}
	g := math.Mod(357.528+0.9856003*n, 360.0)
	if g < 0 {
		g += 360
	}

	lam := (L + 1.915*math.Sin(g*astro.Deg2Rad) + 0.020*math.Sin(2*g*astro.Deg2Rad)) * astro.Deg2Rad
	eps := (23.439 - 0.0000004*n) * astro.Deg2Rad

	return astro.Vector3{
		X: AstronomicalUnitKm * math.Cos(lam),
		Y: AstronomicalUnitKm * math.Cos(eps) * math.Sin(lam),
		Z: AstronomicalUnitKm * math.Sin(eps) * math.Sin(lam),
	}
}

// SunSubPoint returns the ground point directly beneath the Sun at time t.
func SunSubPoint(t time.Time) astro.Geodetic {
	g := astro.SubPointSpherical(SunECI(t), t)
	g.AltKm = 0
	return g
}
