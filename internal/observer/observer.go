// Package observer models the ground station: geodetic to inertial
// conversion on the WGS-84 ellipsoid, topocentric look angles in the local
// SEZ frame, and line-of-sight range rate.
package observer

import (
	"math"
	"time"

	"github.com/skyward/skytrack/internal/astro"
)

// omegaEarth is Earth's rotation rate in rad/s (IAU value).
const omegaEarth = 7.292115146706979e-5

// LookAngle is the topocentric pointing solution from the observer to an
// object. Azimuth is measured clockwise from north in [0, 360); elevation
// is arcsin(up/range) in [-90, 90].
type LookAngle struct {
	AzDeg   float64
	ElDeg   float64
	RangeKm float64
}

// Observer is a fixed ground site. The geodetic inputs are converted once;
// the inertial position rotates with GMST per call.
type Observer struct {
	latDeg, lonDeg, altKm float64
	latRad, lonRad        float64
	// Earth-fixed position, precomputed.
	ecf astro.Vector3
}

// New creates an Observer from geodetic coordinates (degrees, degrees, km
// above the ellipsoid).
func New(latDeg, lonDeg, altKm float64) *Observer {
	return &Observer{
		latDeg: latDeg,
		lonDeg: lonDeg,
		altKm:  altKm,
		latRad: latDeg * astro.Deg2Rad,
		lonRad: lonDeg * astro.Deg2Rad,
		ecf:    astro.GeodeticToECF(astro.Geodetic{LatDeg: latDeg, LonDeg: lonDeg, AltKm: altKm}),
	}
}

// LatDeg returns the observer latitude in degrees.
func (o *Observer) LatDeg() float64 { return o.latDeg }

// LonDeg returns the observer longitude in degrees.
func (o *Observer) LonDeg() float64 { return o.lonDeg }

// AltKm returns the observer altitude in km above the ellipsoid.
func (o *Observer) AltKm() float64 { return o.altKm }

// PositionECI returns the observer's inertial position at time t.
func (o *Observer) PositionECI(t time.Time) astro.Vector3 {
	return astro.ECFToECI(o.ecf, t)
}

// Look transforms the topocentric vector to an object at inertial position
// satECI into the local south-east-zenith frame and returns azimuth,
// elevation, and slant range.
func (o *Observer) Look(satECI astro.Vector3, t time.Time) LookAngle {
	r := satECI.Sub(o.PositionECI(t))

	// Local sidereal angle.
	lst := astro.GMST(t) + o.lonRad
	sinLat := math.Sin(o.latRad)
	cosLat := math.Cos(o.latRad)
	sinLST := math.Sin(lst)
	cosLST := math.Cos(lst)

	south := sinLat*cosLST*r.X + sinLat*sinLST*r.Y - cosLat*r.Z
	east := -sinLST*r.X + cosLST*r.Y
	zenith := cosLat*cosLST*r.X + cosLat*sinLST*r.Y + sinLat*r.Z

	rangeKm := math.Sqrt(south*south + east*east + zenith*zenith)

	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngle{
		AzDeg:   az * astro.Rad2Deg,
		ElDeg:   math.Asin(zenith/rangeKm) * astro.Rad2Deg,
		RangeKm: rangeKm,
	}
}

// RangeRate returns the time derivative of slant range in km/s: the
// object-minus-observer velocity, with the observer's inertial velocity
// taken as omega cross r, projected onto the line-of-sight unit vector.
// Positive means receding.
func (o *Observer) RangeRate(pos, vel astro.Vector3, t time.Time) float64 {
	obsPos := o.PositionECI(t)

	// Observer inertial velocity from Earth rotation: omega x r.
	obsVel := astro.Vector3{
		X: -omegaEarth * obsPos.Y,
		Y: omegaEarth * obsPos.X,
		Z: 0,
	}

	los := pos.Sub(obsPos)
	rangeKm := los.Mag()
	if rangeKm == 0 {
		return 0
	}

	relVel := vel.Sub(obsVel)
	return relVel.Dot(los) / rangeKm
}
