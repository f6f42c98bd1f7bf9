package astro

import (
	"math"
	"time"
)

// j2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const j2000 = 2451545.0

// JulianDate converts a time.Time (UTC, UT1 approximated by UTC) to Julian Date.
// Uses the standard astronomical algorithm valid for dates after March 1, 4801 BC.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())
	h := float64(t.Hour())
	min := float64(t.Minute())
	s := float64(t.Second()) + float64(t.Nanosecond())/1e9

	// Jan/Feb count as months 13/14 of the previous year.
	if m <= 2 {
		y -= 1
		m += 12
	}

	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + B - 1524.5
	jd += (h + min/60.0 + s/3600.0) / 24.0

	return jd
}

// GMST returns Greenwich Mean Sidereal Time in radians for a given UTC time,
// using the IAU 1982 polynomial evaluated at the preceding 0h UT with the
// current UT fraction contributing at the sidereal-to-solar ratio.
//
//	gmst0h = 24110.54841 + 8640184.812866 T + 0.093104 T^2 - 6.2e-6 T^3  [seconds]
//
// where T is Julian centuries from J2000.0.
func GMST(t time.Time) float64 {
	jd := JulianDate(t)
	jdMidnight := math.Floor(jd-0.5) + 0.5
	T := (jdMidnight - j2000) / 36525.0

	gmst0h := 24110.54841 + 8640184.812866*T + 0.093104*T*T - 6.2e-6*T*T*T

	utHours := (jd - jdMidnight) * 24.0
	gmstSec := gmst0h + utHours*3600.0*1.00273790935

	gmstSec = math.Mod(gmstSec, 86400.0)
	if gmstSec < 0 {
		gmstSec += 86400.0
	}
	return gmstSec / 86400.0 * 2.0 * math.Pi
}

// ECIToECF rotates an inertial vector into the Earth-fixed frame at time t.
func ECIToECF(eci Vector3, t time.Time) Vector3 {
	gmst := GMST(t)
	sinG, cosG := math.Sincos(gmst)
	return Vector3{
		X: eci.X*cosG + eci.Y*sinG,
		Y: -eci.X*sinG + eci.Y*cosG,
		Z: eci.Z,
	}
}

// ECFToECI rotates an Earth-fixed vector into the inertial frame at time t.
func ECFToECI(ecf Vector3, t time.Time) Vector3 {
	gmst := GMST(t)
	sinG, cosG := math.Sincos(gmst)
	return Vector3{
		X: ecf.X*cosG - ecf.Y*sinG,
		Y: ecf.X*sinG + ecf.Y*cosG,
		Z: ecf.Z,
	}
}

// SubPoint returns the geodetic ground point directly beneath an inertial
// position at time t: rotate by -GMST into the Earth-fixed frame, then
// convert on the ellipsoid. A zero input (propagation transient) maps to
// the zero Geodetic.
func SubPoint(eci Vector3, t time.Time) Geodetic {
	if eci.IsZero() {
		return Geodetic{}
	}
	return ECFToGeodetic(ECIToECF(eci, t))
}

// SubPointSpherical is the quick spherical variant used for the Sun and
// Moon ground points: latitude and longitude by atan2, altitude above the
// mean equatorial radius.
func SubPointSpherical(eci Vector3, t time.Time) Geodetic {
	if eci.IsZero() {
		return Geodetic{}
	}
	ecf := ECIToECF(eci, t)

	lon := math.Atan2(ecf.Y, ecf.X) * Rad2Deg
	hyp := math.Sqrt(ecf.X*ecf.X + ecf.Y*ecf.Y)
	lat := math.Atan2(ecf.Z, hyp) * Rad2Deg
	alt := ecf.Mag() - EarthRadiusKm

	return Geodetic{LatDeg: lat, LonDeg: lon, AltKm: alt}
}
