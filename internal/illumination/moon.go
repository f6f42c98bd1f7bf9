package illumination

import (
	"math"
	"time"

	"github.com/skyward/skytrack/internal/astro"
)

// MoonECI returns the Moon's inertial position at time t from a truncated
// Brown-theory series: six main longitude terms, four latitude terms, four
// distance terms, converted ecliptic to equatorial by the mean obliquity.
func MoonECI(t time.Time) astro.Vector3 {
	T := (astro.JulianDate(t) - 2451545.0) / 36525.0

	// Mean ecliptic longitude.
	Lp := 218.3164477 + 481267.88123421*T - 0.0015786*T*T + T*T*T/538841.0 -
		T*T*T*T/65194000.0
	// Mean elongation from the Sun.
	D := 297.8501921 + 445267.1114034*T - 0.0018819*T*T + T*T*T/545868.0 -
		T*T*T*T/113065000.0
	// Solar mean anomaly.
	M := 357.5291092 + 35999.05034*T - 0.0001536*T*T + T*T*T/24490000.0
	// Lunar mean anomaly.
	Mp := 134.9633964 + 477198.8675055*T + 0.0087414*T*T + T*T*T/69699.0 -
		T*T*T*T/14712000.0
	// Argument of latitude.
	F := 93.2720950 + 483202.0175233*T - 0.0036539*T*T - T*T*T/3526000.0 +
		T*T*T*T/863310000.0

	Lp = normDeg(Lp) * astro.Deg2Rad
	D = normDeg(D) * astro.Deg2Rad
	M = normDeg(M) * astro.Deg2Rad
	Mp = normDeg(Mp) * astro.Deg2Rad
	F = normDeg(F) * astro.Deg2Rad

	// Longitude perturbation (degrees).
	sigmaL := 6.288774*math.Sin(Mp) +
		1.274027*math.Sin(2*D-Mp) +
		0.658314*math.Sin(2*D) +
		0.213618*math.Sin(2*Mp) -
		0.185116*math.Sin(M) -
		0.114332*math.Sin(2*F)

	// Latitude perturbation (degrees).
	sigmaB := 5.128122*math.Sin(F) +
		0.280602*math.Sin(Mp+F) +
		0.277693*math.Sin(Mp-F) +
		0.173237*math.Sin(2*D-F)

	// Distance perturbation (km).
	sigmaR := -20905.355*math.Cos(Mp) -
		3699.111*math.Cos(2*D-Mp) -
		2955.968*math.Cos(2*D) -
		569.925*math.Cos(2*Mp)

	lambda := Lp + sigmaL*astro.Deg2Rad
	beta := sigmaB * astro.Deg2Rad
	r := 385000.56 + sigmaR

	eps := (23.439291 - 0.0130042*T) * astro.Deg2Rad

	xEcl := r * math.Cos(beta) * math.Cos(lambda)
	yEcl := r * math.Cos(beta) * math.Sin(lambda)
	zEcl := r * math.Sin(beta)

	return astro.Vector3{
		X: xEcl,
		Y: yEcl*math.Cos(eps) - zEcl*math.Sin(eps),
		Z: yEcl*math.Sin(eps) + zEcl*math.Cos(eps),
	}
}

// MoonSubPoint returns the ground point directly beneath the Moon at time t.
func MoonSubPoint(t time.Time) astro.Geodetic {
	return astro.SubPointSpherical(MoonECI(t), t)
}

func normDeg(deg float64) float64 {
	deg = math.Mod(deg, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	return deg
}
