package illumination

import (
	"math"
	"testing"
	"time"

	"github.com/skyward/skytrack/internal/astro"
)

// observerECI places a ground site at (latDeg, lonDeg, 0) and rotates it
// into the inertial frame.
func observerECI(latDeg, lonDeg float64, t time.Time) astro.Vector3 {
	ecf := astro.GeodeticToECF(astro.Geodetic{LatDeg: latDeg, LonDeg: lonDeg})
	return astro.ECFToECI(ecf, t)
}

func TestClassify_MidnightVisible(t *testing.T) {
	// Observer at (0, 0), solstice midnight UTC; object high on the +Z
	// axis. The object clears the umbra cone while the site is in deep
	// twilight, so it renders VISIBLE.
	at := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	obs := observerECI(0, 0, at)
	sat := astro.Vector3{Z: 7000}

	if got := Classify(sat, obs, at); got != Visible {
		t.Errorf("Classify = %v, want VISIBLE", got)
	}

	// Sanity on the inputs the state machine saw: the site sits well past
	// astronomical twilight at its local midnight.
	sun := SunECI(at)
	if el := SolarElevationRad(obs, sun); el >= twilightRad {
		t.Fatalf("solar elevation = %.2f deg, expected < -6", el*astro.Rad2Deg)
	}
}

func TestClassify_Eclipsed(t *testing.T) {
	at := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	sun := SunECI(at)

	// Directly anti-sunward at 7000 km: squarely inside the umbra cone.
	sat := sun.Norm().Scale(-7000)
	obs := observerECI(0, 0, at)

	if got := Classify(sat, obs, at); got != Eclipsed {
		t.Errorf("Classify = %v, want ECLIPSED", got)
	}
}

func TestClassify_Daylight(t *testing.T) {
	at := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
	sun := SunECI(at)

	// Site and object both on the sunlit side.
	obs := sun.Norm().Scale(astro.EarthRadiusKm)
	sat := sun.Norm().Scale(7000)

	if got := Classify(sat, obs, at); got != Daylight {
		t.Errorf("Classify = %v, want DAYLIGHT", got)
	}
}

func TestSolarElevation(t *testing.T) {
	sun := astro.Vector3{X: 1.5e8}

	overhead := astro.Vector3{X: astro.EarthRadiusKm}
	if el := SolarElevationRad(overhead, sun); math.Abs(el-math.Pi/2) > 1e-3 {
		t.Errorf("overhead solar elevation = %v rad, want pi/2", el)
	}

	antipode := astro.Vector3{X: -astro.EarthRadiusKm}
	if el := SolarElevationRad(antipode, sun); math.Abs(el+math.Pi/2) > 1e-3 {
		t.Errorf("antipodal solar elevation = %v rad, want -pi/2", el)
	}
}

func TestState_Strings(t *testing.T) {
	cases := []struct {
		state State
		long  string
		short string
	}{
		{Visible, "VISIBLE", "YES"},
		{Daylight, "DAYLIGHT", "DAY"},
		{Eclipsed, "ECLIPSED", "NO"},
	}
	for _, c := range cases {
		if c.state.String() != c.long || c.state.Short() != c.short {
			t.Errorf("state %d renders (%s, %s), want (%s, %s)",
				c.state, c.state.String(), c.state.Short(), c.long, c.short)
		}
	}
}

func TestSunSubPoint_SolsticeDeclination(t *testing.T) {
	// At the June solstice the sub-solar latitude sits near the Tropic of
	// Cancer.
	g := SunSubPoint(time.Date(2024, 6, 20, 20, 51, 0, 0, time.UTC))
	if math.Abs(g.LatDeg-23.44) > 0.2 {
		t.Errorf("sub-solar latitude at solstice = %.3f, want ~23.44", g.LatDeg)
	}
}

func TestMoonECI_Distance(t *testing.T) {
	// Lunar distance stays within its well-known bounds.
	for month := 1; month <= 12; month++ {
		at := time.Date(2024, time.Month(month), 10, 0, 0, 0, 0, time.UTC)
		d := MoonECI(at).Mag()
		if d < 356000 || d > 407000 {
			t.Errorf("moon distance in month %d = %.0f km, out of [356000, 407000]", month, d)
		}
	}
}
