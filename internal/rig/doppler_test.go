package rig

import (
	"math"
	"testing"
)

func TestDoppler_SelectedObject(t *testing.T) {
	// Range rate +5 km/s (receding): downlink shifts down, uplink is
	// pre-compensated up.
	const rr = 5.0

	down := TunedDownlink(437000000, rr)
	if math.Abs(float64(down)-436992710) > 50 {
		t.Errorf("tuned downlink = %d Hz, want ~436992710", down)
	}

	up := TunedUplink(145800000, rr)
	if math.Abs(float64(up)-145802432) > 50 {
		t.Errorf("tuned uplink = %d Hz, want ~145802432", up)
	}
}

func TestDoppler_ZeroRate(t *testing.T) {
	if d := TunedDownlink(437000000, 0); d != 437000000 {
		t.Errorf("zero-rate downlink = %d, want unchanged", d)
	}
	if u := TunedUplink(145800000, 0); u != 145800000 {
		t.Errorf("zero-rate uplink = %d, want unchanged", u)
	}
}

func TestDoppler_ApproachingRaisesDownlink(t *testing.T) {
	if d := TunedDownlink(437000000, -5.0); d <= 437000000 {
		t.Errorf("approaching downlink = %d, want above nominal", d)
	}
}

func TestMapMode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"FM", "FM"},
		{"FM PACSAT", "FM"},
		{"USB", "USB"},
		{"SSB", "USB"},
		{"LSB", "LSB"},
		{"CW", "CW"},
		{"CW FSK", "CW"},
		{"AM", "AM"},
		{"BPSK", "FM"},
		{"", "FM"},
	}
	for _, c := range cases {
		if got := MapMode(c.in); got != c.want {
			t.Errorf("MapMode(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
