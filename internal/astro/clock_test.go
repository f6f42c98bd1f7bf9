package astro

import (
	"testing"
	"time"
)

func TestClock_Coincide(t *testing.T) {
	c := NewClock()
	p := c.Physics()
	d := c.Display()

	// Without a simulated start the two clocks read the same instant.
	if diff := d.Sub(p); diff < -time.Millisecond || diff > time.Millisecond {
		t.Errorf("display-physics skew = %v, want ~0", diff)
	}
}

func TestClock_Advances(t *testing.T) {
	c := NewClock()
	p1 := c.Physics()
	time.Sleep(20 * time.Millisecond)
	p2 := c.Physics()

	if !p2.After(p1) {
		t.Error("physics clock did not advance")
	}
}

func TestSimClock_FaceValue(t *testing.T) {
	face := time.Date(2024, 6, 21, 12, 0, 0, 0, time.Local)
	c := NewSimClock(face)

	// The display clock renders the requested wall fields when formatted
	// as UTC.
	d := c.Display().UTC()
	if d.Hour() != 12 || d.Year() != 2024 || d.Month() != 6 || d.Day() != 21 {
		t.Errorf("display reads %v, want face value 2024-06-21 12:00", d)
	}

	// The physics clock is the true instant the face value denotes.
	if got := c.Physics().Sub(face.UTC()); got < 0 || got > time.Second {
		t.Errorf("physics epoch offset = %v, want ~0 from true instant", got)
	}
}

func TestSimClock_RatesMatch(t *testing.T) {
	c := NewSimClock(time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local))
	gap1 := c.Physics().Sub(c.Display())
	time.Sleep(15 * time.Millisecond)
	gap2 := c.Physics().Sub(c.Display())

	// Both clocks advance at the same monotonic rate, so their gap is
	// constant.
	if d := gap2 - gap1; d < -time.Millisecond || d > time.Millisecond {
		t.Errorf("clock gap drifted by %v", d)
	}
}
