package astro

import "time"

// Clock is the decoupled display/physics time source. Two epochs are stored
// at startup and both advance at the real monotonic rate since construction:
//
//   - the physics epoch is a true UTC instant and feeds every numerical
//     routine;
//   - the display epoch is a face-value instant whose UTC rendering shows
//     the operator-requested wall reading, used only for the on-screen
//     clock and next-event countdowns.
//
// When no simulated start is requested both epochs equal the true UTC at
// startup, so the two clocks coincide.
type Clock struct {
	physicsEpoch time.Time
	displayEpoch time.Time
	started      time.Time
}

// NewClock returns a clock whose physics and display times both track real
// UTC.
func NewClock() *Clock {
	now := time.Now()
	return &Clock{
		physicsEpoch: now.UTC(),
		displayEpoch: now.UTC(),
		started:      now,
	}
}

// NewSimClock returns a clock seeded from an operator-requested wall
// reading. face carries the requested local wall fields (as parsed in the
// local zone): the physics epoch is the true UTC instant it denotes, while
// the display epoch re-labels the same wall fields as UTC so the rendered
// clock reads back exactly what was requested.
func NewSimClock(face time.Time) *Clock {
	display := time.Date(face.Year(), face.Month(), face.Day(),
		face.Hour(), face.Minute(), face.Second(), 0, time.UTC)
	return &Clock{
		physicsEpoch: face.UTC(),
		displayEpoch: display,
		started:      time.Now(),
	}
}

// Physics returns the current physics-clock instant.
func (c *Clock) Physics() time.Time {
	return c.physicsEpoch.Add(time.Since(c.started))
}

// Display returns the current display-clock instant.
func (c *Clock) Display() time.Time {
	return c.displayEpoch.Add(time.Since(c.started))
}
