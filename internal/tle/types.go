package tle

import "time"

// Entry is a single object's two-line element set together with the fields
// the tracker reads directly off the catalog lines.
type Entry struct {
	CatalogID    int
	Name         string
	EpochYear    int
	Epoch        time.Time
	MeanMotion   float64 // revolutions per day
	Eccentricity float64
	Line1        string
	Line2        string
}
