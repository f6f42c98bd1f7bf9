package tle

import "strings"

const (
	celestrakBase   = "https://celestrak.org/NORAD/elements/gp.php?GROUP="
	celestrakSuffix = "&FORMAT=tle"
)

// knownGroups is the allow-list of Celestrak group tags the fetcher will
// resolve. Anything else is rejected before a request is made.
var knownGroups = map[string]bool{
	// Special interest.
	"active": true, "visual": true, "stations": true, "last-30-days": true, "analyst": true,
	// Weather and Earth resources.
	"weather": true, "noaa": true, "goes": true, "resource": true, "sarsat": true,
	"dmc": true, "tdrss": true, "argos": true, "planet": true, "spire": true,
	// Communications.
	"geo": true, "intelsat": true, "ses": true, "iridium": true, "iridium-NEXT": true,
	"starlink": true, "oneweb": true, "orbcomm": true, "globalstar": true, "swpc": true,
	"amateur": true, "x-comm": true, "other-comm": true, "satnogs": true,
	"gorizont": true, "raduga": true, "molniya": true,
	// Navigation.
	"gnss": true, "gps-ops": true, "glo-ops": true, "galileo": true, "beidou": true,
	"sbas": true, "nnss": true, "musson": true,
	// Science.
	"science": true, "geodetic": true, "engineering": true, "education": true,
	// Miscellaneous.
	"military": true, "radar": true, "cubesat": true, "other": true,
}

// GroupURL returns the download URL for a Celestrak group tag, or false if
// the tag is not recognized.
func GroupURL(group string) (string, bool) {
	g := strings.TrimSpace(group)
	if !knownGroups[g] {
		return "", false
	}
	return celestrakBase + g + celestrakSuffix, true
}

// SplitList splits a comma-separated tag or name list, trimming whitespace
// and dropping empty segments.
func SplitList(csv string) []string {
	var out []string
	for _, seg := range strings.Split(csv, ",") {
		if s := strings.TrimSpace(seg); s != "" {
			out = append(out, s)
		}
	}
	return out
}
