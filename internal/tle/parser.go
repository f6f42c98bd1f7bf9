package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Parse reads 3-line NORAD element sets from r and returns parsed entries.
// Malformed entries are skipped with a warning log; the rest continue.
func Parse(r io.Reader, logger *slog.Logger) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading element data: %w", err)
	}

	var entries []Entry
	for i := 0; i+2 < len(lines); {
		name := strings.TrimSpace(lines[i])
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Resync on the next candidate triplet.
			logger.Warn("skipping malformed element entry", "line_index", i, "name", name)
			i++
			continue
		}

		entry, err := parseLines(name, line1, line2)
		if err != nil {
			logger.Warn("skipping element entry", "name", name, "error", err)
			i += 3
			continue
		}

		entries = append(entries, entry)
		i += 3
	}

	return entries, nil
}

// parseLines extracts the catalog fields the tracker needs directly from
// the fixed-column lines. Column offsets follow the standard 69-character
// format.
func parseLines(name, line1, line2 string) (Entry, error) {
	if len(line1) < 69 || len(line2) < 69 {
		return Entry{}, fmt.Errorf("short catalog line (%d/%d chars)", len(line1), len(line2))
	}

	catalogID, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid catalog number %q: %w", line1[2:7], err)
	}

	epochYear, epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Entry{}, fmt.Errorf("invalid epoch: %w", err)
	}

	// Eccentricity is printed with an implied leading decimal point.
	ecc, err := strconv.ParseFloat("0."+strings.TrimSpace(line2[26:33]), 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid eccentricity %q: %w", line2[26:33], err)
	}

	meanMotion, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid mean motion %q: %w", line2[52:63], err)
	}

	return Entry{
		CatalogID:    catalogID,
		Name:         name,
		EpochYear:    epochYear,
		Epoch:        epoch,
		MeanMotion:   meanMotion,
		Eccentricity: ecc,
		Line1:        line1,
		Line2:        line2,
	}, nil
}

// parseEpoch converts a catalog epoch in YYDDD.DDDDDDDD form.
// Year 00-56 maps to the 2000s, 57-99 to the 1900s.
func parseEpoch(s string) (int, time.Time, error) {
	if len(s) < 5 {
		return 0, time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	t = t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour)))

	return year, t, nil
}
