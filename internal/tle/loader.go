package tle

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
)

// Loader combines the fetcher and the per-group disk cache: fresh cache
// files are used as-is, stale or missing groups are downloaded, and a
// failed download falls back to whatever cache exists. Groups that yield
// nothing are logged and skipped so the rest continue.
type Loader struct {
	cache   *Cache
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(cache *Cache, fetcher *Fetcher, logger *slog.Logger) *Loader {
	return &Loader{cache: cache, fetcher: fetcher, logger: logger}
}

// LoadGroups loads every group in the comma-separated tag list, deduplicating
// entries by catalog number in first-seen order.
func (l *Loader) LoadGroups(ctx context.Context, csvGroups string) ([]Entry, error) {
	var all []Entry
	seen := make(map[int]bool)

	for _, group := range SplitList(csvGroups) {
		data, err := l.groupData(ctx, group)
		if err != nil {
			l.logger.Warn("group unavailable, continuing without it", "group", group, "error", err)
			continue
		}

		entries, err := Parse(bytes.NewReader(data), l.logger)
		if err != nil {
			l.logger.Warn("group parse failed", "group", group, "error", err)
			continue
		}
		if len(entries) == 0 {
			l.logger.Warn("group contained no element sets", "group", group)
		}

		for _, e := range entries {
			if seen[e.CatalogID] {
				continue
			}
			seen[e.CatalogID] = true
			all = append(all, e)
		}
	}

	return all, nil
}

// LoadNames loads entries whose names contain any of the requested names
// (case-insensitive substring match) from the full active catalog.
func (l *Loader) LoadNames(ctx context.Context, names []string) ([]Entry, error) {
	data, err := l.groupData(ctx, "active")
	if err != nil {
		return nil, err
	}

	entries, err := Parse(bytes.NewReader(data), l.logger)
	if err != nil {
		return nil, err
	}

	targets := make([]string, 0, len(names))
	for _, n := range names {
		if t := strings.ToUpper(strings.TrimSpace(n)); t != "" {
			targets = append(targets, t)
		}
	}

	var matched []Entry
	seen := make(map[int]bool)
	for _, e := range entries {
		upper := strings.ToUpper(e.Name)
		for _, t := range targets {
			if strings.Contains(upper, t) && !seen[e.CatalogID] {
				seen[e.CatalogID] = true
				matched = append(matched, e)
				break
			}
		}
	}

	return matched, nil
}

// groupData returns the raw element text for one group, consulting the
// cache first and falling back to it on download failure.
func (l *Loader) groupData(ctx context.Context, group string) ([]byte, error) {
	if l.cache.Fresh(group) {
		l.logger.Debug("using cached element data", "group", group)
		return l.cache.Read(group)
	}

	data, err := l.fetcher.FetchGroup(ctx, group)
	if err != nil {
		// Stale cache beats no data.
		if cached, cacheErr := l.cache.Read(group); cacheErr == nil {
			l.logger.Warn("download failed, using stale cache", "group", group, "error", err)
			return cached, nil
		}
		return nil, err
	}

	if err := l.cache.Write(group, data); err != nil {
		l.logger.Warn("could not cache element data", "group", group, "error", err)
	}
	return data, nil
}
