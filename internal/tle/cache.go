package tle

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache stores one element-set text file per group tag. Files older than
// the freshness window are treated as missing so the next load refetches.
type Cache struct {
	dir    string
	maxAge time.Duration
}

// Oversized group files indicate a poisoned download (an error page, or the
// full catalog written under a group tag). The `active` group legitimately
// exceeds this, so it is exempt.
const maxGroupFileBytes = 2 * 1024 * 1024

// NewCache creates a Cache rooted at dir with the given freshness window.
// A zero maxAge defaults to 24 hours.
func NewCache(dir string, maxAge time.Duration) *Cache {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &Cache{dir: dir, maxAge: maxAge}
}

// Path returns the cache file path for a group tag.
func (c *Cache) Path(group string) string {
	return filepath.Join(c.dir, group+".txt")
}

// Fresh reports whether a usable cache file exists for the group. Corrupt
// files (empty, or oversized for a non-active group) are removed.
func (c *Cache) Fresh(group string) bool {
	path := c.Path(group)
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if info.Size() == 0 {
		os.Remove(path)
		return false
	}
	if group != "active" && info.Size() > maxGroupFileBytes {
		os.Remove(path)
		return false
	}

	return time.Since(info.ModTime()) < c.maxAge
}

// Write saves group data to the cache, creating the directory on demand.
func (c *Cache) Write(group string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := os.WriteFile(c.Path(group), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Read returns the cached data for a group.
func (c *Cache) Read(group string) ([]byte, error) {
	data, err := os.ReadFile(c.Path(group))
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}
	return data, nil
}

// Clear removes every cached file.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("listing cache dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("clearing cache file %s: %w", e.Name(), err)
		}
	}
	return nil
}
