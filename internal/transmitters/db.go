// Package transmitters maintains the transmitter database used for radio
// tracking: a JSON dump of known uplink/downlink frequencies per catalog
// number, fetched opportunistically from the SatNOGS DB and cached to disk.
package transmitters

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultURL is the SatNOGS transmitter dump.
const DefaultURL = "https://db.satnogs.org/api/transmitters/?format=json"

// Transmitter is one known transmitter record for a tracked object.
type Transmitter struct {
	CatalogID   int    `json:"norad_cat_id"`
	UplinkLow   int64  `json:"uplink_low"`
	DownlinkLow int64  `json:"downlink_low"`
	Mode        string `json:"mode"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Active reports whether the transmitter is flagged operational upstream.
func (t Transmitter) Active() bool { return t.Status == "active" }

// DB indexes transmitters by catalog number. Loading replaces the whole
// index; lookups are read-locked.
type DB struct {
	mu     sync.RWMutex
	byID   map[int][]Transmitter
	logger *slog.Logger

	httpClient *http.Client
}

// NewDB creates an empty database.
func NewDB(logger *slog.Logger) *DB {
	return &DB{
		byID:   make(map[int][]Transmitter),
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Load fetches the database from url and falls back to the cache file when
// the network is unavailable. Freshness is opportunistic: whatever loads,
// serves.
func (d *DB) Load(ctx context.Context, url, cachePath string) error {
	data, err := d.download(ctx, url)
	if err != nil {
		d.logger.Warn("transmitter download failed, trying cache", "error", err)
		data, err = os.ReadFile(cachePath)
		if err != nil {
			return errors.Wrap(err, "no transmitter data available")
		}
		return d.parse(data)
	}

	if err := d.parse(data); err != nil {
		return err
	}
	if cachePath != "" {
		if err := os.WriteFile(cachePath, data, 0644); err != nil {
			d.logger.Warn("could not cache transmitter data", "error", err)
		}
	}
	return nil
}

func (d *DB) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	req.Header.Set("User-Agent", "skytrack/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching transmitter data")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body")
	}
	return body, nil
}

func (d *DB) parse(data []byte) error {
	var list []Transmitter
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.Wrap(err, "parsing transmitter data")
	}

	byID := make(map[int][]Transmitter)
	for _, tx := range list {
		if tx.CatalogID == 0 {
			continue
		}
		byID[tx.CatalogID] = append(byID[tx.CatalogID], tx)
	}

	d.mu.Lock()
	d.byID = byID
	d.mu.Unlock()

	d.logger.Info("transmitter database loaded",
		"transmitters", len(list),
		"objects", len(byID),
	)
	return nil
}

// Has reports whether any transmitter is known for the catalog number.
func (d *DB) Has(catalogID int) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID[catalogID]) > 0
}

// Count returns the number of objects with at least one transmitter.
func (d *DB) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

// Best picks the most useful transmitter for an object, in priority order:
// active weather APT around 137 MHz FM, active amateur FM voice, any active
// FM, active SSB/CW linears, any active downlink, then any downlink at all.
func (d *DB) Best(catalogID int) (Transmitter, bool) {
	d.mu.RLock()
	list := d.byID[catalogID]
	d.mu.RUnlock()

	if len(list) == 0 {
		return Transmitter{}, false
	}

	picks := []func(Transmitter) bool{
		func(t Transmitter) bool {
			return t.Active() && t.DownlinkLow >= 137000000 && t.DownlinkLow <= 138000000 &&
				strings.Contains(t.Mode, "FM")
		},
		func(t Transmitter) bool {
			return t.Active() && strings.Contains(t.Mode, "FM") &&
				(strings.Contains(t.Description, "Voice") || strings.Contains(t.Description, "Repeater"))
		},
		func(t Transmitter) bool {
			return t.Active() && strings.Contains(t.Mode, "FM")
		},
		func(t Transmitter) bool {
			return t.Active() && (strings.Contains(t.Mode, "SSB") || strings.Contains(t.Mode, "CW"))
		},
		func(t Transmitter) bool {
			return t.Active() && t.DownlinkLow > 0
		},
		func(t Transmitter) bool {
			return t.DownlinkLow > 0
		},
	}

	for _, match := range picks {
		for _, tx := range list {
			if match(tx) {
				return tx, true
			}
		}
	}
	return Transmitter{}, false
}
