package rig

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/skyward/skytrack/internal/metrics"
)

// Radio tunes a transceiver through a rigctld daemon: downlink on the
// receive VFO, uplink as the split transmit frequency, plus the mode map.
// Failure handling matches the rotator: drop, no-op, reconnect next call.
type Radio struct {
	mu     sync.Mutex
	conn   *hamlibConn
	logger *slog.Logger

	lastMode string
}

// NewRadio creates a radio adapter for a host:port rigctld endpoint.
func NewRadio(endpoint string, logger *slog.Logger) *Radio {
	return &Radio{
		conn:   newHamlibConn(endpoint),
		logger: logger,
	}
}

// Connected reports whether the transport is open.
func (r *Radio) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn.connected()
}

// SetFreqs tunes the Doppler-corrected pair: downlink on the main VFO,
// uplink (when known) as the split TX frequency.
func (r *Radio) SetFreqs(uplinkHz, downlinkHz int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conn.connect(); err != nil {
		metrics.SetAdapterConnected("radio", false)
		return err
	}

	if err := r.conn.command(fmt.Sprintf("F %d", downlinkHz)); err != nil {
		return r.fail("set downlink", err)
	}
	if uplinkHz > 0 {
		if err := r.conn.command(fmt.Sprintf("I %d", uplinkHz)); err != nil {
			return r.fail("set uplink", err)
		}
	}

	metrics.SetAdapterConnected("radio", true)
	return nil
}

// SetMode selects the demodulator. Repeated identical modes are skipped to
// avoid needless rig traffic.
func (r *Radio) SetMode(mode string) error {
	mapped := MapMode(mode)

	r.mu.Lock()
	defer r.mu.Unlock()

	if mapped == r.lastMode && r.conn.connected() {
		return nil
	}

	if err := r.conn.connect(); err != nil {
		metrics.SetAdapterConnected("radio", false)
		return err
	}

	// Passband 0 asks the rig for its default filter width.
	if err := r.conn.command(fmt.Sprintf("M %s 0", mapped)); err != nil {
		return r.fail("set mode", err)
	}

	r.lastMode = mapped
	metrics.SetAdapterConnected("radio", true)
	return nil
}

// Close releases the transport.
func (r *Radio) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn.drop()
	metrics.SetAdapterConnected("radio", false)
}

func (r *Radio) fail(op string, err error) error {
	r.logger.Warn("radio command failed", "op", op, "error", err)
	r.conn.drop()
	r.lastMode = ""
	metrics.SetAdapterConnected("radio", false)
	return err
}
