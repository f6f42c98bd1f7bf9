package rig

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/skyward/skytrack/internal/metrics"
)

// Rotator points an azimuth/elevation antenna rotator through a rotctld
// daemon. Commands arrive at the orchestrator's tick cadence, so no rate
// limiter is needed. On a command failure the adapter marks itself
// disconnected and silently no-ops until the next command reconnects.
type Rotator struct {
	mu     sync.Mutex
	conn   *hamlibConn
	logger *slog.Logger
}

// NewRotator creates a rotator adapter for a host:port rotctld endpoint.
// The connection is established lazily on the first command.
func NewRotator(endpoint string, logger *slog.Logger) *Rotator {
	return &Rotator{
		conn:   newHamlibConn(endpoint),
		logger: logger,
	}
}

// Connected reports whether the transport is open.
func (r *Rotator) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn.connected()
}

// Command points the rotator. A transport failure drops the connection;
// the next call attempts reconnection.
func (r *Rotator) Command(azDeg, elDeg float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.conn.connect(); err != nil {
		metrics.SetAdapterConnected("rotator", false)
		return err
	}

	if err := r.conn.command(fmt.Sprintf("P %.1f %.1f", azDeg, elDeg)); err != nil {
		r.logger.Warn("rotator command failed", "error", err)
		r.conn.drop()
		metrics.SetAdapterConnected("rotator", false)
		return err
	}

	metrics.SetAdapterConnected("rotator", true)
	return nil
}

// Close releases the transport.
func (r *Rotator) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conn.drop()
	metrics.SetAdapterConnected("rotator", false)
}
