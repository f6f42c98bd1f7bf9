package config

import "sync"

// Mailbox carries a pending configuration from the control-plane writer to
// the orchestrator. The writer offers a validated config under the lock;
// the orchestrator takes it at the top of the next tick. Offering again
// before a take simply replaces the pending value.
type Mailbox struct {
	mu      sync.Mutex
	pending Config
	dirty   bool
}

// Offer validates cfg and queues it for the next tick. An invalid config
// is rejected and the previous pending (if any) is kept.
func (m *Mailbox) Offer(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.pending = cfg
	m.dirty = true
	m.mu.Unlock()
	return nil
}

// Take atomically removes and returns the pending config, if one is
// queued.
func (m *Mailbox) Take() (Config, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty {
		return Config{}, false
	}
	m.dirty = false
	return m.pending, true
}
