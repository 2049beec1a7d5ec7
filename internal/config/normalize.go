// internal/config/normalize.go
package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	for i := range cfg.Sites {
		s := &cfg.Sites[i]

		// Whitespace-only interface means "absent".
		s.Interface = strings.TrimSpace(s.Interface)
		s.Parity = strings.ToUpper(strings.TrimSpace(s.Parity))
	}

	if cfg.Poll.MaxWorkers <= 0 {
		cfg.Poll.MaxWorkers = DefaultMaxWorkers
	}
	if cfg.Poll.ReadTimeout <= 0 {
		cfg.Poll.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Poll.ProbeTimeout <= 0 {
		cfg.Poll.ProbeTimeout = DefaultProbeTimeout
	}
	// A probe never waits longer than a read.
	if cfg.Poll.ProbeTimeout > cfg.Poll.ReadTimeout {
		cfg.Poll.ProbeTimeout = cfg.Poll.ReadTimeout
	}
	if cfg.Poll.RescanInterval <= 0 {
		cfg.Poll.RescanInterval = DefaultRescanInterval
	}
	if cfg.Delivery.QueueSize <= 0 {
		cfg.Delivery.QueueSize = DefaultQueueSize
	}
	if cfg.Bus.ScanRanges == nil {
		cfg.Bus = DefaultBus()
	}
}
