// internal/config/validate.go
package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("poll interval must be > 0, got %s", cfg.Poll.Interval)
	}

	switch cfg.Delivery.Mode {
	case ModeSend, ModeEnqueue:
	default:
		return fmt.Errorf("delivery mode %q: expected %q or %q", cfg.Delivery.Mode, ModeSend, ModeEnqueue)
	}

	if cfg.ThingsBoard.Host == "" {
		return fmt.Errorf("thingsboard host required")
	}

	// ------------------------------------------------------------
	// SITE TABLE
	// ------------------------------------------------------------

	seen := make(map[string]struct{}, len(cfg.Sites))

	for i, s := range cfg.Sites {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("site #%d: id required", i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("site %q: duplicate id", s.ID)
		}
		seen[s.ID] = struct{}{}

		// Interface is optional: a site without one is skipped, not rejected.

		switch strings.ToUpper(strings.TrimSpace(s.Parity)) {
		case "", "N", "E", "O":
		default:
			return fmt.Errorf("site %q: parity %q must be N, E or O", s.ID, s.Parity)
		}
		if s.BaudRate < 0 {
			return fmt.Errorf("site %q: baudrate must be >= 0", s.ID)
		}
	}

	return nil
}
