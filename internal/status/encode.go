// internal/status/encode.go
package status

import (
	"fmt"

	"github.com/tamzrod/scom-bridge/internal/scom"
)

// Encode converts a Snapshot into gateway attributes for one device.
// Keys are prefixed with the bus address so devices of a site do not collide.
// No IO. No side effects.
func Encode(addr scom.Address, s Snapshot) map[string]any {
	prefix := fmt.Sprintf("%d_", addr)

	return map[string]any{
		prefix + "health":           HealthName(s.Health),
		prefix + "health_code":      s.Health,
		prefix + "last_error_code":  s.LastErrorCode,
		prefix + "seconds_in_error": s.SecondsInError,
	}
}
