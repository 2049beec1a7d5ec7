// internal/status/snapshot.go
package status

// Snapshot represents exactly what the status writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
}

// HealthName is the dashboard label of a health code.
func HealthName(h uint16) string {
	switch h {
	case HealthOK:
		return "OK"
	case HealthError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
