// internal/poller/types.go
package poller

import (
	"context"
	"time"

	"github.com/tamzrod/scom-bridge/internal/node"
	"github.com/tamzrod/scom-bridge/internal/scom"
)

// Source is one site's view of its connected devices.
type Source interface {
	Site() string
	Snapshot() node.Snapshot
}

// PollResult is the outcome of reading one device once.
type PollResult struct {
	Site      string
	Address   scom.Address
	Type      scom.DeviceType
	Multicast bool
	At        time.Time

	// Values is keyed by user info id. Nil when Err is set.
	Values map[int]float64
	Err    error // non-nil means the read failed
}

// Handler receives every PollResult, failed ones included.
// It runs on the worker that performed the read.
type Handler func(ctx context.Context, res PollResult)
