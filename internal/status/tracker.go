// internal/status/tracker.go
package status

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/scom-bridge/internal/poller"
	"github.com/tamzrod/scom-bridge/internal/scom"
)

type deviceKey struct {
	site string
	addr scom.Address
}

type deviceState struct {
	snap       Snapshot
	errorSince time.Time
}

// Tracker owns the health state of every polled device.
// Safe for concurrent use by read workers.
type Tracker struct {
	mu      sync.Mutex
	devices map[deviceKey]*deviceState
}

func NewTracker() *Tracker {
	return &Tracker{devices: map[deviceKey]*deviceState{}}
}

// Observe folds one read result into the device's state and reports
// whether the snapshot changed.
//
// seconds_in_error is measured between read timestamps, not ticked.
func (t *Tracker) Observe(res poller.PollResult) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := deviceKey{site: res.Site, addr: res.Address}
	st, ok := t.devices[k]
	if !ok {
		st = &deviceState{snap: Snapshot{Health: HealthUnknown}}
		t.devices[k] = st
	}
	prev := st.snap

	if res.Err == nil {
		// Recovery resets code and duration.
		st.snap = Snapshot{Health: HealthOK}
		st.errorSince = time.Time{}
		return st.snap, st.snap != prev
	}

	if prev.Health != HealthError || st.errorSince.IsZero() {
		st.errorSince = res.At
	}

	st.snap = Snapshot{
		Health:         HealthError,
		LastErrorCode:  errorCode(res.Err),
		SecondsInError: secondsSince(st.errorSince, res.At),
	}
	return st.snap, st.snap != prev
}

// Get returns the current snapshot of a device.
func (t *Tracker) Get(site string, addr scom.Address) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.devices[deviceKey{site: site, addr: addr}]
	if !ok {
		return Snapshot{Health: HealthUnknown}, false
	}
	return st.snap, true
}

func secondsSince(since, now time.Time) uint16 {
	d := now.Sub(since)
	if d <= 0 {
		return 0
	}
	s := int64(d / time.Second)
	if s > SecondsInErrorMax {
		return SecondsInErrorMax
	}
	return uint16(s)
}

// errorCode extracts the Modbus exception code if the failure carries one.
// Anything else is reported as the generic code.
func errorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return uint16(me.ExceptionCode)
	}

	type coder interface{ Code() uint16 }
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return ErrorCodeGeneric
}
