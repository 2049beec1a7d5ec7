// internal/node/observer.go
package node

import (
	"sync/atomic"

	"github.com/tamzrod/scom-bridge/internal/scom"
)

// Snapshot is an immutable view of one site's connected devices.
// Devices must not be modified by readers.
type Snapshot struct {
	Site    string
	Version uint64
	Devices map[scom.Address]*scom.Device
}

// Observer follows a Manager and holds its latest device set.
// Readers never block the manager.
type Observer struct {
	manager *Manager
	current atomic.Pointer[Snapshot]
}

// NewObserver subscribes to m.
func NewObserver(m *Manager) *Observer {
	o := &Observer{manager: m}
	o.current.Store(&Snapshot{Site: m.Site(), Devices: map[scom.Address]*scom.Device{}})
	m.Subscribe(o.update)
	return o
}

func (o *Observer) update(s Snapshot) {
	for {
		old := o.current.Load()
		if old != nil && old.Version > s.Version {
			return
		}
		if o.current.CompareAndSwap(old, &s) {
			return
		}
	}
}

func (o *Observer) Site() string { return o.manager.Site() }

func (o *Observer) Manager() *Manager { return o.manager }

// Snapshot returns the latest consistent device set.
func (o *Observer) Snapshot() Snapshot {
	return *o.current.Load()
}

// ConnectedDevices returns a copy of the address to device map.
func (o *Observer) ConnectedDevices() map[scom.Address]*scom.Device {
	s := o.current.Load()
	out := make(map[scom.Address]*scom.Device, len(s.Devices))
	for a, d := range s.Devices {
		out[a] = d
	}
	return out
}
