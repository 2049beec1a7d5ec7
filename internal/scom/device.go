// internal/scom/device.go
package scom

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupported is returned by a Bus for device types or infos it cannot address.
var ErrUnsupported = errors.New("scom: unsupported")

// Bus abstracts the field-bus operations needed for discovery and reads.
// Framing lives behind this interface.
type Bus interface {
	Probe(ctx context.Context, t DeviceType, addr Address) error
	ReadInfo(ctx context.Context, t DeviceType, addr Address, infoID int) (float64, error)
	Close() error
}

// Device is one discovered device. Immutable after discovery.
type Device struct {
	Site      string
	Type      DeviceType
	Address   Address
	Multicast bool

	bus Bus
}

// NewDevice binds a discovered address to the bus it was found on.
func NewDevice(site string, t DeviceType, addr Address, multicast bool, bus Bus) *Device {
	return &Device{
		Site:      site,
		Type:      t,
		Address:   addr,
		Multicast: multicast,
		bus:       bus,
	}
}

// ReadInfos reads the given user infos in order.
// All-or-nothing: the first failure aborts the read.
func (d *Device) ReadInfos(ctx context.Context, ids []int) (map[int]float64, error) {
	if d.bus == nil {
		return nil, fmt.Errorf("scom: device %s@%d has no bus", d.Type, d.Address)
	}

	out := make(map[int]float64, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := d.bus.ReadInfo(ctx, d.Type, d.Address, id)
		if err != nil {
			return nil, fmt.Errorf("read info %d: %w", id, err)
		}
		out[id] = v
	}
	return out, nil
}

func (d *Device) String() string {
	return fmt.Sprintf("%s/%s@%d", d.Site, d.Type, d.Address)
}
