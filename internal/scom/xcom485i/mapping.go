// internal/scom/xcom485i/mapping.go
package xcom485i

import (
	"fmt"

	"github.com/tamzrod/scom-bridge/internal/scom"
)

// Geometry of the gateway's Modbus image.
// Every user info is a float32 spread over two input registers.
const registersPerInfo = 2

// SlaveID maps a SCOM bus address to the Modbus slave id the gateway answers on.
func SlaveID(t scom.DeviceType, addr scom.Address) (byte, error) {
	var offset int
	switch t {
	case scom.Xtender:
		offset = 90 // 100 -> 10, 101 -> 11
	case scom.VarioTrack:
		offset = 280 // 300 -> 20, 301 -> 21
	case scom.VarioString:
		offset = 660 // 700 -> 40, 701 -> 41
	case scom.BSP:
		offset = 540 // 601 -> 61
	default:
		return 0, fmt.Errorf("%w: %s has no modbus slave", scom.ErrUnsupported, t)
	}

	id := int(addr) - offset
	if id < 1 || id > 247 {
		return 0, fmt.Errorf("xcom485i: address %d out of range for %s", addr, t)
	}
	return byte(id), nil
}

// infoBlockSize is the number of user info ids reserved for one device type.
const infoBlockSize = 1000

// infoBase is the first user info number of each device type.
// A type owns the ids [base, base+infoBlockSize).
func infoBase(t scom.DeviceType) (int, bool) {
	switch t {
	case scom.Xtender:
		return 3000, true
	case scom.VarioTrack:
		return 11000, true
	case scom.VarioString:
		return 15000, true
	case scom.BSP:
		return 7000, true
	default:
		return 0, false
	}
}

// Register returns the first input register of a user info.
func Register(t scom.DeviceType, infoID int) (uint16, error) {
	base, ok := infoBase(t)
	if !ok {
		return 0, fmt.Errorf("%w: %s has no user infos", scom.ErrUnsupported, t)
	}
	if infoID < base || infoID >= base+infoBlockSize {
		return 0, fmt.Errorf("%w: info %d for %s", scom.ErrUnsupported, infoID, t)
	}
	return uint16((infoID - base) * registersPerInfo), nil
}

// probeInfo is read to decide whether a device answers at an address.
func probeInfo(t scom.DeviceType) (int, bool) {
	base, ok := infoBase(t)
	return base, ok
}
