// internal/scom/types.go
package scom

import "fmt"

// DeviceType identifies the kind of Studer device sitting on the SCOM bus.
type DeviceType uint8

const (
	Xtender DeviceType = iota + 1
	VarioTrack
	VarioString
	RCC
	BSP
)

// AllDeviceTypes lists every type in scan order.
var AllDeviceTypes = []DeviceType{Xtender, VarioTrack, VarioString, RCC, BSP}

func (t DeviceType) String() string {
	switch t {
	case Xtender:
		return "XTENDER"
	case VarioTrack:
		return "VARIO_TRACK"
	case VarioString:
		return "VARIO_STRING"
	case RCC:
		return "RCC"
	case BSP:
		return "BSP"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

// Address is a SCOM bus address.
type Address uint16

// ScanRange is an inclusive range of bus addresses probed during discovery.
type ScanRange struct {
	First Address `yaml:"first"`
	Last  Address `yaml:"last"`
}

// Addresses expands the range. An inverted range yields nothing.
func (r ScanRange) Addresses() []Address {
	if r.Last < r.First {
		return nil
	}
	out := make([]Address, 0, int(r.Last-r.First)+1)
	for a := r.First; ; a++ {
		out = append(out, a)
		if a == r.Last {
			break
		}
	}
	return out
}

// ---- DEFAULT SCAN RANGES ----

var (
	XtenderScanRange     = ScanRange{First: 101, Last: 109}
	VarioTrackScanRange  = ScanRange{First: 301, Last: 315}
	VarioStringScanRange = ScanRange{First: 701, Last: 715}
	RCCScanRange         = ScanRange{First: 501, Last: 501}
	BSPScanRange         = ScanRange{First: 601, Last: 601}
)

// DefaultScanRanges returns a fresh map of the default range per device type.
func DefaultScanRanges() map[DeviceType]ScanRange {
	return map[DeviceType]ScanRange{
		Xtender:     XtenderScanRange,
		VarioTrack:  VarioTrackScanRange,
		VarioString: VarioStringScanRange,
		RCC:         RCCScanRange,
		BSP:         BSPScanRange,
	}
}

// ---- GROUP (MULTICAST) ADDRESSES ----

// GroupAddress returns the multicast address of a device type.
// Only XT, VT and VS support group addressing.
func GroupAddress(t DeviceType) (Address, bool) {
	switch t {
	case Xtender:
		return 100, true
	case VarioTrack:
		return 300, true
	case VarioString:
		return 700, true
	default:
		return 0, false
	}
}
