// internal/selection/selection.go
package selection

import "github.com/tamzrod/scom-bridge/internal/scom"

// User infos read from each kind of device.
// Order is significant: reads are issued in this order.
var (
	xtenderSingle = []int{
		3090, 3113, 3116, 3098, 3097, 3110, 3122,
		3010, 3028, 3020, 3086, 3054, 3055, 3092,
		3095, 3119, 3101, 3103,
	}
	xtenderMulticast = []int{}

	varioTrackSingle = []int{
		11000, 11043, 11043, 11016, 11045, 11041,
		11040, 11039, 11038, 11082, 11061, 11062,
	}
	varioTrackMulticast = []int{11043}

	varioStringSingle = []int{
		15061, 15013, 15065, 15058, 15054, 15057, 15002, 15111,
		15088, 15089,
	}
	varioStringMulticast = []int{15061}

	bspSingle = []int{7030, 7031, 7032, 7033}
)

// For returns the user infos of interest for a device type and addressing mode.
// The result is a fresh slice; an empty result means "nothing to read".
// BSP has no group address, so its list ignores the multicast flag.
func For(t scom.DeviceType, multicast bool) []int {
	var src []int

	switch t {
	case scom.Xtender:
		src = pick(multicast, xtenderMulticast, xtenderSingle)
	case scom.VarioTrack:
		src = pick(multicast, varioTrackMulticast, varioTrackSingle)
	case scom.VarioString:
		src = pick(multicast, varioStringMulticast, varioStringSingle)
	case scom.BSP:
		src = bspSingle
	}

	out := make([]int, len(src))
	copy(out, src)
	return out
}

// ForDevice is For applied to a discovered device.
func ForDevice(d *scom.Device) []int {
	return For(d.Type, d.Multicast)
}

func pick(multicast bool, group, single []int) []int {
	if multicast {
		return group
	}
	return single
}
