package powerinfo

import "github.com/charlie0129/batteryinfo/pkg/utils/ptr"

// ratio returns a/b as a percentage clamped to [0, 100], or 0 if b is not positive.
func ratio(a, b float32) float32 {
	if b <= 0 {
		return 0
	}
	p := a / b * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// estimateTimes fills in TimeToEmpty/TimeToFull from energy and rate when
// the hardware does not report them directly.
func estimateTimes(d *Device) {
	rate := d.EnergyRate
	if rate < 0 {
		rate = -rate
	}
	if rate == 0 {
		return
	}

	switch d.State {
	case Discharging:
		if d.TimeToEmpty == nil && d.Energy > 0 {
			d.TimeToEmpty = ptr.To(d.Energy / rate * 3600)
		}
	case Charging:
		if d.TimeToFull == nil && d.EnergyFull > d.Energy {
			d.TimeToFull = ptr.To((d.EnergyFull - d.Energy) / rate * 3600)
		}
	}
}
