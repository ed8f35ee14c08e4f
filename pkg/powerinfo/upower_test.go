package powerinfo

import (
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestDeviceFromUPower(t *testing.T) {
	props := map[string]dbus.Variant{
		"Type":             dbus.MakeVariant(uint32(2)),
		"PowerSupply":      dbus.MakeVariant(true),
		"Vendor":           dbus.MakeVariant("  LGC  "),
		"Model":            dbus.MakeVariant("5B10W138"),
		"Serial":           dbus.MakeVariant(""),
		"Technology":       dbus.MakeVariant(uint32(1)),
		"State":            dbus.MakeVariant(uint32(1)),
		"Percentage":       dbus.MakeVariant(42.0),
		"Capacity":         dbus.MakeVariant(91.5),
		"Energy":           dbus.MakeVariant(21.0),
		"EnergyFull":       dbus.MakeVariant(50.0),
		"EnergyFullDesign": dbus.MakeVariant(54.6),
		"EnergyRate":       dbus.MakeVariant(18.2),
		"Voltage":          dbus.MakeVariant(16.9),
		"Temperature":      dbus.MakeVariant(0.0),
		"ChargeCycles":     dbus.MakeVariant(int32(-1)),
		"TimeToEmpty":      dbus.MakeVariant(int64(0)),
		"TimeToFull":       dbus.MakeVariant(int64(5760)),
	}

	d := deviceFromUPower(props)

	if d.Vendor == nil || *d.Vendor != "  LGC  " {
		t.Errorf("Vendor = %v, want untrimmed LGC", d.Vendor)
	}
	if d.SerialNumber != nil {
		t.Errorf("SerialNumber = %q, want nil", *d.SerialNumber)
	}
	if d.Technology != "Li-ion" {
		t.Errorf("Technology = %q, want Li-ion", d.Technology)
	}
	if d.State != Charging {
		t.Errorf("State = %v, want Charging", d.State)
	}
	if !approx(d.StateOfCharge, 42) || !approx(d.StateOfHealth, 91.5) {
		t.Errorf("SoC/SoH = %v/%v", d.StateOfCharge, d.StateOfHealth)
	}
	if d.Temperature != nil {
		t.Errorf("Temperature = %v, want nil when UPower reports 0", *d.Temperature)
	}
	if d.CycleCount != nil {
		t.Errorf("CycleCount = %v, want nil when UPower reports -1", *d.CycleCount)
	}
	if d.TimeToEmpty != nil {
		t.Errorf("TimeToEmpty = %v, want nil", *d.TimeToEmpty)
	}
	if d.TimeToFull == nil || *d.TimeToFull != 5760 {
		t.Errorf("TimeToFull = %v, want 5760", d.TimeToFull)
	}
}

func TestStateFromUPower(t *testing.T) {
	tests := []struct {
		in   uint32
		want State
	}{
		{0, Unknown},
		{1, Charging},
		{2, Discharging},
		{3, Empty},
		{4, Full},
		{5, Unknown},
		{6, Unknown},
	}
	for _, tt := range tests {
		if got := stateFromUPower(tt.in); got != tt.want {
			t.Errorf("stateFromUPower(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
