package powerinfo

import (
	"strings"

	"github.com/godbus/dbus/v5"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batteryinfo/pkg/utils/ptr"
)

const (
	upowerBusName     = "org.freedesktop.UPower"
	upowerObjPath     = "/org/freedesktop/UPower"
	upowerIface       = "org.freedesktop.UPower"
	upowerDeviceIfc   = "org.freedesktop.UPower.Device"
	upowerTypeBattery = 2
)

var upowerTechnologies = map[uint32]string{
	1: "Li-ion",
	2: "Li-poly",
	3: "LiFePO4",
	4: "Lead acid",
	5: "NiCd",
	6: "NiMH",
}

// UPower reads batteries from the UPower daemon over the system D-Bus.
type UPower struct {
	conn *dbus.Conn
}

var _ Provider = &UPower{}

// NewUPower connects to the system bus. Call Close when done.
func NewUPower() (*UPower, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to connect to system bus")
	}

	return &UPower{conn: conn}, nil
}

// Close closes the D-Bus connection.
func (u *UPower) Close() error {
	return u.conn.Close()
}

type upowerHandle struct {
	conn *dbus.Conn
	path dbus.ObjectPath
}

// Enumerate implements Provider. Only batteries that power the host are
// returned; peripherals such as mice are skipped.
func (u *UPower) Enumerate() ([]Handle, error) {
	var paths []dbus.ObjectPath
	err := u.conn.Object(upowerBusName, upowerObjPath).
		Call(upowerIface+".EnumerateDevices", 0).
		Store(&paths)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to enumerate UPower devices")
	}

	var handles []Handle
	for _, p := range paths {
		props, err := getAllProperties(u.conn, p)
		if err != nil {
			return nil, err
		}
		typ, _ := variantValue[uint32](props, "Type")
		powerSupply, _ := variantValue[bool](props, "PowerSupply")
		if typ != upowerTypeBattery || !powerSupply {
			continue
		}
		handles = append(handles, &upowerHandle{conn: u.conn, path: p})
	}

	logrus.WithFields(logrus.Fields{
		"devices":   len(paths),
		"batteries": len(handles),
	}).Trace("enumerated UPower devices")

	return handles, nil
}

func (h *upowerHandle) Read() (*Device, error) {
	props, err := getAllProperties(h.conn, h.path)
	if err != nil {
		return nil, err
	}

	return deviceFromUPower(props), nil
}

func getAllProperties(conn *dbus.Conn, path dbus.ObjectPath) (map[string]dbus.Variant, error) {
	var props map[string]dbus.Variant
	err := conn.Object(upowerBusName, path).
		Call("org.freedesktop.DBus.Properties.GetAll", 0, upowerDeviceIfc).
		Store(&props)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get properties of %s", path)
	}
	return props, nil
}

func variantValue[T any](props map[string]dbus.Variant, key string) (T, bool) {
	var zero T
	v, ok := props[key]
	if !ok {
		return zero, false
	}
	t, ok := v.Value().(T)
	return t, ok
}

// UPower uses empty strings and zeros for "unknown".
func deviceFromUPower(props map[string]dbus.Variant) *Device {
	d := &Device{Technology: UnknownTechnology}

	if v, ok := variantValue[string](props, "Vendor"); ok && strings.TrimSpace(v) != "" {
		d.Vendor = ptr.To(v)
	}
	if v, ok := variantValue[string](props, "Model"); ok && strings.TrimSpace(v) != "" {
		d.Model = ptr.To(v)
	}
	if v, ok := variantValue[string](props, "Serial"); ok && strings.TrimSpace(v) != "" {
		d.SerialNumber = ptr.To(v)
	}
	if v, ok := variantValue[uint32](props, "Technology"); ok {
		if name, ok := upowerTechnologies[v]; ok {
			d.Technology = name
		}
	}

	state, _ := variantValue[uint32](props, "State")
	d.State = stateFromUPower(state)

	percentage, _ := variantValue[float64](props, "Percentage")
	capacity, _ := variantValue[float64](props, "Capacity")
	energy, _ := variantValue[float64](props, "Energy")
	energyFull, _ := variantValue[float64](props, "EnergyFull")
	energyFullDesign, _ := variantValue[float64](props, "EnergyFullDesign")
	energyRate, _ := variantValue[float64](props, "EnergyRate")
	voltage, _ := variantValue[float64](props, "Voltage")

	d.StateOfCharge = float32(percentage)
	d.StateOfHealth = float32(capacity)
	d.Energy = float32(energy)
	d.EnergyFull = float32(energyFull)
	d.EnergyFullDesign = float32(energyFullDesign)
	d.EnergyRate = float32(energyRate)
	d.Voltage = float32(voltage)

	if v, ok := variantValue[float64](props, "Temperature"); ok && v != 0 {
		d.Temperature = ptr.To(float32(v))
	}
	if v, ok := variantValue[int32](props, "ChargeCycles"); ok && v >= 0 {
		d.CycleCount = ptr.To(uint32(v))
	}
	if v, ok := variantValue[int64](props, "TimeToEmpty"); ok && v > 0 {
		d.TimeToEmpty = ptr.To(float32(v))
	}
	if v, ok := variantValue[int64](props, "TimeToFull"); ok && v > 0 {
		d.TimeToFull = ptr.To(float32(v))
	}

	return d
}

func stateFromUPower(s uint32) State {
	switch s {
	case 1:
		return Charging
	case 2:
		return Discharging
	case 3:
		return Empty
	case 4:
		return Full
	default:
		return Unknown
	}
}
