package powerinfo

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batteryinfo/pkg/utils/ptr"
)

// DefaultSysfsRoot is where the kernel exposes power supplies.
const DefaultSysfsRoot = "/sys"

// Sysfs reads batteries from /sys/class/power_supply on Linux. Unlike
// Distatus it also reports identity strings, temperature and cycle count.
type Sysfs struct {
	root string
}

var _ Provider = &Sysfs{}

// NewSysfs returns a Provider reading below root (normally DefaultSysfsRoot).
func NewSysfs(root string) *Sysfs {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &Sysfs{root: root}
}

type sysfsHandle struct {
	dir string
}

// Enumerate implements Provider. Batteries are ordered by directory name
// (BAT0, BAT1, ...).
func (s *Sysfs) Enumerate() ([]Handle, error) {
	base := filepath.Join(s.root, "class", "power_supply")
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrapf(err, "failed to read %s", base)
	}

	var names []string
	for _, ent := range entries {
		dir := filepath.Join(base, ent.Name())
		typ, err := readTrimmed(filepath.Join(dir, "type"))
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"dir": dir,
				"err": err,
			}).Trace("skipping power supply without type")
			continue
		}
		if !strings.EqualFold(typ, "Battery") {
			continue
		}
		// Peripheral batteries (mice, keyboards) do not power the host.
		if scope, err := readTrimmed(filepath.Join(dir, "scope")); err == nil && strings.EqualFold(scope, "Device") {
			continue
		}
		names = append(names, ent.Name())
	}
	sort.Strings(names)

	handles := make([]Handle, 0, len(names))
	for _, name := range names {
		handles = append(handles, &sysfsHandle{dir: filepath.Join(base, name)})
	}

	return handles, nil
}

func (h *sysfsHandle) Read() (*Device, error) {
	ueventPath := filepath.Join(h.dir, "uevent")
	data, err := os.ReadFile(ueventPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read %s", ueventPath)
	}

	props := parseUevent(string(data))
	logrus.WithFields(logrus.Fields{
		"dir":   h.dir,
		"props": len(props),
	}).Trace("read battery uevent")

	return deviceFromUevent(props), nil
}

func deviceFromUevent(props map[string]string) *Device {
	d := &Device{
		Technology: UnknownTechnology,
		State:      stateFromSysfs(props["POWER_SUPPLY_STATUS"]),
	}

	if v, ok := props["POWER_SUPPLY_MANUFACTURER"]; ok {
		d.Vendor = ptr.To(v)
	}
	if v, ok := props["POWER_SUPPLY_MODEL_NAME"]; ok {
		d.Model = ptr.To(v)
	}
	if v, ok := props["POWER_SUPPLY_SERIAL_NUMBER"]; ok {
		d.SerialNumber = ptr.To(v)
	}
	if v, ok := props["POWER_SUPPLY_TECHNOLOGY"]; ok && v != "" && v != "Unknown" {
		d.Technology = v
	}

	// Voltages are in µV, energies in µWh, charges in µAh, power in µW.
	voltage, hasVoltage := propFloat(props, "POWER_SUPPLY_VOLTAGE_NOW")
	if hasVoltage {
		d.Voltage = float32(voltage / 1e6)
	}

	if v, ok := propFloat(props, "POWER_SUPPLY_ENERGY_NOW"); ok {
		d.Energy = float32(v / 1e6)
		if v, ok := propFloat(props, "POWER_SUPPLY_ENERGY_FULL"); ok {
			d.EnergyFull = float32(v / 1e6)
		}
		if v, ok := propFloat(props, "POWER_SUPPLY_ENERGY_FULL_DESIGN"); ok {
			d.EnergyFullDesign = float32(v / 1e6)
		}
	} else if v, ok := propFloat(props, "POWER_SUPPLY_CHARGE_NOW"); ok {
		designVoltage, ok := propFloat(props, "POWER_SUPPLY_VOLTAGE_MIN_DESIGN")
		if !ok {
			designVoltage = voltage
		}
		d.Energy = float32(v * designVoltage / 1e12)
		if v, ok := propFloat(props, "POWER_SUPPLY_CHARGE_FULL"); ok {
			d.EnergyFull = float32(v * designVoltage / 1e12)
		}
		if v, ok := propFloat(props, "POWER_SUPPLY_CHARGE_FULL_DESIGN"); ok {
			d.EnergyFullDesign = float32(v * designVoltage / 1e12)
		}
	}

	if v, ok := propFloat(props, "POWER_SUPPLY_POWER_NOW"); ok {
		d.EnergyRate = float32(v / 1e6)
	} else if v, ok := propFloat(props, "POWER_SUPPLY_CURRENT_NOW"); ok && hasVoltage {
		d.EnergyRate = float32(v * voltage / 1e12)
	}

	if v, ok := propFloat(props, "POWER_SUPPLY_CAPACITY"); ok {
		d.StateOfCharge = float32(v)
	} else {
		d.StateOfCharge = ratio(d.Energy, d.EnergyFull)
	}
	d.StateOfHealth = ratio(d.EnergyFull, d.EnergyFullDesign)

	// Tenths of a degree Celsius.
	if v, ok := propFloat(props, "POWER_SUPPLY_TEMP"); ok {
		d.Temperature = ptr.To(float32(v / 10))
	}
	if v, ok := propFloat(props, "POWER_SUPPLY_CYCLE_COUNT"); ok && v >= 0 {
		d.CycleCount = ptr.To(uint32(v))
	}

	if v, ok := propFloat(props, "POWER_SUPPLY_TIME_TO_EMPTY_NOW"); ok && v > 0 {
		d.TimeToEmpty = ptr.To(float32(v))
	}
	if v, ok := propFloat(props, "POWER_SUPPLY_TIME_TO_FULL_NOW"); ok && v > 0 {
		d.TimeToFull = ptr.To(float32(v))
	}
	estimateTimes(d)

	return d
}

func stateFromSysfs(status string) State {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "charging":
		return Charging
	case "discharging":
		return Discharging
	case "full":
		return Full
	case "empty":
		return Empty
	default:
		return Unknown
	}
}

func parseUevent(data string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(data, "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			props[k] = v
		}
	}
	return props
}

func propFloat(props map[string]string, key string) (float64, bool) {
	s, ok := props[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func readTrimmed(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
