package batteryinfo

import (
	"strconv"
	"time"

	"github.com/charlie0129/batteryinfo/pkg/measurement"
)

// Snapshot is a copy of every cached value of a Reading, taken without
// querying the provider. AsOf is when the values were read from hardware.
type Snapshot struct {
	Index        int     `json:"batteryIndex"`
	Vendor       *string `json:"vendor"`
	Model        *string `json:"model"`
	SerialNumber *string `json:"serialNumber"`
	Technology   string  `json:"technology"`

	Percent          measurement.Measurement  `json:"percent"`
	State            State                    `json:"state"`
	Capacity         measurement.Measurement  `json:"capacity"`
	Temperature      *measurement.Measurement `json:"temperature"`
	CycleCount       *uint32                  `json:"cycleCount"`
	Energy           measurement.Measurement  `json:"energy"`
	EnergyFull       measurement.Measurement  `json:"energyFull"`
	EnergyFullDesign measurement.Measurement  `json:"energyFullDesign"`
	EnergyRate       measurement.Measurement  `json:"energyRate"`
	Voltage          measurement.Measurement  `json:"voltage"`
	TimeToEmpty      *string                  `json:"timeToEmpty"`
	TimeToFull       *string                  `json:"timeToFull"`

	TimeFormat      TimeFormat    `json:"timeFormat"`
	TempUnit        TempUnit      `json:"tempUnit"`
	RefreshInterval time.Duration `json:"refreshInterval"`
	AsOf            time.Time     `json:"asOf"`
}

// Snapshot returns the cached values. It never queries the provider; call
// Poll first for fresh-enough values.
func (r *Reading) Snapshot() Snapshot {
	return Snapshot{
		Index:            r.id.index,
		Vendor:           cloned(r.id.vendor),
		Model:            cloned(r.id.model),
		SerialNumber:     cloned(r.id.serialNumber),
		Technology:       r.id.technology,
		Percent:          r.snap.percentFull,
		State:            r.snap.state,
		Capacity:         r.snap.capacity,
		Temperature:      cloned(r.snap.temperature),
		CycleCount:       cloned(r.snap.cycleCount),
		Energy:           r.snap.energy,
		EnergyFull:       r.snap.energyFull,
		EnergyFullDesign: r.snap.energyFullDesign,
		EnergyRate:       r.snap.energyRate,
		Voltage:          r.snap.voltage,
		TimeToEmpty:      cloned(r.snap.timeToEmpty),
		TimeToFull:       cloned(r.snap.timeToFull),
		TimeFormat:       r.timeFormat,
		TempUnit:         r.tempUnit,
		RefreshInterval:  r.refreshInterval,
		AsOf:             r.lastRefresh,
	}
}

// MapKeys lists the keys of AsMap in display order.
var MapKeys = []string{
	"battery_index",
	"vendor",
	"model",
	"serial_number",
	"technology",
	"percent",
	"state",
	"capacity",
	"temperature",
	"cycle_count",
	"energy",
	"energy_full",
	"energy_full_design",
	"energy_rate",
	"voltage",
	"time_to_empty",
	"time_to_full",
}

// AsMap flattens the cached values. Identity strings and durations are
// strings, measurements are [value, units] pairs and absent values are "".
// Like Snapshot it does not query the provider.
func (r *Reading) AsMap() map[string]any {
	return r.Snapshot().AsMap()
}

// AsMap flattens s; see Reading.AsMap.
func (s Snapshot) AsMap() map[string]any {
	m := map[string]any{
		"battery_index":      s.Index,
		"vendor":             stringOrEmpty(s.Vendor),
		"model":              stringOrEmpty(s.Model),
		"serial_number":      stringOrEmpty(s.SerialNumber),
		"technology":         s.Technology,
		"percent":            pair(s.Percent),
		"state":              s.State.Display(),
		"capacity":           pair(s.Capacity),
		"temperature":        "",
		"cycle_count":        "",
		"energy":             pair(s.Energy),
		"energy_full":        pair(s.EnergyFull),
		"energy_full_design": pair(s.EnergyFullDesign),
		"energy_rate":        pair(s.EnergyRate),
		"voltage":            pair(s.Voltage),
		"time_to_empty":      stringOrEmpty(s.TimeToEmpty),
		"time_to_full":       stringOrEmpty(s.TimeToFull),
	}
	if s.Temperature != nil {
		m["temperature"] = pair(*s.Temperature)
	}
	if s.CycleCount != nil {
		m["cycle_count"] = strconv.FormatUint(uint64(*s.CycleCount), 10)
	}
	return m
}

func pair(m measurement.Measurement) [2]any {
	return [2]any{m.Value(), m.Units()}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
