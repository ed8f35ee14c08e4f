package measurement

import (
	"encoding/json"
	"strconv"
)

// PercentUnit is rendered without a space between value and unit.
const PercentUnit = "%"

// Measurement pairs a value with a unit label and a display precision.
// It is never mutated once constructed; a new reading yields a new Measurement.
type Measurement struct {
	value    float32
	units    string
	decimals uint
}

// New returns a Measurement.
func New(value float32, units string, decimals uint) Measurement {
	return Measurement{
		value:    value,
		units:    units,
		decimals: decimals,
	}
}

// Value returns the raw value.
func (m Measurement) Value() float32 {
	return m.value
}

// Units returns the unit label, e.g. "Wh".
func (m Measurement) Units() string {
	return m.units
}

// Decimals returns the number of fractional digits used by Formatted.
func (m Measurement) Decimals() uint {
	return m.decimals
}

// Formatted renders the value rounded to Decimals digits followed by the
// unit, e.g. "11.73 Wh" or "95.3%".
func (m Measurement) Formatted() string {
	v := strconv.FormatFloat(float64(m.value), 'f', int(m.decimals), 32)
	if m.units == PercentUnit {
		return v + m.units
	}
	return v + " " + m.units
}

func (m Measurement) String() string {
	return m.Formatted()
}

type rawMeasurement struct {
	Value    float32 `json:"value"`
	Units    string  `json:"units"`
	Decimals uint    `json:"decimals"`
}

func (m Measurement) MarshalJSON() ([]byte, error) {
	return json.Marshal(rawMeasurement{
		Value:    m.value,
		Units:    m.units,
		Decimals: m.decimals,
	})
}

func (m *Measurement) UnmarshalJSON(b []byte) error {
	var raw rawMeasurement
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*m = New(raw.Value, raw.Units, raw.Decimals)
	return nil
}
