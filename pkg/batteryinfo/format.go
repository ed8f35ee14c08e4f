package batteryinfo

import (
	"fmt"
	"strings"
)

// TimeFormat selects how time estimates are rendered.
type TimeFormat int

const (
	// Seconds renders "150.0 seconds".
	Seconds TimeFormat = iota
	// Minutes renders "2.5 minutes".
	Minutes
	// Human renders "2 minutes, 30 seconds".
	Human
)

var timeFormatNames = [...]string{"Seconds", "Minutes", "Human"}

func (f TimeFormat) String() string {
	if f < 0 || int(f) >= len(timeFormatNames) {
		return fmt.Sprintf("TimeFormat(%d)", int(f))
	}
	return timeFormatNames[f]
}

// ParseTimeFormat parses a time format name, case-insensitively.
func ParseTimeFormat(s string) (TimeFormat, error) {
	for i, n := range timeFormatNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return TimeFormat(i), nil
		}
	}
	return Human, fmt.Errorf("invalid time format %q, must be one of seconds, minutes, human", s)
}

func (f TimeFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *TimeFormat) UnmarshalText(b []byte) error {
	v, err := ParseTimeFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// TempUnit selects the temperature unit.
type TempUnit int

const (
	// Celsius reports degrees Celsius.
	Celsius TempUnit = iota
	// Fahrenheit reports degrees Fahrenheit.
	Fahrenheit
)

func (u TempUnit) String() string {
	switch u {
	case Celsius:
		return "Celsius"
	case Fahrenheit:
		return "Fahrenheit"
	default:
		return fmt.Sprintf("TempUnit(%d)", int(u))
	}
}

// Symbol returns the unit label used in measurements.
func (u TempUnit) Symbol() string {
	if u == Celsius {
		return "°C"
	}
	return "°F"
}

// ParseTempUnit accepts "celsius", "c", "fahrenheit" or "f".
func ParseTempUnit(s string) (TempUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "celsius", "c", "degc":
		return Celsius, nil
	case "fahrenheit", "f", "degf":
		return Fahrenheit, nil
	default:
		return Fahrenheit, fmt.Errorf("invalid temperature unit %q, must be celsius or fahrenheit", s)
	}
}

func (u TempUnit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *TempUnit) UnmarshalText(b []byte) error {
	v, err := ParseTempUnit(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// convertTemperature converts degrees Celsius into unit.
func convertTemperature(celsius float32, unit TempUnit) float32 {
	if unit == Celsius {
		return celsius
	}
	return celsius*9/5 + 32
}

// formatTime renders a time estimate given in seconds.
func formatTime(seconds float32, f TimeFormat) string {
	switch f {
	case Seconds:
		return fmt.Sprintf("%.1f seconds", seconds)
	case Minutes:
		return fmt.Sprintf("%.1f minutes", seconds/60)
	default:
		if seconds < 0 {
			seconds = 0
		}
		return humanDuration(uint64(seconds))
	}
}

var humanUnits = []struct {
	name    string
	seconds uint64
}{
	{"day", 24 * 60 * 60},
	{"hour", 60 * 60},
	{"minute", 60},
	{"second", 1},
}

// humanDuration renders whole seconds as e.g. "2 hours, 15 minutes".
// Zero components are left out.
func humanDuration(total uint64) string {
	if total == 0 {
		return "0 seconds"
	}

	var parts []string
	for _, u := range humanUnits {
		n := total / u.seconds
		total %= u.seconds
		if n == 0 {
			continue
		}
		if n == 1 {
			parts = append(parts, "1 "+u.name)
		} else {
			parts = append(parts, fmt.Sprintf("%d %ss", n, u.name))
		}
	}

	return strings.Join(parts, ", ")
}
