package powerinfo

import (
	"errors"
	"strings"
)

// State represents the charging state of a battery.
type State int

const (
	// Unknown means the hardware did not report a usable state.
	Unknown State = iota
	// Charging indicates the battery is charging.
	Charging
	// Discharging indicates the battery is discharging.
	Discharging
	// Empty indicates the battery is depleted.
	Empty
	// Full indicates the battery is full.
	Full
)

var stateNames = [...]string{"Unknown", "Charging", "Discharging", "Empty", "Full"}

// String returns the symbolic name of the state, e.g. "Charging".
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return stateNames[Unknown]
	}
	return stateNames[s]
}

// Display returns a lower-case form meant for diagnostic output.
func (s State) Display() string {
	switch s {
	case Charging:
		return "charging"
	case Discharging:
		return "discharging"
	case Empty:
		return "empty"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// ParseState parses a state name, case-insensitively. Unrecognized names
// yield Unknown.
func ParseState(name string) State {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return State(i)
		}
	}
	return Unknown
}

// Device is one battery as reported by a Provider, in canonical units.
// Units:
// - StateOfCharge, StateOfHealth: percent (0-100)
// - Temperature: degrees Celsius
// - Energy, EnergyFull, EnergyFullDesign: Wh
// - EnergyRate: W
// - Voltage: V
// - TimeToEmpty, TimeToFull: seconds
//
// Nil pointers mean the hardware reported nothing, which is different from
// reporting zero.
type Device struct {
	Vendor       *string `json:"vendor,omitempty"`
	Model        *string `json:"model,omitempty"`
	SerialNumber *string `json:"serialNumber,omitempty"`
	Technology   string  `json:"technology"`

	StateOfCharge    float32  `json:"stateOfCharge"`
	StateOfHealth    float32  `json:"stateOfHealth"`
	State            State    `json:"state"`
	Temperature      *float32 `json:"temperature,omitempty"`
	CycleCount       *uint32  `json:"cycleCount,omitempty"`
	Energy           float32  `json:"energy"`
	EnergyFull       float32  `json:"energyFull"`
	EnergyFullDesign float32  `json:"energyFullDesign"`
	EnergyRate       float32  `json:"energyRate"`
	Voltage          float32  `json:"voltage"`
	TimeToEmpty      *float32 `json:"timeToEmpty,omitempty"`
	TimeToFull       *float32 `json:"timeToFull,omitempty"`
}

// Handle refers to one attached battery.
type Handle interface {
	// Read queries the hardware for the battery's current attributes.
	Read() (*Device, error)
}

// Provider enumerates the batteries attached to the host.
//
// Every call is synchronous and may block for as long as the underlying
// operating system takes to answer.
type Provider interface {
	// Enumerate returns one handle per attached battery, in a stable order.
	// The result may be empty.
	Enumerate() ([]Handle, error)
}

// UnknownTechnology is reported when the hardware does not name its chemistry.
const UnknownTechnology = "unknown"

// ErrBatteryGone is returned by a Handle whose battery was removed after
// enumeration.
var ErrBatteryGone = errors.New("battery is no longer attached")

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	*s = ParseState(string(b))
	return nil
}
