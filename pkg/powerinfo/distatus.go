package powerinfo

import (
	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Distatus reads batteries through github.com/distatus/battery, which
// works on Linux, macOS, Windows and the BSDs. It does not report identity,
// temperature or cycle count.
type Distatus struct {
	getAll func() ([]*battery.Battery, error)
}

var _ Provider = &Distatus{}

// NewDistatus returns a Provider backed by distatus/battery.
func NewDistatus() *Distatus {
	return &Distatus{getAll: battery.GetAll}
}

type distatusHandle struct {
	index int
	bat   *battery.Battery
	err   error
}

// Enumerate implements Provider. The library reads every battery in one
// pass, so each handle carries the result of that pass.
func (d *Distatus) Enumerate() ([]Handle, error) {
	logrus.Trace("enumerating batteries via distatus")

	bats, err := d.getAll()

	var perBattery battery.Errors
	switch e := err.(type) {
	case nil:
	case battery.Errors:
		perBattery = e
	default:
		return nil, pkgerrors.Wrap(err, "failed to get batteries")
	}

	handles := make([]Handle, 0, len(bats))
	for i, bat := range bats {
		h := &distatusHandle{index: i, bat: bat}
		if i < len(perBattery) {
			h.err = perBattery[i]
		}
		handles = append(handles, h)
	}

	return handles, nil
}

func (h *distatusHandle) Read() (*Device, error) {
	if h.err != nil {
		if partial, ok := h.err.(battery.ErrPartial); ok && h.bat != nil {
			// Fields that failed stay zero.
			logrus.WithFields(logrus.Fields{
				"index": h.index,
				"err":   partial.Error(),
			}).Warn("battery reported partially")
		} else {
			return nil, pkgerrors.Wrapf(h.err, "failed to get battery %d", h.index)
		}
	}
	if h.bat == nil {
		return nil, pkgerrors.Errorf("battery %d returned no data", h.index)
	}

	return deviceFromDistatus(h.bat), nil
}

func deviceFromDistatus(bat *battery.Battery) *Device {
	// distatus reports mWh and mW.
	d := &Device{
		Technology:       UnknownTechnology,
		State:            stateFromDistatus(bat.State),
		Energy:           float32(bat.Current / 1000),
		EnergyFull:       float32(bat.Full / 1000),
		EnergyFullDesign: float32(bat.Design / 1000),
		EnergyRate:       float32(bat.ChargeRate / 1000),
		Voltage:          float32(bat.Voltage),
	}
	d.StateOfCharge = ratio(d.Energy, d.EnergyFull)
	d.StateOfHealth = ratio(d.EnergyFull, d.EnergyFullDesign)

	estimateTimes(d)

	return d
}

func stateFromDistatus(s battery.State) State {
	switch s {
	case battery.Charging:
		return Charging
	case battery.Discharging:
		return Discharging
	case battery.Empty:
		return Empty
	case battery.Full:
		return Full
	default:
		return Unknown
	}
}
