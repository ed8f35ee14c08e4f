package batteryinfo

import (
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batteryinfo/pkg/measurement"
	"github.com/charlie0129/batteryinfo/pkg/powerinfo"
	"github.com/charlie0129/batteryinfo/pkg/utils/ptr"
)

// State is the charging state of a battery.
type State = powerinfo.State

// Battery states.
const (
	Unknown     = powerinfo.Unknown
	Charging    = powerinfo.Charging
	Discharging = powerinfo.Discharging
	Empty       = powerinfo.Empty
	Full        = powerinfo.Full
)

// Defaults used by Acquire.
const (
	DefaultTimeFormat      = Human
	DefaultTempUnit        = Fahrenheit
	DefaultRefreshInterval = 500 * time.Millisecond
)

const displayDecimals = 1

// identity never changes after acquisition.
type identity struct {
	index        int
	vendor       *string
	model        *string
	serialNumber *string
	technology   string
}

// volatile is replaced as a whole on every refresh.
type volatile struct {
	percentFull      measurement.Measurement
	state            State
	capacity         measurement.Measurement
	temperature      *measurement.Measurement
	cycleCount       *uint32
	energy           measurement.Measurement
	energyFull       measurement.Measurement
	energyFullDesign measurement.Measurement
	energyRate       measurement.Measurement
	voltage          measurement.Measurement
	timeToEmpty      *string
	timeToFull       *string
}

// Reading is a cached view of one battery. Reads of volatile fields refresh
// the cache from the provider once RefreshInterval has elapsed.
//
// A Reading is not safe for concurrent use. Callers sharing one across
// goroutines must serialize access themselves.
type Reading struct {
	provider powerinfo.Provider
	now      func() time.Time

	id   identity
	snap volatile

	timeFormat      TimeFormat
	tempUnit        TempUnit
	refreshInterval time.Duration

	lastRefresh time.Time
}

// Option configures Acquire.
type Option func(*options)

type options struct {
	index           int
	timeFormat      TimeFormat
	tempUnit        TempUnit
	refreshInterval time.Duration
	now             func() time.Time
}

// WithIndex selects the battery by its 0-based index.
func WithIndex(i int) Option {
	return func(o *options) { o.index = i }
}

// WithTimeFormat sets how time estimates are rendered.
func WithTimeFormat(f TimeFormat) Option {
	return func(o *options) { o.timeFormat = f }
}

// WithTempUnit sets the temperature unit.
func WithTempUnit(u TempUnit) Option {
	return func(o *options) { o.tempUnit = u }
}

// WithRefreshInterval sets how old the cached values may get before a read
// queries the provider again.
func WithRefreshInterval(d time.Duration) Option {
	return func(o *options) { o.refreshInterval = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Acquire queries p and returns a Reading for one battery. It fails with
// ErrNoBatteriesFound, ErrIndexOutOfRange or a *ProviderError; no partially
// initialized Reading is ever returned.
func Acquire(p powerinfo.Provider, opts ...Option) (*Reading, error) {
	o := options{
		timeFormat:      DefaultTimeFormat,
		tempUnit:        DefaultTempUnit,
		refreshInterval: DefaultRefreshInterval,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Reading{
		provider:        p,
		now:             o.now,
		timeFormat:      o.timeFormat,
		tempUnit:        o.tempUnit,
		refreshInterval: o.refreshInterval,
	}

	id, snap, err := r.query(o.index)
	if err != nil {
		return nil, err
	}
	r.id = id
	r.snap = snap
	r.lastRefresh = r.now()

	logrus.WithFields(logrus.Fields{
		"index":      id.index,
		"technology": id.technology,
		"timeFormat": r.timeFormat,
		"tempUnit":   r.tempUnit,
		"interval":   r.refreshInterval,
	}).Debug("battery acquired")

	return r, nil
}

// query fetches battery index from the provider and converts it into the
// configured display units.
func (r *Reading) query(index int) (identity, volatile, error) {
	if r.provider == nil {
		return identity{}, volatile{}, &ProviderError{Op: "get provider", Err: pkgerrors.New("provider is nil")}
	}

	handles, err := r.provider.Enumerate()
	if err != nil {
		return identity{}, volatile{}, &ProviderError{Op: "enumerate batteries", Err: err}
	}
	if len(handles) == 0 {
		return identity{}, volatile{}, ErrNoBatteriesFound
	}
	if index < 0 || index >= len(handles) {
		return identity{}, volatile{}, pkgerrors.Wrapf(ErrIndexOutOfRange, "index %d, found %d batteries", index, len(handles))
	}

	dev, err := handles[index].Read()
	if err != nil {
		return identity{}, volatile{}, &ProviderError{Op: "get battery", Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"index": index,
		"state": dev.State,
	}).Trace("battery queried")

	id := identity{
		index:        index,
		vendor:       trimmed(dev.Vendor),
		model:        trimmed(dev.Model),
		serialNumber: trimmed(dev.SerialNumber),
		technology:   strings.TrimSpace(dev.Technology),
	}

	return id, r.convert(dev), nil
}

func (r *Reading) convert(dev *powerinfo.Device) volatile {
	v := volatile{
		percentFull:      measurement.New(dev.StateOfCharge, measurement.PercentUnit, displayDecimals),
		state:            dev.State,
		capacity:         measurement.New(dev.StateOfHealth, measurement.PercentUnit, displayDecimals),
		energy:           measurement.New(dev.Energy, "Wh", displayDecimals),
		energyFull:       measurement.New(dev.EnergyFull, "Wh", displayDecimals),
		energyFullDesign: measurement.New(dev.EnergyFullDesign, "Wh", displayDecimals),
		energyRate:       measurement.New(dev.EnergyRate, "W", displayDecimals),
		voltage:          measurement.New(dev.Voltage, "V", displayDecimals),
	}

	if dev.Temperature != nil {
		t := measurement.New(convertTemperature(*dev.Temperature, r.tempUnit), r.tempUnit.Symbol(), displayDecimals)
		v.temperature = &t
	}
	if dev.CycleCount != nil {
		v.cycleCount = ptr.To(*dev.CycleCount)
	}
	if dev.TimeToEmpty != nil {
		v.timeToEmpty = ptr.To(formatTime(*dev.TimeToEmpty, r.timeFormat))
	}
	if dev.TimeToFull != nil {
		v.timeToFull = ptr.To(formatTime(*dev.TimeToFull, r.timeFormat))
	}

	return v
}

// trimmed trims surrounding whitespace. An empty result stays present.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return ptr.To(strings.TrimSpace(*s))
}

func cloned[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return ptr.To(*p)
}

// Stale reports whether RefreshInterval has elapsed since the last refresh.
func (r *Reading) Stale() bool {
	return r.now().Sub(r.lastRefresh) >= r.refreshInterval
}

// RefreshIfNeeded refreshes the cached values if they are stale. On error
// the previous values are kept.
func (r *Reading) RefreshIfNeeded() error {
	if !r.Stale() {
		return nil
	}
	return r.Refresh()
}

// Poll is RefreshIfNeeded. Call it before reading Snapshot to make the I/O
// explicit at the call site.
func (r *Reading) Poll() error {
	return r.RefreshIfNeeded()
}

// Refresh queries the bound battery regardless of the refresh interval and
// replaces every volatile value. Identity and configuration are untouched.
// On error the previous values are kept.
func (r *Reading) Refresh() error {
	_, snap, err := r.query(r.id.index)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"index": r.id.index,
			"err":   err,
		}).Debug("battery refresh failed")
		return err
	}

	r.snap = snap
	r.lastRefresh = r.now()

	return nil
}

// RefreshIndex forces a refresh against battery index. Refreshing another
// battery than the bound one rebinds the Reading: index and identity are
// replaced together with the volatile values, so they always describe the
// same device. On error nothing changes.
func (r *Reading) RefreshIndex(index int) error {
	if index == r.id.index {
		return r.Refresh()
	}

	id, snap, err := r.query(index)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"from": r.id.index,
		"to":   index,
	}).Info("battery rebound")

	r.id = id
	r.snap = snap
	r.lastRefresh = r.now()

	return nil
}

// Index returns the 0-based index of the bound battery.
func (r *Reading) Index() int { return r.id.index }

// Vendor returns the manufacturer, or nil if the hardware does not report it.
func (r *Reading) Vendor() *string { return cloned(r.id.vendor) }

// Model returns the model name, or nil if the hardware does not report it.
func (r *Reading) Model() *string { return cloned(r.id.model) }

// SerialNumber returns the serial number, or nil if the hardware does not report it.
func (r *Reading) SerialNumber() *string { return cloned(r.id.serialNumber) }

// Technology returns the battery chemistry, e.g. "Li-ion".
func (r *Reading) Technology() string { return r.id.technology }

func (r *Reading) TimeFormat() TimeFormat { return r.timeFormat }

// SetTimeFormat changes the time format. It applies from the next refresh.
func (r *Reading) SetTimeFormat(f TimeFormat) { r.timeFormat = f }

func (r *Reading) TempUnit() TempUnit { return r.tempUnit }

// SetTempUnit changes the temperature unit. It applies from the next refresh.
func (r *Reading) SetTempUnit(u TempUnit) { r.tempUnit = u }

func (r *Reading) RefreshInterval() time.Duration { return r.refreshInterval }

func (r *Reading) SetRefreshInterval(d time.Duration) { r.refreshInterval = d }

// Percent returns the state of charge.
func (r *Reading) Percent() (measurement.Measurement, error) {
	if err := r.RefreshIfNeeded(); err != nil {
		return measurement.Measurement{}, err
	}
	return r.snap.percentFull, nil
}

// State returns the charging state.
func (r *Reading) State() (State, error) {
	if err := r.RefreshIfNeeded(); err != nil {
		return Unknown, err
	}
	return r.snap.state, nil
}

// Capacity returns the state of health.
func (r *Reading) Capacity() (measurement.Measurement, error) {
	if err := r.RefreshIfNeeded(); err != nil {
		return measurement.Measurement{}, err
	}
	return r.snap.capacity, nil
}

// Temperature returns the temperature in the configured unit, or nil if the
// hardware does not report one.
func (r *Reading) Temperature() (*measurement.Measurement, error) {
	if err := r.RefreshIfNeeded(); err != nil {
		return nil, err
	}
	return cloned(r.snap.temperature), nil
}

// CycleCount returns the charge cycle count, or nil if the hardware does not
// report one.
func (r *Reading) CycleCount() (*uint32, error) {
	if err := r.RefreshIfNeeded(); err != nil {
		return nil, err
	}
	return cloned(r.snap.cycleCount), nil
}

func (r *Reading) Energy() (measurement.Measurement, error) {
	if err := r.RefreshIfNeeded(); err != nil {
		return measurement.Measurement{}, err
	}
	return r.snap.energy, nil
}

func (r *Reading) EnergyFull() (measurement.Measurement, error) {
	if err := r.RefreshIfNeeded(); err != nil {
		return measurement.Measurement{}, err
	}
	return r.snap.energyFull, nil
}

func (r *Reading) EnergyFullDesign() (measurement.Measurement, error) {
	if err := r.RefreshIfNeeded(); err != nil {
		return measurement.Measurement{}, err
	}
	return r.snap.energyFullDesign, nil
}

func (r *Reading) EnergyRate() (measurement.Measurement, error) {
	if err := r.RefreshIfNeeded(); err != nil {
		return measurement.Measurement{}, err
	}
	return r.snap.energyRate, nil
}

func (r *Reading) Voltage() (measurement.Measurement, error) {
	if err := r.RefreshIfNeeded(); err != nil {
		return measurement.Measurement{}, err
	}
	return r.snap.voltage, nil
}

// TimeToEmpty returns the formatted time until empty, or nil without an estimate.
func (r *Reading) TimeToEmpty() (*string, error) {
	if err := r.RefreshIfNeeded(); err != nil {
		return nil, err
	}
	return cloned(r.snap.timeToEmpty), nil
}

// TimeToFull returns the formatted time until full, or nil without an estimate.
func (r *Reading) TimeToFull() (*string, error) {
	if err := r.RefreshIfNeeded(); err != nil {
		return nil, err
	}
	return cloned(r.snap.timeToFull), nil
}
