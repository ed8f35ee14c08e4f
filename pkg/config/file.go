package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batteryinfo/pkg/batteryinfo"
	"github.com/charlie0129/batteryinfo/pkg/powerinfo"
	"github.com/charlie0129/batteryinfo/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		Provider:           ptr.To(powerinfo.ProviderAuto),
		BatteryIndex:       ptr.To(0),
		TimeFormat:         ptr.To(batteryinfo.DefaultTimeFormat.String()),
		TempUnit:           ptr.To(batteryinfo.DefaultTempUnit.String()),
		RefreshIntervalMs:  ptr.To(int(batteryinfo.DefaultRefreshInterval / time.Millisecond)),
		PollCron:           ptr.To(""),
		AllowNonRootAccess: ptr.To(false),
	}
)

// CronParser parses PollCron expressions.
var CronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var _ Config = &File{}

// File is a Config stored as JSON, or as TOML when the path ends in ".toml".
type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

type RawFileConfig struct {
	Provider           *string `json:"provider,omitempty" toml:"provider,omitempty"`
	BatteryIndex       *int    `json:"batteryIndex,omitempty" toml:"battery_index,omitempty"`
	TimeFormat         *string `json:"timeFormat,omitempty" toml:"time_format,omitempty"`
	TempUnit           *string `json:"tempUnit,omitempty" toml:"temp_unit,omitempty"`
	RefreshIntervalMs  *int    `json:"refreshIntervalMs,omitempty" toml:"refresh_interval_ms,omitempty"`
	PollCron           *string `json:"pollCron,omitempty" toml:"poll_cron,omitempty"`
	AllowNonRootAccess *bool   `json:"allowNonRootAccess,omitempty" toml:"allow_non_root_access,omitempty"`
}

// Validate checks values that cannot be represented in the Config getters.
func (c *RawFileConfig) Validate() error {
	if c.BatteryIndex != nil && *c.BatteryIndex < 0 {
		return pkgerrors.Errorf("batteryIndex must not be negative, got %d", *c.BatteryIndex)
	}
	if c.TimeFormat != nil {
		if _, err := batteryinfo.ParseTimeFormat(*c.TimeFormat); err != nil {
			return err
		}
	}
	if c.TempUnit != nil {
		if _, err := batteryinfo.ParseTempUnit(*c.TempUnit); err != nil {
			return err
		}
	}
	if c.RefreshIntervalMs != nil && *c.RefreshIntervalMs < 0 {
		return pkgerrors.Errorf("refreshIntervalMs must not be negative, got %d", *c.RefreshIntervalMs)
	}
	if c.PollCron != nil && *c.PollCron != "" {
		if _, err := CronParser.Parse(*c.PollCron); err != nil {
			return pkgerrors.Wrapf(err, "invalid pollCron %q", *c.PollCron)
		}
	}
	return nil
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	rawConfig := &RawFileConfig{
		Provider:           ptr.To(c.Provider()),
		BatteryIndex:       ptr.To(c.BatteryIndex()),
		TimeFormat:         ptr.To(c.TimeFormat().String()),
		TempUnit:           ptr.To(c.TempUnit().String()),
		RefreshIntervalMs:  ptr.To(int(c.RefreshInterval() / time.Millisecond)),
		PollCron:           ptr.To(c.PollCron()),
		AllowNonRootAccess: ptr.To(c.AllowNonRootAccess()),
	}

	return rawConfig, nil
}

func (f *File) Provider() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.Provider, *defaultFileConfig.Provider)
}

func (f *File) BatteryIndex() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.BatteryIndex, *defaultFileConfig.BatteryIndex)
}

func (f *File) TimeFormat() batteryinfo.TimeFormat {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	// Validated on load.
	tf, err := batteryinfo.ParseTimeFormat(ptr.Deref(f.c.TimeFormat, *defaultFileConfig.TimeFormat))
	if err != nil {
		return batteryinfo.DefaultTimeFormat
	}
	return tf
}

func (f *File) TempUnit() batteryinfo.TempUnit {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	tu, err := batteryinfo.ParseTempUnit(ptr.Deref(f.c.TempUnit, *defaultFileConfig.TempUnit))
	if err != nil {
		return batteryinfo.DefaultTempUnit
	}
	return tu
}

func (f *File) RefreshInterval() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return time.Duration(ptr.Deref(f.c.RefreshIntervalMs, *defaultFileConfig.RefreshIntervalMs)) * time.Millisecond
}

func (f *File) PollCron() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.PollCron, *defaultFileConfig.PollCron)
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(f.c.AllowNonRootAccess, *defaultFileConfig.AllowNonRootAccess)
}

func (f *File) SetBatteryIndex(i int) {
	if f.c == nil {
		panic("config is nil")
	}
	if i < 0 {
		panic("battery index must not be negative")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.BatteryIndex = &i
}

func (f *File) SetTimeFormat(tf batteryinfo.TimeFormat) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.TimeFormat = ptr.To(tf.String())
}

func (f *File) SetTempUnit(tu batteryinfo.TempUnit) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.TempUnit = ptr.To(tu.String())
}

func (f *File) SetRefreshInterval(d time.Duration) {
	if f.c == nil {
		panic("config is nil")
	}
	if d < 0 {
		panic("refresh interval must not be negative")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.RefreshIntervalMs = ptr.To(int(d / time.Millisecond))
}

func (f *File) SetPollCron(expr string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.PollCron = &expr
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.AllowNonRootAccess = &b
}

func (f *File) isTOML() bool {
	return strings.EqualFold(filepath.Ext(f.filepath), ".toml")
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	if f.isTOML() {
		err = toml.Unmarshal(b, &conf)
	} else {
		err = json.Unmarshal(b, &conf)
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	if err := conf.Validate(); err != nil {
		return pkgerrors.Wrapf(err, "invalid config in file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	var buf bytes.Buffer
	if f.isTOML() {
		if err := toml.NewEncoder(&buf).Encode(f.c); err != nil {
			return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
		}
	} else {
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f.c); err != nil {
			return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
		}
	}

	if err := os.WriteFile(f.filepath, buf.Bytes(), 0644); err != nil {
		return pkgerrors.Wrapf(err, "failed to write file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"provider":           f.Provider(),
		"batteryIndex":       f.BatteryIndex(),
		"timeFormat":         f.TimeFormat(),
		"tempUnit":           f.TempUnit(),
		"refreshInterval":    f.RefreshInterval(),
		"pollCron":           f.PollCron(),
		"allowNonRootAccess": f.AllowNonRootAccess(),
	}
}
