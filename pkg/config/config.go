package config

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batteryinfo/pkg/batteryinfo"
)

type Config interface {
	Provider() string
	BatteryIndex() int
	TimeFormat() batteryinfo.TimeFormat
	TempUnit() batteryinfo.TempUnit
	RefreshInterval() time.Duration
	PollCron() string
	AllowNonRootAccess() bool

	SetBatteryIndex(int)
	SetTimeFormat(batteryinfo.TimeFormat)
	SetTempUnit(batteryinfo.TempUnit)
	SetRefreshInterval(time.Duration)
	SetPollCron(string)
	SetAllowNonRootAccess(bool)

	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
