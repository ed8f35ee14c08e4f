package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/charlie0129/batteryinfo/pkg/batteryinfo"
	"github.com/charlie0129/batteryinfo/pkg/config"
	"github.com/charlie0129/batteryinfo/pkg/measurement"
	"github.com/charlie0129/batteryinfo/pkg/powerinfo"
)

func parseIntArg(args []string, valueName string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("invalid number of arguments")
	}

	value, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", valueName, err)
	}

	return value, nil
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}

func stateText(s batteryinfo.State) string {
	switch s {
	case powerinfo.Charging, powerinfo.Full:
		return color.New(color.Bold, color.FgGreen).Sprint(s.Display())
	case powerinfo.Discharging:
		return color.New(color.Bold, color.FgYellow).Sprint(s.Display())
	case powerinfo.Empty:
		return color.New(color.Bold, color.FgRed).Sprint(s.Display())
	default:
		return s.Display()
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// formatMapValue renders a value of Reading.AsMap after a JSON round trip.
func formatMapValue(v any) string {
	switch v := v.(type) {
	case []any:
		if len(v) == 2 {
			value, ok1 := v[0].(float64)
			units, ok2 := v[1].(string)
			if ok1 && ok2 {
				s := strconv.FormatFloat(value, 'f', -1, 32)
				if units == measurement.PercentUnit {
					return s + units
				}
				return s + " " + units
			}
		}
	case string:
		if v == "" {
			return "-"
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// printMap prints m in batteryinfo.MapKeys order.
func printMap(w io.Writer, m map[string]any) {
	for _, k := range batteryinfo.MapKeys {
		v, ok := m[k]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%-20s %s\n", k+":", formatMapValue(v))
	}
}

// readingFlags are the flags of commands that read the battery directly.
type readingFlags struct {
	provider   string
	index      int
	timeFormat string
	tempUnit   string
}

func (f *readingFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.provider, "provider", "", "battery provider (auto, distatus, sysfs, upower), defaults to the config file")
	fs.IntVarP(&f.index, "index", "i", 0, "battery index, defaults to the config file")
	fs.StringVar(&f.timeFormat, "time-format", "", "time estimate format (seconds, minutes, human), defaults to the config file")
	fs.StringVar(&f.tempUnit, "temp-unit", "", "temperature unit (celsius, fahrenheit), defaults to the config file")
}

// loadLocalConfig reads the config file, falling back to defaults.
func loadLocalConfig() config.Config {
	c, err := config.NewFile(configPath)
	if err != nil {
		logrus.WithError(err).Debug("failed to load config, using defaults")
		return config.NewFileFromConfig(nil, configPath)
	}
	return c
}

// options merges the config file with the flags set on cmd.
func (f *readingFlags) options(cmd *cobra.Command) (string, []batteryinfo.Option, error) {
	conf := loadLocalConfig()
	fs := cmd.Flags()

	provider := conf.Provider()
	if fs.Changed("provider") {
		provider = f.provider
	}

	index := conf.BatteryIndex()
	if fs.Changed("index") {
		index = f.index
	}

	timeFormat := conf.TimeFormat()
	if fs.Changed("time-format") {
		tf, err := batteryinfo.ParseTimeFormat(f.timeFormat)
		if err != nil {
			return "", nil, err
		}
		timeFormat = tf
	}

	tempUnit := conf.TempUnit()
	if fs.Changed("temp-unit") {
		tu, err := batteryinfo.ParseTempUnit(f.tempUnit)
		if err != nil {
			return "", nil, err
		}
		tempUnit = tu
	}

	return provider, []batteryinfo.Option{
		batteryinfo.WithIndex(index),
		batteryinfo.WithTimeFormat(timeFormat),
		batteryinfo.WithTempUnit(tempUnit),
		batteryinfo.WithRefreshInterval(conf.RefreshInterval()),
	}, nil
}

// acquire reads the battery directly. Call the returned func when done.
func (f *readingFlags) acquire(cmd *cobra.Command, extra ...batteryinfo.Option) (*batteryinfo.Reading, func(), error) {
	name, opts, err := f.options(cmd)
	if err != nil {
		return nil, nil, err
	}

	p, err := powerinfo.New(name)
	if err != nil {
		return nil, nil, err
	}
	closeProvider := func() {
		if err := powerinfo.Close(p); err != nil {
			logrus.WithError(err).Warn("failed to close provider")
		}
	}

	r, err := batteryinfo.Acquire(p, append(opts, extra...)...)
	if err != nil {
		closeProvider()
		return nil, nil, err
	}

	return r, closeProvider, nil
}
