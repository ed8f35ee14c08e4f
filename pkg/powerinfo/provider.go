package powerinfo

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Provider names accepted by New.
const (
	ProviderAuto     = "auto"
	ProviderDistatus = "distatus"
	ProviderSysfs    = "sysfs"
	ProviderUPower   = "upower"
)

// New returns the named Provider. With ProviderAuto it prefers UPower, then
// sysfs, and falls back to distatus, which supports every platform.
func New(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderAuto:
		return detect(), nil
	case ProviderDistatus:
		return NewDistatus(), nil
	case ProviderSysfs:
		return NewSysfs(DefaultSysfsRoot), nil
	case ProviderUPower:
		return NewUPower()
	default:
		return nil, fmt.Errorf("unknown provider %q, must be one of %s, %s, %s, %s",
			name, ProviderAuto, ProviderDistatus, ProviderSysfs, ProviderUPower)
	}
}

func detect() Provider {
	if up, err := NewUPower(); err == nil {
		if handles, err := up.Enumerate(); err == nil && len(handles) > 0 {
			logrus.WithField("provider", ProviderUPower).Debug("detected battery provider")
			return up
		}
		_ = up.Close()
	}

	sysfs := NewSysfs(DefaultSysfsRoot)
	if handles, err := sysfs.Enumerate(); err == nil && len(handles) > 0 {
		logrus.WithField("provider", ProviderSysfs).Debug("detected battery provider")
		return sysfs
	}

	logrus.WithField("provider", ProviderDistatus).Debug("detected battery provider")
	return NewDistatus()
}

// Close releases p if it holds resources.
func Close(p Provider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
