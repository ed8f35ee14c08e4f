package daemon

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batteryinfo/pkg/events"
)

// pollBattery refreshes the reading if it is stale and returns its values.
// On error the stale values are returned alongside it.
func pollBattery() (map[string]any, error) {
	readingMu.Lock()
	defer readingMu.Unlock()

	stale := reading.Stale()
	err := reading.Poll()
	if stale {
		publishRefresh(err, false)
	}
	return reading.AsMap(), err
}

// refreshBattery forces a refresh, optionally against another battery index.
func refreshBattery(index *int) (map[string]any, error) {
	readingMu.Lock()
	defer readingMu.Unlock()

	err := refreshLocked(index, true)
	return reading.AsMap(), err
}

// refreshLocked must be called with readingMu held.
func refreshLocked(index *int, forced bool) error {
	var err error
	if index == nil {
		err = reading.Refresh()
	} else {
		err = reading.RefreshIndex(*index)
	}
	publishRefresh(err, forced)
	return err
}

// publishRefresh must be called with readingMu held.
func publishRefresh(err error, forced bool) {
	if err != nil {
		logrus.WithError(err).WithField("index", reading.Index()).Warn("battery refresh failed")
		sseHub.Publish(events.BatteryRefreshFailed, events.BatteryRefreshFailedEvent{
			Index: reading.Index(),
			Error: err.Error(),
			Ts:    time.Now().Unix(),
		})
		return
	}

	snap := reading.Snapshot()
	logrus.WithFields(logrus.Fields{
		"index":   snap.Index,
		"percent": snap.Percent.Formatted(),
		"state":   snap.State,
		"forced":  forced,
	}).Trace("battery refreshed")
	sseHub.Publish(events.BatteryRefreshed, events.BatteryRefreshedEvent{
		Index:   snap.Index,
		Percent: snap.Percent.Value(),
		State:   snap.State.Display(),
		Forced:  forced,
		Ts:      snap.AsOf.Unix(),
	})
}

// pollTask is run by the scheduler on every pollCron tick.
func pollTask() error {
	readingMu.Lock()
	defer readingMu.Unlock()

	return refreshLocked(nil, true)
}
