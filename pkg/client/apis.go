package client

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/batteryinfo/pkg/config"
)

// GetBattery returns the daemon's battery values, keyed like Reading.AsMap.
func (c *Client) GetBattery() (map[string]any, error) {
	ret, err := c.Get("/battery")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get battery")
	}
	return parseMapResponse(ret)
}

// GetField returns a single battery value.
func (c *Client) GetField(field string) (any, error) {
	ret, err := c.Get("/battery/" + field)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get battery field %s", field)
	}

	var v any
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery field %s", field)
	}
	return v, nil
}

// Refresh forces a refresh. A non-nil index switches to that battery.
func (c *Client) Refresh(index *int) (map[string]any, error) {
	data := ""
	if index != nil {
		data = strconv.Itoa(*index)
	}
	ret, err := c.Post("/refresh", data)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to refresh battery")
	}
	return parseMapResponse(ret)
}

func (c *Client) GetRefreshInterval() (time.Duration, error) {
	ret, err := c.Get("/refresh-interval")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get refresh interval")
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(ret), 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to parse refresh interval")
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func (c *Client) SetRefreshInterval(d time.Duration) (string, error) {
	ret, err := c.Put("/refresh-interval", strconv.FormatInt(d.Milliseconds(), 10))
	if err != nil {
		return "", err
	}
	return unquote(ret), nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}

	return &conf, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	var v string
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return v, nil
}

func (c *Client) GetPollSchedule() (*config.PollSchedule, error) {
	ret, err := c.Get("/poll-schedule")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get poll schedule")
	}
	return parsePollSchedule(ret)
}

// SetPollSchedule replaces the daemon's poll cron expression. An empty
// expression disables scheduled polling.
func (c *Client) SetPollSchedule(cronExpr string) (*config.PollSchedule, error) {
	b, err := json.Marshal(cronExpr)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to marshal cron expression")
	}
	ret, err := c.Put("/poll-schedule", string(b))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to set poll schedule")
	}
	return parsePollSchedule(ret)
}

// SkipPollSchedule skips the next scheduled poll.
func (c *Client) SkipPollSchedule() (*config.PollSchedule, error) {
	ret, err := c.Post("/poll-schedule/skip", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to skip next poll")
	}
	return parsePollSchedule(ret)
}

func parsePollSchedule(resp string) (*config.PollSchedule, error) {
	var ps config.PollSchedule
	if err := json.Unmarshal([]byte(resp), &ps); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal poll schedule")
	}
	return &ps, nil
}

func parseMapResponse(resp string) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(resp), &m); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal battery")
	}
	return m, nil
}
