package events

import "encoding/json"

// Event name constants
const (
	BatteryRefreshed     = "battery.refreshed"
	BatteryRefreshFailed = "battery.refresh_failed"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// BatteryRefreshedEvent is the typed payload for battery.refreshed.
type BatteryRefreshedEvent struct {
	Index   int     `json:"index"`
	Percent float32 `json:"percent"`
	State   string  `json:"state"`
	Forced  bool    `json:"forced"`
	Ts      int64   `json:"ts"`
}

// BatteryRefreshFailedEvent is the typed payload for battery.refresh_failed.
type BatteryRefreshFailedEvent struct {
	Index int    `json:"index"`
	Error string `json:"error"`
	Ts    int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
//	payload, err := events.DecodeAs[events.BatteryRefreshedEvent](ev)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
