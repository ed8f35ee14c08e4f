package config

import "time"

// PollSchedule is the state of the daemon's scheduled refreshes.
type PollSchedule struct {
	Cron    string     `json:"cron"`
	Running bool       `json:"running"`
	NextRun *time.Time `json:"nextRun,omitempty"`
}
