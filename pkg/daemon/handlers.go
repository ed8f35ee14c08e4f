package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batteryinfo/pkg/batteryinfo"
	"github.com/charlie0129/batteryinfo/pkg/config"
	"github.com/charlie0129/batteryinfo/pkg/version"
)

// statusForError maps acquisition errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, batteryinfo.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, batteryinfo.ErrNoBatteriesFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, code int, err error) {
	c.IndentedJSON(code, err.Error())
	_ = c.AbortWithError(code, err)
}

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getBattery(c *gin.Context) {
	m, err := pollBattery()
	if err != nil {
		logrus.Errorf("getBattery failed: %v", err)
		abortWithError(c, statusForError(err), err)
		return
	}

	c.IndentedJSON(http.StatusOK, m)
}

func getBatteryField(c *gin.Context) {
	field := c.Param("field")

	m, err := pollBattery()
	if err != nil {
		logrus.Errorf("getBatteryField failed: %v", err)
		abortWithError(c, statusForError(err), err)
		return
	}

	v, ok := m[field]
	if !ok {
		abortWithError(c, http.StatusNotFound, fmt.Errorf("unknown field %q, must be one of %s", field, strings.Join(batteryinfo.MapKeys, ", ")))
		return
	}

	c.IndentedJSON(http.StatusOK, v)
}

func postRefresh(c *gin.Context) {
	b, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}

	// An empty body refreshes the bound battery.
	var index *int
	if len(strings.TrimSpace(string(b))) > 0 {
		var i int
		if err := json.Unmarshal(b, &i); err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid battery index: %w", err))
			return
		}
		if i < 0 {
			abortWithError(c, http.StatusBadRequest, fmt.Errorf("battery index must not be negative, got %d", i))
			return
		}
		index = &i
	}

	m, err := refreshBattery(index)
	if err != nil {
		abortWithError(c, statusForError(err), err)
		return
	}

	logrus.WithField("index", m["battery_index"]).Info("battery refreshed on request")

	c.IndentedJSON(http.StatusOK, m)
}

func getRefreshInterval(c *gin.Context) {
	readingMu.Lock()
	d := reading.RefreshInterval()
	readingMu.Unlock()

	c.IndentedJSON(http.StatusOK, d.Milliseconds())
}

func setRefreshInterval(c *gin.Context) {
	var ms int64
	if err := c.BindJSON(&ms); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	if ms < 0 {
		abortWithError(c, http.StatusBadRequest, fmt.Errorf("refresh interval must not be negative, got %d", ms))
		return
	}

	d := time.Duration(ms) * time.Millisecond
	readingMu.Lock()
	reading.SetRefreshInterval(d)
	readingMu.Unlock()

	conf.SetRefreshInterval(d)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	logrus.Infof("set refresh interval to %s", d)

	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("set refresh interval to %s", d))
}

func pollScheduleStatus() config.PollSchedule {
	ps := config.PollSchedule{Cron: conf.PollCron()}
	next, running := scheduler.Status()
	ps.Running = running
	if !next.IsZero() {
		ps.NextRun = &next
	}
	return ps
}

func requireScheduler(c *gin.Context) bool {
	if scheduler == nil {
		abortWithError(c, http.StatusServiceUnavailable, errors.New("scheduler is not running"))
		return false
	}
	return true
}

func getPollSchedule(c *gin.Context) {
	if !requireScheduler(c) {
		return
	}
	c.IndentedJSON(http.StatusOK, pollScheduleStatus())
}

// setPollSchedule replaces the poll cron expression. An empty string
// disables scheduled polling.
func setPollSchedule(c *gin.Context) {
	if !requireScheduler(c) {
		return
	}

	var expr string
	if err := c.BindJSON(&expr); err != nil {
		c.IndentedJSON(http.StatusBadRequest, err.Error())
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return
	}
	expr = strings.TrimSpace(expr)

	if expr != "" {
		if _, err := config.CronParser.Parse(expr); err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid cron expression %q: %w", expr, err))
			return
		}
	}

	conf.SetPollCron(expr)
	if err := conf.Save(); err != nil {
		logrus.Errorf("saveConfig failed: %v", err)
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	if err := scheduler.Schedule(expr); err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	if expr == "" {
		logrus.Info("scheduled polling disabled")
	} else {
		logrus.WithField("pollCron", expr).Info("scheduled polling updated")
	}

	c.IndentedJSON(http.StatusCreated, pollScheduleStatus())
}

func skipPollSchedule(c *gin.Context) {
	if !requireScheduler(c) {
		return
	}

	if err := scheduler.Skip(); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrNoActiveSchedule) {
			code = http.StatusConflict
		}
		abortWithError(c, code, err)
		return
	}

	ps := pollScheduleStatus()
	logrus.WithField("nextRun", ps.NextRun).Info("skipped next scheduled poll")

	c.IndentedJSON(http.StatusOK, ps)
}

func streamEvents(c *gin.Context) {
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	// Send headers now so clients see the stream before the first event.
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(_ io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
