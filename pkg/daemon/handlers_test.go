package daemon

import (
	"bufio"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlie0129/batteryinfo/pkg/batteryinfo"
	"github.com/charlie0129/batteryinfo/pkg/config"
	"github.com/charlie0129/batteryinfo/pkg/events"
	"github.com/charlie0129/batteryinfo/pkg/powerinfo"
	"github.com/charlie0129/batteryinfo/pkg/utils/ptr"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testDevice(percent float32, state powerinfo.State) *powerinfo.Device {
	return &powerinfo.Device{
		Vendor:           ptr.To("SMP"),
		Model:            ptr.To("bq20z451"),
		Technology:       "Li-ion",
		StateOfCharge:    percent,
		StateOfHealth:    90,
		State:            state,
		Temperature:      ptr.To(float32(25)),
		CycleCount:       ptr.To(uint32(100)),
		Energy:           40,
		EnergyFull:       50,
		EnergyFullDesign: 55,
		EnergyRate:       10,
		Voltage:          12.5,
		TimeToEmpty:      ptr.To(float32(3600)),
	}
}

// setupTestDaemon wires the package state to a Mock provider and returns the
// router. Readings never go stale unless clock is advanced past 500ms.
func setupTestDaemon(t *testing.T, devices ...*powerinfo.Device) (*gin.Engine, *powerinfo.Mock, *testClock) {
	t.Helper()

	mock := powerinfo.NewMock(devices...)
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	conf = config.NewFileFromConfig(&config.RawFileConfig{}, filepath.Join(t.TempDir(), "config.json"))

	opts := append(readingOptions(conf), batteryinfo.WithClock(clock.Now))
	r, err := batteryinfo.Acquire(mock, opts...)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	reading = r
	sseHub = events.NewEventHub()
	scheduler = nil

	return setupRoutes(), mock, clock
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return m
}

func TestGetBattery(t *testing.T) {
	router, mock, clock := setupTestDaemon(t, testDevice(80, powerinfo.Discharging))

	w := doRequest(router, http.MethodGet, "/battery", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /battery = %d: %s", w.Code, w.Body.String())
	}
	m := decodeMap(t, w)
	if m["vendor"] != "SMP" || m["state"] != "discharging" || m["time_to_empty"] != "1 hour" {
		t.Errorf("unexpected battery map: %v", m)
	}
	percent, ok := m["percent"].([]any)
	if !ok || len(percent) != 2 || percent[0] != float64(80) || percent[1] != "%" {
		t.Errorf("percent = %v, want [80 %%]", m["percent"])
	}
	temp, ok := m["temperature"].([]any)
	if !ok || temp[0] != float64(77) || temp[1] != "°F" {
		t.Errorf("temperature = %v, want [77 °F]", m["temperature"])
	}

	// Within the refresh interval the provider is not queried again.
	reads := mock.ReadCalls()
	doRequest(router, http.MethodGet, "/battery", "")
	if mock.ReadCalls() != reads {
		t.Errorf("fresh reading queried the provider")
	}

	mock.SetDevices(testDevice(70, powerinfo.Discharging))
	clock.Advance(500 * time.Millisecond)
	m = decodeMap(t, doRequest(router, http.MethodGet, "/battery", ""))
	if mock.ReadCalls() != reads+1 {
		t.Errorf("ReadCalls() = %d, want %d", mock.ReadCalls(), reads+1)
	}
	if percent := m["percent"].([]any); percent[0] != float64(70) {
		t.Errorf("percent after refresh = %v, want 70", percent[0])
	}
}

func TestGetBattery_RefreshFailure(t *testing.T) {
	router, mock, clock := setupTestDaemon(t, testDevice(80, powerinfo.Discharging))

	mock.SetReadError(0, errors.New("bus error"))
	clock.Advance(time.Second)

	w := doRequest(router, http.MethodGet, "/battery", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("GET /battery = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "bus error") {
		t.Errorf("body %q should mention the provider error", w.Body.String())
	}

	// The stale values survive the failure.
	mock.SetReadError(0, nil)
	readingMu.Lock()
	snap := reading.Snapshot()
	readingMu.Unlock()
	if snap.Percent.Value() != 80 {
		t.Errorf("percent = %v, want stale 80", snap.Percent.Value())
	}
}

func TestGetBatteryField(t *testing.T) {
	router, _, _ := setupTestDaemon(t, testDevice(80, powerinfo.Charging))

	tests := []struct {
		field    string
		wantCode int
		want     string
	}{
		{"state", http.StatusOK, `"charging"`},
		{"cycle_count", http.StatusOK, `"100"`},
		{"battery_index", http.StatusOK, `0`},
		{"serial_number", http.StatusOK, `""`},
		{"time_to_full", http.StatusOK, `""`},
		{"nope", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/battery/"+tt.field, "")
			if w.Code != tt.wantCode {
				t.Fatalf("GET /battery/%s = %d, want %d", tt.field, w.Code, tt.wantCode)
			}
			if tt.want != "" && strings.TrimSpace(w.Body.String()) != tt.want {
				t.Errorf("GET /battery/%s = %s, want %s", tt.field, w.Body.String(), tt.want)
			}
		})
	}
}

func TestPostRefresh(t *testing.T) {
	router, mock, _ := setupTestDaemon(t,
		testDevice(80, powerinfo.Discharging),
		&powerinfo.Device{Model: ptr.To("second"), StateOfCharge: 30, State: powerinfo.Full},
	)

	mock.SetDevices(
		&powerinfo.Device{Vendor: ptr.To("other"), StateOfCharge: 60, State: powerinfo.Charging},
		&powerinfo.Device{Model: ptr.To("second"), StateOfCharge: 30, State: powerinfo.Full},
	)

	w := doRequest(router, http.MethodPost, "/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /refresh = %d: %s", w.Code, w.Body.String())
	}
	m := decodeMap(t, w)
	// Identity is kept on a plain refresh.
	if m["vendor"] != "SMP" || m["state"] != "charging" {
		t.Errorf("unexpected map after refresh: %v", m)
	}

	w = doRequest(router, http.MethodPost, "/refresh", "1")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /refresh 1 = %d: %s", w.Code, w.Body.String())
	}
	m = decodeMap(t, w)
	if m["battery_index"] != float64(1) || m["model"] != "second" || m["vendor"] != "" {
		t.Errorf("unexpected map after rebind: %v", m)
	}

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"out of range", "2", http.StatusBadRequest},
		{"negative", "-1", http.StatusBadRequest},
		{"not a number", `"x"`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/refresh", tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("POST /refresh %s = %d, want %d", tt.body, w.Code, tt.wantCode)
			}
		})
	}

	readingMu.Lock()
	defer readingMu.Unlock()
	if reading.Index() != 1 {
		t.Errorf("failed refresh should keep index 1, got %d", reading.Index())
	}
}

func TestPostRefresh_NoBatteries(t *testing.T) {
	router, mock, _ := setupTestDaemon(t, testDevice(80, powerinfo.Discharging))
	mock.SetDevices()

	w := doRequest(router, http.MethodPost, "/refresh", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("POST /refresh = %d, want 404", w.Code)
	}
}

func TestRefreshInterval(t *testing.T) {
	router, _, _ := setupTestDaemon(t, testDevice(80, powerinfo.Discharging))

	w := doRequest(router, http.MethodGet, "/refresh-interval", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "500" {
		t.Fatalf("GET /refresh-interval = %d %s, want 200 500", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodPut, "/refresh-interval", "2000")
	if w.Code != http.StatusCreated {
		t.Fatalf("PUT /refresh-interval = %d: %s", w.Code, w.Body.String())
	}
	if conf.RefreshInterval() != 2*time.Second {
		t.Errorf("config refresh interval = %v, want 2s", conf.RefreshInterval())
	}

	w = doRequest(router, http.MethodGet, "/refresh-interval", "")
	if strings.TrimSpace(w.Body.String()) != "2000" {
		t.Errorf("GET /refresh-interval = %s, want 2000", w.Body.String())
	}

	w = doRequest(router, http.MethodPut, "/refresh-interval", "-1")
	if w.Code != http.StatusBadRequest {
		t.Errorf("PUT /refresh-interval -1 = %d, want 400", w.Code)
	}
}

func TestGetConfig(t *testing.T) {
	router, _, _ := setupTestDaemon(t, testDevice(80, powerinfo.Discharging))

	w := doRequest(router, http.MethodGet, "/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /config = %d", w.Code)
	}
	var raw config.RawFileConfig
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode config: %v", err)
	}
	if raw.TimeFormat == nil || *raw.TimeFormat != "Human" {
		t.Errorf("timeFormat = %v, want Human", raw.TimeFormat)
	}
}

func TestApplyConfig(t *testing.T) {
	setupTestDaemon(t, testDevice(80, powerinfo.Discharging), testDevice(20, powerinfo.Charging))

	conf.SetTempUnit(batteryinfo.Celsius)
	conf.SetBatteryIndex(1)
	applyConfig()

	readingMu.Lock()
	defer readingMu.Unlock()
	if reading.Index() != 1 {
		t.Fatalf("Index() = %d, want 1", reading.Index())
	}
	snap := reading.Snapshot()
	if snap.Temperature == nil || snap.Temperature.Units() != "°C" {
		t.Errorf("temperature = %v, want °C", snap.Temperature)
	}
}

func TestStreamEvents(t *testing.T) {
	router, _, _ := setupTestDaemon(t, testDevice(80, powerinfo.Discharging))
	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	if err != nil {
		t.Fatalf("GET /events error = %v", err)
	}
	defer resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for sseHub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("event stream did not subscribe")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if w := doRequest(router, http.MethodPost, "/refresh", ""); w.Code != http.StatusOK {
		t.Fatalf("POST /refresh = %d", w.Code)
	}

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	var name, data string
	for data == "" {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed early")
			}
			if v, found := strings.CutPrefix(line, "event:"); found {
				name = strings.TrimSpace(v)
			}
			if v, found := strings.CutPrefix(line, "data:"); found {
				data = strings.TrimSpace(v)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no event received")
		}
	}

	if name != events.BatteryRefreshed {
		t.Fatalf("event = %q, want %q", name, events.BatteryRefreshed)
	}
	var payload events.BatteryRefreshedEvent
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("failed to decode payload %q: %v", data, err)
	}
	if !payload.Forced || payload.Percent != 80 || payload.State != "discharging" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestPollTask(t *testing.T) {
	_, mock, _ := setupTestDaemon(t, testDevice(80, powerinfo.Discharging))
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	mock.SetReadError(0, errors.New("gone"))
	if err := pollTask(); err == nil {
		t.Fatalf("pollTask() should surface the provider error")
	}

	ev := <-ch
	if ev.Name != events.BatteryRefreshFailed {
		t.Fatalf("event = %q, want %q", ev.Name, events.BatteryRefreshFailed)
	}
	payload, err := events.DecodeAs[events.BatteryRefreshFailedEvent](ev)
	if err != nil {
		t.Fatalf("DecodeAs() error = %v", err)
	}
	if !strings.Contains(payload.Error, "gone") {
		t.Errorf("payload error = %q", payload.Error)
	}
}

func TestGetVersion(t *testing.T) {
	router, _, _ := setupTestDaemon(t, testDevice(80, powerinfo.Discharging))
	w := doRequest(router, http.MethodGet, "/version", "")
	if w.Code != http.StatusOK || !strings.HasPrefix(strings.TrimSpace(w.Body.String()), `"`) {
		t.Fatalf("GET /version = %d %s", w.Code, w.Body.String())
	}
}

func TestApplyConfig_BadIndexKeepsBattery(t *testing.T) {
	router, _, _ := setupTestDaemon(t, testDevice(80, powerinfo.Discharging), testDevice(20, powerinfo.Charging))

	conf.SetBatteryIndex(5)
	applyConfig()

	readingMu.Lock()
	idx := reading.Index()
	readingMu.Unlock()
	if idx != 0 {
		t.Fatalf("Index() = %d, want 0", idx)
	}
	if conf.BatteryIndex() != idx {
		t.Errorf("config battery index = %d, want %d", conf.BatteryIndex(), idx)
	}

	w := doRequest(router, http.MethodGet, "/config", "")
	var raw config.RawFileConfig
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode config: %v", err)
	}
	if raw.BatteryIndex == nil || *raw.BatteryIndex != 0 {
		t.Errorf("GET /config batteryIndex = %v, want 0", raw.BatteryIndex)
	}
}

func startTestScheduler(t *testing.T, cronExpr string) {
	t.Helper()

	s := NewScheduler(pollTask, nil)
	if err := s.Schedule(cronExpr); err != nil {
		t.Fatalf("Schedule(%q) error = %v", cronExpr, err)
	}
	s.Start()
	t.Cleanup(s.Stop)
	scheduler = s
}

func decodePollSchedule(t *testing.T, w *httptest.ResponseRecorder) config.PollSchedule {
	t.Helper()
	var ps config.PollSchedule
	if err := json.Unmarshal(w.Body.Bytes(), &ps); err != nil {
		t.Fatalf("failed to decode poll schedule %q: %v", w.Body.String(), err)
	}
	return ps
}

func TestPollSchedule_NoScheduler(t *testing.T) {
	router, _, _ := setupTestDaemon(t, testDevice(80, powerinfo.Discharging))

	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/poll-schedule", ""},
		{http.MethodPut, "/poll-schedule", `"@every 1h"`},
		{http.MethodPost, "/poll-schedule/skip", ""},
	} {
		if w := doRequest(router, req.method, req.path, req.body); w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s = %d, want 503", req.method, req.path, w.Code)
		}
	}
}

func TestPollSchedule(t *testing.T) {
	router, _, _ := setupTestDaemon(t, testDevice(80, powerinfo.Discharging))
	startTestScheduler(t, "")

	w := doRequest(router, http.MethodGet, "/poll-schedule", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /poll-schedule = %d: %s", w.Code, w.Body.String())
	}
	ps := decodePollSchedule(t, w)
	if ps.Cron != "" || ps.NextRun != nil || !ps.Running {
		t.Errorf("GET /poll-schedule = %+v, want running with no next run", ps)
	}

	w = doRequest(router, http.MethodPost, "/poll-schedule/skip", "")
	if w.Code != http.StatusConflict {
		t.Errorf("POST /poll-schedule/skip without schedule = %d, want 409", w.Code)
	}

	w = doRequest(router, http.MethodPut, "/poll-schedule", `"@every 1h"`)
	if w.Code != http.StatusCreated {
		t.Fatalf("PUT /poll-schedule = %d: %s", w.Code, w.Body.String())
	}
	ps = decodePollSchedule(t, w)
	if ps.Cron != "@every 1h" || ps.NextRun == nil {
		t.Fatalf("PUT /poll-schedule = %+v", ps)
	}
	first := *ps.NextRun

	if err := conf.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if conf.PollCron() != "@every 1h" {
		t.Errorf("saved pollCron = %q, want @every 1h", conf.PollCron())
	}

	w = doRequest(router, http.MethodPost, "/poll-schedule/skip", "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST /poll-schedule/skip = %d: %s", w.Code, w.Body.String())
	}
	ps = decodePollSchedule(t, w)
	if ps.NextRun == nil || !ps.NextRun.Equal(first.Add(time.Hour)) {
		t.Errorf("next run after skip = %v, want %v", ps.NextRun, first.Add(time.Hour))
	}

	w = doRequest(router, http.MethodGet, "/poll-schedule", "")
	if got := decodePollSchedule(t, w); got.NextRun == nil || !got.NextRun.Equal(*ps.NextRun) {
		t.Errorf("GET /poll-schedule next run = %v, want %v", got.NextRun, ps.NextRun)
	}

	w = doRequest(router, http.MethodPut, "/poll-schedule", `"not a cron"`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("PUT /poll-schedule invalid = %d, want 400", w.Code)
	}
	if conf.PollCron() != "@every 1h" {
		t.Errorf("pollCron = %q after invalid PUT, want unchanged", conf.PollCron())
	}

	w = doRequest(router, http.MethodPut, "/poll-schedule", `""`)
	if w.Code != http.StatusCreated {
		t.Fatalf("PUT /poll-schedule empty = %d: %s", w.Code, w.Body.String())
	}
	if ps := decodePollSchedule(t, w); ps.Cron != "" || ps.NextRun != nil {
		t.Errorf("PUT /poll-schedule empty = %+v, want disabled", ps)
	}
}
