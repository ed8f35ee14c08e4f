package powerinfo

import (
	"sync"
	"sync/atomic"
)

// Mock is an in-memory Provider with call counters.
type Mock struct {
	mu           sync.Mutex
	devices      []*Device
	enumerateErr error
	readErrs     map[int]error

	enumerateCalls atomic.Int64
	readCalls      atomic.Int64
}

var _ Provider = &Mock{}

// NewMock returns a Mock reporting the given devices.
func NewMock(devices ...*Device) *Mock {
	return &Mock{
		devices:  devices,
		readErrs: make(map[int]error),
	}
}

// SetDevices replaces the reported devices.
func (m *Mock) SetDevices(devices ...*Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = devices
}

// SetEnumerateError makes Enumerate fail with err (nil clears it).
func (m *Mock) SetEnumerateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enumerateErr = err
}

// SetReadError makes reading battery index fail with err (nil clears it).
func (m *Mock) SetReadError(index int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.readErrs, index)
		return
	}
	m.readErrs[index] = err
}

// EnumerateCalls returns how many times Enumerate was called.
func (m *Mock) EnumerateCalls() int {
	return int(m.enumerateCalls.Load())
}

// ReadCalls returns how many times a handle was read.
func (m *Mock) ReadCalls() int {
	return int(m.readCalls.Load())
}

type mockHandle struct {
	m     *Mock
	index int
}

func (m *Mock) Enumerate() ([]Handle, error) {
	m.enumerateCalls.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enumerateErr != nil {
		return nil, m.enumerateErr
	}

	handles := make([]Handle, 0, len(m.devices))
	for i := range m.devices {
		handles = append(handles, &mockHandle{m: m, index: i})
	}
	return handles, nil
}

func (h *mockHandle) Read() (*Device, error) {
	h.m.readCalls.Add(1)

	h.m.mu.Lock()
	defer h.m.mu.Unlock()

	if err := h.m.readErrs[h.index]; err != nil {
		return nil, err
	}
	if h.index >= len(h.m.devices) {
		return nil, ErrBatteryGone
	}

	d := *h.m.devices[h.index]
	return &d, nil
}
