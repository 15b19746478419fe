package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu                sync.Mutex
	requestCount      map[string]int64
	requestDurationMs map[string]int64
	errorCount        map[string]int64
	notifications     map[string]int64
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	Requests          map[string]int64 `json:"requests"`
	RequestDurationMs map[string]int64 `json:"request_duration_ms"`
	Errors            map[string]int64 `json:"errors"`
	Notifications     map[string]int64 `json:"notifications"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:      make(map[string]int64),
		requestDurationMs: make(map[string]int64),
		errorCount:        make(map[string]int64),
		notifications:     make(map[string]int64),
	}
}

// RecordRequest counts a request and accumulates its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestDurationMs[key] += duration.Milliseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordNotification counts one delivery attempt on channel.
func (m *Metrics) RecordNotification(channel string, ok bool) {
	if m == nil {
		return
	}
	key := channel + "|failed"
	if ok {
		key = channel + "|delivered"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[key]++
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Requests:          copyCounts(m.requestCount),
		RequestDurationMs: copyCounts(m.requestDurationMs),
		Errors:            copyCounts(m.errorCount),
		Notifications:     copyCounts(m.notifications),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
