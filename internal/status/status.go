// Package status provides a thread-safe status tracker for the smartplug daemon.
// The control loop writes it; HTTP handlers read snapshots.
package status

import (
	"sync"
	"time"
)

// Config contains daemon configuration for display.
type Config struct {
	SamplePeriodMs int64
	Threshold      uint32
	LoopDelayMs    int64
	WatchdogMs     int64
	Transport      string
	Endpoint       string
	Control        bool
	HTTPAddr       string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Connected bool
	Permitted bool
	Actuator  bool

	LastAverage   uint32
	HaveAverage   bool
	LastWindowAt  time.Time
	WindowsSent   uint64
	WindowsDrop   uint64
	Commands      uint64
	SensorErrors  uint64
	WatchdogFeeds uint64
	LastLoopAt    time.Time

	StartTime time.Time
	Now       time.Time
	Config    Config
}

// LoopStalled reports whether the control loop has not run within one
// watchdog timeout. A loop that has never run counts as stalled.
func (s Snapshot) LoopStalled() bool {
	if s.LastLoopAt.IsZero() {
		return true
	}
	limit := time.Duration(s.Config.WatchdogMs) * time.Millisecond
	return s.Now.Sub(s.LastLoopAt) > limit
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the per-iteration loop state.
func (t *Tracker) Update(connected, permitted, actuator bool, feeds uint64) {
	t.mu.Lock()
	t.snap.Connected = connected
	t.snap.Permitted = permitted
	t.snap.Actuator = actuator
	t.snap.WatchdogFeeds = feeds
	t.snap.LastLoopAt = time.Now()
	t.mu.Unlock()
}

// RecordWindow records a completed averaging window.
func (t *Tracker) RecordWindow(avg uint32, sent bool, at time.Time) {
	t.mu.Lock()
	t.snap.LastAverage = avg
	t.snap.HaveAverage = true
	t.snap.LastWindowAt = at
	if sent {
		t.snap.WindowsSent++
	} else {
		t.snap.WindowsDrop++
	}
	t.mu.Unlock()
}

// RecordCommand counts a decoded command.
func (t *Tracker) RecordCommand() {
	t.mu.Lock()
	t.snap.Commands++
	t.mu.Unlock()
}

// RecordSensorError counts a failed sensor read.
func (t *Tracker) RecordSensorError() {
	t.mu.Lock()
	t.snap.SensorErrors++
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
