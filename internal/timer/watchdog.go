package timer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/smartplug/internal/logger"
)

// Restarter forces a device restart. Restart is not expected to return.
type Restarter interface {
	Restart()
}

// RestartFunc adapts a function to Restarter.
type RestartFunc func()

// Restart calls f.
func (f RestartFunc) Restart() { f() }

// Kicker is an optional external watchdog (e.g. /dev/watchdog) kicked on
// every feed.
type Kicker interface {
	Kick() error
	Close() error
}

// Watchdog is a single-shot timer re-armed by Feed. If it is not fed within
// the timeout it logs and restarts the device.
type Watchdog struct {
	timeout time.Duration
	restart Restarter
	kicker  Kicker
	log     *logger.Logger

	mu    sync.Mutex
	timer *time.Timer
	feeds atomic.Uint64
}

// NewWatchdog creates a disarmed watchdog. kicker may be nil.
func NewWatchdog(timeout time.Duration, restart Restarter, kicker Kicker, l *logger.Logger) *Watchdog {
	return &Watchdog{
		timeout: timeout,
		restart: restart,
		kicker:  kicker,
		log:     l,
	}
}

// Start arms the watchdog.
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		return
	}
	w.timer = time.AfterFunc(w.timeout, w.expire)
}

// Feed re-arms the timeout. It must be called at least once per loop iteration.
func (w *Watchdog) Feed() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Reset(w.timeout)
	}
	w.mu.Unlock()

	w.feeds.Add(1)
	if w.kicker != nil {
		if err := w.kicker.Kick(); err != nil {
			w.log.Warnf("kick: %v", err)
		}
	}
}

// Feeds returns how many times the watchdog has been fed.
func (w *Watchdog) Feeds() uint64 {
	return w.feeds.Load()
}

// Timeout returns the configured timeout.
func (w *Watchdog) Timeout() time.Duration {
	return w.timeout
}

// Stop disarms the watchdog and releases the external kicker, if any.
func (w *Watchdog) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if w.kicker != nil {
		return w.kicker.Close()
	}
	return nil
}

// expire runs on the timer goroutine. It takes no locks.
func (w *Watchdog) expire() {
	w.log.Errorf("watchdog: reboot...")
	w.restart.Restart()
}
