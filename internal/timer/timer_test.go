package timer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sweeney/smartplug/internal/irq"
	"github.com/sweeney/smartplug/internal/logger"
)

func TestSamplerFireCountsAndSignals(t *testing.T) {
	state := irq.NewState(false)
	sig := irq.NewSignal()
	s := NewSampler(time.Second, state, sig)

	s.Fire()
	s.Fire()

	if got := state.Count(); got != 2 {
		t.Errorf("count: got %d, want 2", got)
	}
	if !sig.TryTake() {
		t.Error("expected signal after Fire")
	}
	if sig.TryTake() {
		t.Error("two fires before drain should coalesce")
	}
}

func TestSamplerGatedSkipsSignal(t *testing.T) {
	state := irq.NewState(true)
	sig := irq.NewSignal()
	s := NewSampler(time.Second, state, sig)

	s.Fire()
	if state.Count() != 0 {
		t.Errorf("count while not permitted: got %d, want 0", state.Count())
	}
	if sig.TryTake() {
		t.Error("skipped tick should not raise the signal")
	}

	state.SetPermitted(true)
	s.Fire()
	if state.Count() != 1 {
		t.Errorf("count while permitted: got %d, want 1", state.Count())
	}
	if !sig.TryTake() {
		t.Error("counted tick should raise the signal")
	}
}

func TestSamplerRunUntilCancelled(t *testing.T) {
	state := irq.NewState(false)
	sig := irq.NewSignal()
	s := NewSampler(5*time.Millisecond, state, sig)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for state.Count() < 3 {
		select {
		case <-deadline:
			t.Fatal("sampler did not tick")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestWatchdogExpiresWhenStarved(t *testing.T) {
	fired := make(chan struct{})
	w := NewWatchdog(20*time.Millisecond, RestartFunc(func() { close(fired) }), nil, logger.Discard())
	w.Start()
	defer w.Stop()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not restart a starved loop")
	}
}

func TestWatchdogFedDoesNotExpire(t *testing.T) {
	var restarts atomic.Int32
	w := NewWatchdog(100*time.Millisecond, RestartFunc(func() { restarts.Add(1) }), nil, logger.Discard())
	w.Start()

	for i := 0; i < 20; i++ {
		w.Feed()
		time.Sleep(10 * time.Millisecond)
	}
	w.Stop()

	if restarts.Load() != 0 {
		t.Errorf("fed watchdog restarted %d times", restarts.Load())
	}
	if w.Feeds() != 20 {
		t.Errorf("feeds: got %d, want 20", w.Feeds())
	}
}

func TestWatchdogFeedBeforeStart(t *testing.T) {
	w := NewWatchdog(time.Second, RestartFunc(func() {}), nil, logger.Discard())
	w.Feed()
	if w.Feeds() != 1 {
		t.Errorf("feeds: got %d, want 1", w.Feeds())
	}
}

type fakeKicker struct {
	kicks  int
	closed bool
	err    error
}

func (k *fakeKicker) Kick() error {
	k.kicks++
	return k.err
}

func (k *fakeKicker) Close() error {
	k.closed = true
	return nil
}

func TestWatchdogKicksDevice(t *testing.T) {
	k := &fakeKicker{}
	w := NewWatchdog(time.Second, RestartFunc(func() {}), k, logger.Discard())
	w.Start()

	w.Feed()
	w.Feed()
	k.err = errors.New("device gone")
	w.Feed()

	if k.kicks != 3 {
		t.Errorf("kicks: got %d, want 3", k.kicks)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if !k.closed {
		t.Error("Stop should close the kicker")
	}
}

func TestExitRestarter(t *testing.T) {
	got := -1
	r := &ExitRestarter{Code: 1, exit: func(code int) { got = code }}
	r.Restart()
	if got != 1 {
		t.Errorf("exit code: got %d, want 1", got)
	}
}

func TestNewRestarterUnknownMode(t *testing.T) {
	if _, err := NewRestarter("explode"); err == nil {
		t.Error("expected error for unknown restart mode")
	}
	r, err := NewRestarter(RestartExit)
	if err != nil {
		t.Fatalf("NewRestarter(exit): %v", err)
	}
	if _, ok := r.(*ExitRestarter); !ok {
		t.Errorf("expected *ExitRestarter, got %T", r)
	}
}
