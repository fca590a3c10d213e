// Package timer provides the two time sources of the plug: the periodic
// sampling tick and the watchdog that restarts the device when the control
// loop stops feeding it.
package timer

import (
	"context"
	"time"

	"github.com/sweeney/smartplug/internal/irq"
)

// Sampler fires a handler at a fixed period from its own goroutine. The
// handler only counts the tick and raises the signal; it never reads the
// sensor or touches the network.
type Sampler struct {
	period time.Duration
	ticker irq.Ticker
	poster irq.Poster
}

// NewSampler creates a sampler. It receives only the tick-counting and
// signal-posting capabilities of the shared state.
func NewSampler(period time.Duration, ticker irq.Ticker, poster irq.Poster) *Sampler {
	return &Sampler{period: period, ticker: ticker, poster: poster}
}

// Fire runs the handler body once. A tick skipped by gating raises no signal.
func (s *Sampler) Fire() {
	if s.ticker.Tick() {
		s.poster.Post()
	}
}

// Run fires every period until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) error {
	tk := time.NewTicker(s.period)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
			s.Fire()
		}
	}
}
