package logic

import (
	"fmt"
	"strconv"
)

// Aggregator accumulates raw readings until the tick counter reaches the
// window threshold, then produces an integer average.
type Aggregator struct {
	threshold uint32
	sum       uint32
	readings  int
}

// NewAggregator creates an aggregator closing a window every threshold ticks.
// A threshold below 1 is a programming error.
func NewAggregator(threshold uint32) *Aggregator {
	if threshold < 1 {
		panic(fmt.Sprintf("logic: window threshold must be >= 1, got %d", threshold))
	}
	return &Aggregator{threshold: threshold}
}

// Threshold returns the configured window size in ticks.
func (a *Aggregator) Threshold() uint32 {
	return a.threshold
}

// Complete reports whether a counter snapshot closes the window.
func (a *Aggregator) Complete(ticks uint32) bool {
	return ticks >= a.threshold
}

// Step adds one reading for a consumed signal. ticks is the counter snapshot
// taken under the guard. When ticks reaches the threshold the window closes:
// the returned Window carries the average and the running sum starts over.
// The caller is responsible for clearing the shared counter in that case.
func (a *Aggregator) Step(ticks, reading uint32) (Window, bool) {
	a.sum += reading
	a.readings++
	if !a.Complete(ticks) {
		return Window{}, false
	}

	// ticks >= threshold >= 1, so the divisor is never zero.
	w := Window{Average: a.sum / ticks, Sum: a.sum, Ticks: ticks}
	a.sum = 0
	a.readings = 0
	return w, true
}

// Sum returns the running sum of the open window.
func (a *Aggregator) Sum() uint32 {
	return a.sum
}

// Readings returns how many readings the open window holds.
func (a *Aggregator) Readings() int {
	return a.readings
}

// FormatAverage renders an average as the outbound telemetry payload.
func FormatAverage(avg uint32) string {
	return strconv.FormatUint(uint64(avg), 10)
}
