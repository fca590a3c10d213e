// Package irq holds the state shared between the sampling timer goroutine and
// the control loop, and the two primitives that make the handoff safe: a
// critical-section guard and a one-slot signal.
//
// The timer goroutine plays the part of an interrupt handler. It only ever
// receives the narrow Ticker and Poster capabilities, never the State itself.
package irq

import "sync"

// Guard is a non-reentrant critical section. Regions must be short and must
// not block, perform I/O, or enter the guard again.
type Guard struct {
	mu sync.Mutex
}

// Do runs fn with the guard held. The guard is released on every exit path,
// including a panic inside fn.
func (g *Guard) Do(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}
