package irq

// Ticker is the capability handed to the sampling timer handler.
type Ticker interface {
	// Tick counts one sampling tick and reports whether it was counted.
	Tick() bool
}

// State is the cross-context shared state: the sample counter and the
// permitted flag. Every access goes through the guard.
type State struct {
	guard     Guard
	count     uint32
	permitted bool
	gated     bool
}

// NewState returns zeroed shared state. When gated is true, ticks are only
// counted while the permitted flag is set. The flag always starts false.
func NewState(gated bool) *State {
	return &State{gated: gated}
}

// Tick implements Ticker.
func (s *State) Tick() bool {
	counted := false
	s.guard.Do(func() {
		if s.gated && !s.permitted {
			return
		}
		s.count++
		counted = true
	})
	return counted
}

// Count returns a snapshot of the sample counter.
func (s *State) Count() uint32 {
	var n uint32
	s.guard.Do(func() { n = s.count })
	return n
}

// Take returns a snapshot of the sample counter and clears it in the same
// guarded region when the snapshot has reached threshold.
func (s *State) Take(threshold uint32) (ticks uint32, complete bool) {
	s.guard.Do(func() {
		ticks = s.count
		if ticks >= threshold {
			s.count = 0
			complete = true
		}
	})
	return ticks, complete
}

// ResetCount clears the sample counter.
func (s *State) ResetCount() {
	s.guard.Do(func() { s.count = 0 })
}

// Permitted returns a snapshot of the permitted flag.
func (s *State) Permitted() bool {
	var p bool
	s.guard.Do(func() { p = s.permitted })
	return p
}

// SetPermitted stores the permitted flag.
func (s *State) SetPermitted(p bool) {
	s.guard.Do(func() { s.permitted = p })
}

// Gated reports whether tick counting depends on the permitted flag.
func (s *State) Gated() bool {
	return s.gated
}
