package irq

// Poster is the handler-side half of a Signal.
type Poster interface {
	Post()
}

// Signal is a binary permit. Posts made before the consumer drains it are
// coalesced into one.
type Signal struct {
	c chan struct{}
}

// NewSignal returns an empty signal.
func NewSignal() *Signal {
	return &Signal{c: make(chan struct{}, 1)}
}

// Post raises the signal. It never blocks and is a no-op if already raised.
func (s *Signal) Post() {
	select {
	case s.c <- struct{}{}:
	default:
	}
}

// TryTake consumes a pending signal and reports whether there was one.
// It never blocks.
func (s *Signal) TryTake() bool {
	select {
	case <-s.c:
		return true
	default:
		return false
	}
}
