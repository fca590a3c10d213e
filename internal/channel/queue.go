package channel

import "sync"

// Queue collects events produced on transport goroutines until the next Poll
// drains them. It is unbounded; transports produce at most a handful of
// events between polls.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// Push appends an event. Safe from any goroutine.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// Drain removes and returns all queued events in arrival order.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	out := q.events
	q.events = nil
	q.mu.Unlock()
	return out
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
