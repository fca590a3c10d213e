package gpio

import "sync"

// FakeWriter is a test double that records every level written.
type FakeWriter struct {
	mu sync.Mutex

	// Levels holds each value passed to Write, in order.
	Levels []bool

	// WriteError, if set, will be returned by Write()
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeWriter creates an empty FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Write records the level.
func (f *FakeWriter) Write(active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Levels = append(f.Levels, active)
	return nil
}

// Active returns the last level written, false if none.
func (f *FakeWriter) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Levels) == 0 {
		return false
	}
	return f.Levels[len(f.Levels)-1]
}

// Writes returns the number of recorded writes.
func (f *FakeWriter) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Levels)
}

// Close records an inactive level and marks the writer closed.
func (f *FakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Levels = append(f.Levels, false)
	f.Closed = true
	return nil
}

// Reset clears recorded levels.
func (f *FakeWriter) Reset() {
	f.mu.Lock()
	f.Levels = nil
	f.Closed = false
	f.mu.Unlock()
}
