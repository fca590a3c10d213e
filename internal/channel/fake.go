package channel

// FakeChannel records sent payloads and replays scripted events on Poll.
type FakeChannel struct {
	// Sent contains every payload passed to SendText while connected.
	Sent []string

	// Polls counts Poll calls.
	Polls int

	// SendError, if set, is returned by SendText.
	SendError error

	// Closed tracks if Close was called.
	Closed bool

	handler   Handler
	pending   []Event
	connected bool
}

// NewFakeChannel creates a disconnected fake dispatching to h.
func NewFakeChannel(h Handler) *FakeChannel {
	return &FakeChannel{handler: h}
}

// SetHandler replaces the event handler.
func (f *FakeChannel) SetHandler(h Handler) {
	f.handler = h
}

// Queue schedules an event for the next Poll.
func (f *FakeChannel) Queue(e Event) {
	f.pending = append(f.pending, e)
}

// QueueText schedules an inbound text message.
func (f *FakeChannel) QueueText(s string) {
	f.Queue(Event{Type: EventText, Payload: []byte(s)})
}

// Poll applies queued lifecycle events and dispatches everything queued.
func (f *FakeChannel) Poll() {
	f.Polls++
	events := f.pending
	f.pending = nil
	for _, e := range events {
		switch e.Type {
		case EventConnected:
			f.connected = true
		case EventDisconnected:
			f.connected = false
		}
		if f.handler != nil {
			f.handler(e)
		}
	}
}

// Connected implements Channel.
func (f *FakeChannel) Connected() bool {
	return f.connected
}

// SendText records text. Sends while disconnected fail like a real transport.
func (f *FakeChannel) SendText(text string) error {
	if f.SendError != nil {
		return f.SendError
	}
	if !f.connected {
		return ErrNotConnected
	}
	f.Sent = append(f.Sent, text)
	return nil
}

// Close marks the channel closed and disconnected.
func (f *FakeChannel) Close() error {
	f.Closed = true
	f.connected = false
	return nil
}
