// Package channel defines the telemetry/command session used by the control
// loop, independent of the transport carrying it.
//
// Transports never invoke handlers from their own goroutines. Lifecycle and
// inbound events are queued and dispatched synchronously from Poll, in the
// caller's goroutine.
package channel

import "errors"

// ErrNotConnected is returned by SendText while the session is down.
var ErrNotConnected = errors.New("channel: not connected")

// State is the session state as seen by the control loop.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "DISCONNECTED"
	}
}

// EventType identifies a session event.
type EventType string

const (
	EventConnected    EventType = "CONNECTED"
	EventDisconnected EventType = "DISCONNECTED"
	EventText         EventType = "TEXT"
	EventBinary       EventType = "BINARY"
)

// Event is a session event. Payload is set for inbound messages; for
// EventConnected it carries the endpoint, for EventDisconnected the reason.
type Event struct {
	Type    EventType
	Payload []byte
}

// Handler receives events from Poll.
type Handler func(Event)

// Channel is a persistent duplex session.
type Channel interface {
	// Poll advances the reconnect and heartbeat machinery and dispatches
	// pending events to the handler. It never blocks for long.
	Poll()

	// Connected reports whether the session is up, as of the last Poll.
	Connected() bool

	// SendText sends a short text payload, fire-and-forget.
	SendText(text string) error

	// SetHandler registers the receiver of dispatched events.
	SetHandler(h Handler)

	// Close tears the session down.
	Close() error
}
