package channel

import "time"

// Heartbeat tracks the ping/pong exchange of a live session. Time is passed
// in so the rules are testable without sleeping.
//
// Every Interval a ping is due. A ping unanswered after Timeout counts as
// missed; MaxMissed consecutive misses mean the session is dead.
type Heartbeat struct {
	Interval  time.Duration
	Timeout   time.Duration
	MaxMissed int

	lastPing time.Time
	awaiting bool
	missed   int
}

// Reset restarts tracking for a fresh session established at now.
func (h *Heartbeat) Reset(now time.Time) {
	h.lastPing = now
	h.awaiting = false
	h.missed = 0
}

// Pong records a pong. Any pong clears the miss count.
func (h *Heartbeat) Pong() {
	h.awaiting = false
	h.missed = 0
}

// Missed returns the consecutive missed pong count.
func (h *Heartbeat) Missed() int {
	return h.missed
}

// Check evaluates the heartbeat at now. ping is true when the caller should
// send a ping now; dead is true when the session must be torn down.
// An Interval of zero disables the heartbeat.
func (h *Heartbeat) Check(now time.Time) (ping, dead bool) {
	if h.Interval <= 0 {
		return false, false
	}

	if h.awaiting && now.Sub(h.lastPing) >= h.Timeout {
		h.awaiting = false
		h.missed++
		if h.MaxMissed > 0 && h.missed >= h.MaxMissed {
			return false, true
		}
	}

	if !h.awaiting && now.Sub(h.lastPing) >= h.Interval {
		h.lastPing = now
		h.awaiting = true
		return true, false
	}
	return false, false
}

// Pacer spaces out reconnect attempts by a fixed interval.
type Pacer struct {
	Interval time.Duration

	last    time.Time
	tried   bool
	attempt int
}

// Ready reports whether an attempt may start at now. The first attempt is
// always ready.
func (p *Pacer) Ready(now time.Time) bool {
	return !p.tried || now.Sub(p.last) >= p.Interval
}

// Attempt records an attempt started at now and returns its 1-based number.
func (p *Pacer) Attempt(now time.Time) int {
	p.last = now
	p.tried = true
	p.attempt++
	return p.attempt
}

// Hold delays the next attempt by a full interval from now, as after a
// session was lost.
func (p *Pacer) Hold(now time.Time) {
	p.last = now
	p.tried = true
}

// Attempts returns the number of attempts since the last success.
func (p *Pacer) Attempts() int {
	return p.attempt
}

// Succeeded resets the attempt counter after a session is established.
func (p *Pacer) Succeeded() {
	p.attempt = 0
}
