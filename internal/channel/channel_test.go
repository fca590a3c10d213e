package channel

import (
	"errors"
	"sync"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestHeartbeatPingsEveryInterval(t *testing.T) {
	h := Heartbeat{Interval: 5 * time.Second, Timeout: 5 * time.Second, MaxMissed: 1}
	h.Reset(t0)

	if ping, _ := h.Check(t0.Add(4 * time.Second)); ping {
		t.Error("ping should not be due before the interval")
	}
	ping, dead := h.Check(t0.Add(5 * time.Second))
	if !ping || dead {
		t.Fatalf("at interval: got ping=%v dead=%v, want ping=true dead=false", ping, dead)
	}

	h.Pong()
	if ping, _ := h.Check(t0.Add(7 * time.Second)); ping {
		t.Error("next ping should wait a full interval")
	}
	if ping, _ := h.Check(t0.Add(10 * time.Second)); !ping {
		t.Error("second ping should be due one interval after the first")
	}
}

func TestHeartbeatDeadAfterMissedPongs(t *testing.T) {
	h := Heartbeat{Interval: 5 * time.Second, Timeout: 5 * time.Second, MaxMissed: 1}
	h.Reset(t0)

	h.Check(t0.Add(5 * time.Second)) // ping sent
	if _, dead := h.Check(t0.Add(9 * time.Second)); dead {
		t.Error("not dead before the pong timeout")
	}
	if _, dead := h.Check(t0.Add(10 * time.Second)); !dead {
		t.Error("expected dead after one missed pong with MaxMissed=1")
	}
}

func TestHeartbeatToleratesMissesBelowMax(t *testing.T) {
	h := Heartbeat{Interval: time.Second, Timeout: time.Second, MaxMissed: 2}
	h.Reset(t0)

	h.Check(t0.Add(1 * time.Second)) // ping 1
	ping, dead := h.Check(t0.Add(2 * time.Second))
	if dead {
		t.Fatal("first miss should be tolerated")
	}
	if !ping {
		t.Error("a new ping should go out after a tolerated miss")
	}
	if h.Missed() != 1 {
		t.Errorf("missed: got %d, want 1", h.Missed())
	}

	h.Pong()
	if h.Missed() != 0 {
		t.Error("pong should clear the miss count")
	}
}

func TestHeartbeatDisabled(t *testing.T) {
	h := Heartbeat{}
	h.Reset(t0)
	if ping, dead := h.Check(t0.Add(time.Hour)); ping || dead {
		t.Error("zero interval disables the heartbeat")
	}
}

func TestPacer(t *testing.T) {
	p := Pacer{Interval: 5 * time.Second}

	if !p.Ready(t0) {
		t.Fatal("first attempt should be ready")
	}
	if n := p.Attempt(t0); n != 1 {
		t.Errorf("attempt: got %d, want 1", n)
	}
	if p.Ready(t0.Add(4 * time.Second)) {
		t.Error("retry before the interval")
	}
	if !p.Ready(t0.Add(5 * time.Second)) {
		t.Error("retry should be ready after the interval")
	}
	if n := p.Attempt(t0.Add(5 * time.Second)); n != 2 {
		t.Errorf("attempt: got %d, want 2", n)
	}
	p.Succeeded()
	if n := p.Attempt(t0.Add(20 * time.Second)); n != 1 {
		t.Errorf("attempt after success: got %d, want 1", n)
	}
}

func TestQueueDrainPreservesOrder(t *testing.T) {
	var q Queue
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		q.Push(Event{Type: EventConnected})
		q.Push(Event{Type: EventText, Payload: []byte("xt")})
	}()
	wg.Wait()

	if q.Len() != 2 {
		t.Fatalf("len: got %d, want 2", q.Len())
	}
	events := q.Drain()
	if events[0].Type != EventConnected || events[1].Type != EventText {
		t.Errorf("unexpected order: %+v", events)
	}
	if len(q.Drain()) != 0 {
		t.Error("second drain should be empty")
	}
}

func TestFakeChannel(t *testing.T) {
	var got []Event
	f := NewFakeChannel(func(e Event) { got = append(got, e) })

	if err := f.SendText("100"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("send while disconnected: got %v, want ErrNotConnected", err)
	}

	f.Queue(Event{Type: EventConnected})
	f.QueueText("xt")
	f.Poll()

	if !f.Connected() {
		t.Error("expected connected after CONNECTED event")
	}
	if len(got) != 2 {
		t.Fatalf("dispatched: got %d events, want 2", len(got))
	}
	if err := f.SendText("100"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if len(f.Sent) != 1 || f.Sent[0] != "100" {
		t.Errorf("sent: %v", f.Sent)
	}

	f.Close()
	if f.Connected() || !f.Closed {
		t.Error("Close should disconnect and mark closed")
	}
}

func TestStateString(t *testing.T) {
	if StateConnected.String() != "CONNECTED" || StateDisconnected.String() != "DISCONNECTED" || StateConnecting.String() != "CONNECTING" {
		t.Error("unexpected state names")
	}
}

func TestPacerHold(t *testing.T) {
	p := Pacer{Interval: 5 * time.Second}
	p.Hold(t0)
	if p.Ready(t0.Add(time.Second)) {
		t.Error("held pacer should wait a full interval")
	}
	if !p.Ready(t0.Add(5 * time.Second)) {
		t.Error("held pacer should be ready after the interval")
	}
}
