// Package control runs the main control loop: it feeds the watchdog, drives
// the actuator from the permitted flag, polls the channel, and turns consumed
// sampling signals into averaged telemetry.
//
// Everything here runs on one goroutine. The sampling goroutine only touches
// irq.State and the signal.
package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/smartplug/internal/channel"
	"github.com/sweeney/smartplug/internal/gpio"
	"github.com/sweeney/smartplug/internal/irq"
	"github.com/sweeney/smartplug/internal/logger"
	"github.com/sweeney/smartplug/internal/logic"
	"github.com/sweeney/smartplug/internal/sensor"
	"github.com/sweeney/smartplug/internal/status"
)

// Watchdog is fed once per iteration.
type Watchdog interface {
	Feed()
	Feeds() uint64
}

// Taker is the loop side of the cross-context signal.
type Taker interface {
	TryTake() bool
}

// Config wires the loop's collaborators. Actuator nil selects the
// telemetry-only variant. Tracker may be nil.
type Config struct {
	Watchdog   Watchdog
	State      *irq.State
	Signal     Taker
	Aggregator *logic.Aggregator
	Sensor     sensor.Reader
	Actuator   gpio.Writer
	Channel    channel.Channel
	Tracker    *status.Tracker
	Log        *logger.Logger
}

// Loop is the main control loop.
type Loop struct {
	wd       Watchdog
	state    *irq.State
	signal   Taker
	agg      *logic.Aggregator
	sensor   sensor.Reader
	actuator gpio.Writer
	ch       channel.Channel
	tracker  *status.Tracker
	log      *logger.Logger
	now      func() time.Time

	control bool
	active  bool
}

// New creates a loop and registers it as the channel's event handler.
func New(cfg Config) *Loop {
	l := &Loop{
		wd:       cfg.Watchdog,
		state:    cfg.State,
		signal:   cfg.Signal,
		agg:      cfg.Aggregator,
		sensor:   cfg.Sensor,
		actuator: cfg.Actuator,
		ch:       cfg.Channel,
		tracker:  cfg.Tracker,
		log:      cfg.Log,
		now:      time.Now,
		control:  cfg.Actuator != nil,
	}
	if l.log == nil {
		l.log = logger.Discard()
	}
	l.ch.SetHandler(l.HandleEvent)
	return l
}

// Control reports whether this is the control-capable variant.
func (l *Loop) Control() bool {
	return l.control
}

// Active returns the level last driven onto the actuator.
func (l *Loop) Active() bool {
	return l.active
}

// Run calls Step on every tick until ctx is cancelled.
func (l *Loop) Run(ctx context.Context, tick <-chan time.Time) error {
	l.log.Infof("started: control=%v threshold=%d", l.control, l.agg.Threshold())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			l.Step()
		}
	}
}

// Step runs one iteration. The order is fixed: feed the watchdog, drive the
// actuator, poll the channel, then consume at most one sampling signal.
func (l *Loop) Step() {
	l.wd.Feed()

	if l.control {
		l.driveActuator()
	}

	l.ch.Poll()

	if l.signal.TryTake() {
		l.sample()
	}

	if l.tracker != nil {
		l.tracker.Update(l.ch.Connected(), l.state.Permitted(), l.active, l.wd.Feeds())
	}
}

// driveActuator writes the level every iteration, changed or not.
func (l *Loop) driveActuator() {
	permitted := l.state.Permitted()
	if err := l.actuator.Write(permitted); err != nil {
		l.log.Warnf("actuator write: %v", err)
		return
	}
	if permitted != l.active {
		l.log.Infof("actuator %s", onOff(permitted))
	}
	l.active = permitted
}

func (l *Loop) sample() {
	reading, err := l.sensor.Read()
	if err != nil {
		l.log.Warnf("sensor read: %v", err)
		if l.tracker != nil {
			l.tracker.RecordSensorError()
		}
		return
	}

	// A zero snapshot means a lagging window already claimed this signal's
	// tick; the reading still joins the next window.
	ticks, _ := l.state.Take(l.agg.Threshold())
	w, done := l.agg.Step(ticks, reading)
	if !done {
		l.log.Debugf("reading %d (tick %d/%d)", reading, ticks, l.agg.Threshold())
		return
	}
	l.publish(w)
}

// publish sends a completed window while connected and drops it otherwise.
func (l *Loop) publish(w logic.Window) {
	text := logic.FormatAverage(w.Average)
	sent := false
	if l.ch.Connected() {
		if err := l.ch.SendText(text); err != nil {
			l.log.Warnf("send average %s: %v", text, err)
		} else {
			sent = true
		}
	}

	if sent {
		l.log.Infof("average %s over %d ticks sent", text, w.Ticks)
	} else {
		l.log.Infof("average %s over %d ticks dropped", text, w.Ticks)
	}
	if l.tracker != nil {
		l.tracker.RecordWindow(w.Average, sent, l.now())
	}
}

// HandleEvent is the channel handler. It runs inside Poll.
func (l *Loop) HandleEvent(e channel.Event) {
	switch e.Type {
	case channel.EventConnected:
		l.log.Debugf("channel up: %s", e.Payload)
	case channel.EventDisconnected:
		l.log.Debugf("channel down: %s", e.Payload)
	case channel.EventText:
		if !l.control {
			return
		}
		cmd := logic.DecodeCommand(e.Payload)
		if cmd == logic.CommandNone {
			return
		}
		l.state.SetPermitted(cmd.Apply(l.state.Permitted()))
		l.log.Infof("command %s", cmd)
		if l.tracker != nil {
			l.tracker.RecordCommand()
		}
	case channel.EventBinary:
		l.log.Debugf("binary message ignored (%d bytes)", len(e.Payload))
	}
}

// Close drives the actuator inactive and releases the channel and hardware.
func (l *Loop) Close() error {
	var errs []error
	if l.actuator != nil {
		if err := l.actuator.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close actuator: %w", err))
		}
		l.active = false
	}
	if err := l.ch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close channel: %w", err))
	}
	if err := l.sensor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close sensor: %w", err))
	}
	return errors.Join(errs...)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
