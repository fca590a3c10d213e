// Package logic contains the pure windowing and command rules of the plug.
// This package has NO external dependencies (no GPIO, network, OS, or time.Sleep).
package logic

// DefaultThreshold is the number of ticks in one averaging window.
const DefaultThreshold = 10

// Command is a decoded remote actuator command.
type Command int

const (
	CommandNone Command = iota
	CommandEnable
	CommandDisable
)

func (c Command) String() string {
	switch c {
	case CommandEnable:
		return "ENABLE"
	case CommandDisable:
		return "DISABLE"
	default:
		return "NONE"
	}
}

// Window is the result of a completed averaging window.
type Window struct {
	Average uint32 // Sum / Ticks, remainder discarded
	Sum     uint32
	Ticks   uint32 // counter snapshot that closed the window
}
