package logic

// CommandIndex is the payload position carrying the command byte.
const CommandIndex = 1

const (
	cmdEnable  = 't'
	cmdDisable = 'f'
)

// DecodeCommand inspects a text payload. Payloads too short to carry a
// command byte, or with any other byte at CommandIndex, decode to CommandNone.
func DecodeCommand(payload []byte) Command {
	if len(payload) <= CommandIndex {
		return CommandNone
	}
	switch payload[CommandIndex] {
	case cmdEnable:
		return CommandEnable
	case cmdDisable:
		return CommandDisable
	default:
		return CommandNone
	}
}

// Apply returns the permitted flag after cmd, given the current value.
func (c Command) Apply(permitted bool) bool {
	switch c {
	case CommandEnable:
		return true
	case CommandDisable:
		return false
	default:
		return permitted
	}
}
