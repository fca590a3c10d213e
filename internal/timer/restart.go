package timer

import (
	"fmt"
	"os"
)

// Restart modes.
const (
	RestartExit   = "exit"
	RestartReboot = "reboot"
)

// ExitRestarter exits the process so the supervisor (systemd) starts it again.
type ExitRestarter struct {
	Code int
	exit func(int)
}

// NewExitRestarter returns a restarter exiting with status 1.
func NewExitRestarter() *ExitRestarter {
	return &ExitRestarter{Code: 1, exit: os.Exit}
}

// Restart implements Restarter.
func (r *ExitRestarter) Restart() {
	r.exit(r.Code)
}

// NewRestarter builds the restarter for a mode name.
func NewRestarter(mode string) (Restarter, error) {
	switch mode {
	case RestartExit, "":
		return NewExitRestarter(), nil
	case RestartReboot:
		return NewRebootRestarter()
	default:
		return nil, fmt.Errorf("unknown restart mode %q", mode)
	}
}
