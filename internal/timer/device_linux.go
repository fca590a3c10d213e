//go:build linux

package timer

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// RebootRestarter reboots the machine through the kernel. If the reboot
// syscall fails it falls back to exiting the process.
type RebootRestarter struct {
	fallback *ExitRestarter
}

// NewRebootRestarter checks that the process may reboot the machine.
func NewRebootRestarter() (*RebootRestarter, error) {
	if os.Geteuid() != 0 {
		return nil, fmt.Errorf("reboot restart requires root")
	}
	return &RebootRestarter{fallback: NewExitRestarter()}, nil
}

// Restart implements Restarter.
func (r *RebootRestarter) Restart() {
	unix.Sync()
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART); err != nil {
		fmt.Fprintf(os.Stderr, "reboot: %v\n", err)
	}
	r.fallback.Restart()
}

// DeviceKicker drives a kernel watchdog device such as /dev/watchdog. Once
// opened, the kernel resets the machine if Kick stops being called.
type DeviceKicker struct {
	f *os.File
}

// OpenDeviceKicker opens the device and sets its timeout, rounded up to whole
// seconds.
func OpenDeviceKicker(path string, timeout time.Duration) (*DeviceKicker, error) {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open watchdog device: %w", err)
	}

	secs := int((timeout + time.Second - 1) / time.Second)
	if err := unix.IoctlSetPointerInt(int(f.Fd()), unix.WDIOC_SETTIMEOUT, secs); err != nil {
		f.Close()
		return nil, fmt.Errorf("set watchdog timeout %ds: %w", secs, err)
	}
	return &DeviceKicker{f: f}, nil
}

// Kick implements Kicker.
func (k *DeviceKicker) Kick() error {
	if err := unix.IoctlSetInt(int(k.f.Fd()), unix.WDIOC_KEEPALIVE, 0); err != nil {
		return fmt.Errorf("watchdog keepalive: %w", err)
	}
	return nil
}

// Close disarms the device with the magic close character and closes it.
func (k *DeviceKicker) Close() error {
	if _, err := k.f.Write([]byte("V")); err != nil {
		k.f.Close()
		return fmt.Errorf("disarm watchdog: %w", err)
	}
	return k.f.Close()
}
