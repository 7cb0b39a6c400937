// Package sysreal provides the production implementations of the
// internal/sysiface capability seams, wrapping the real OS primitives
// the supervisor terminates a VM and reboots a board with.
package sysreal

import (
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"example.com/heart/internal/sysiface"
)

// Rebooter drives reboot(2) and sync(2) directly.
type Rebooter struct{}

// Reboot implements sysiface.Rebooter.
func (Rebooter) Reboot(cmd sysiface.RebootCommand) error {
	var magic uintptr
	switch cmd {
	case sysiface.RebootPowerOff:
		magic = unix.LINUX_REBOOT_CMD_POWER_OFF
	default:
		magic = unix.LINUX_REBOOT_CMD_RESTART
	}
	return unix.Reboot(int(magic))
}

// Sync implements sysiface.Rebooter.
func (Rebooter) Sync() { unix.Sync() }

// Killer sends real signals and polls real processes.
type Killer struct{}

// Signal implements sysiface.Killer.
func (Killer) Signal(pid int, sig syscall.Signal) error {
	return unix.Kill(pid, sig)
}

// Alive implements sysiface.Killer using the standard signal-0
// liveness probe: ESRCH means the process is gone, any other error
// (e.g. EPERM) is treated as "still alive, just not ours to signal".
func (Killer) Alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err != unix.ESRCH
}

// Sleeper wraps time.Sleep.
type Sleeper struct{}

// Sleep implements sysiface.Sleeper.
func (Sleeper) Sleep(d time.Duration) { time.Sleep(d) }
