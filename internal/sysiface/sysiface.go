// Package sysiface declares the capability seams between the
// supervision loop and the operating system: clock, frame I/O,
// watchdog I/O, rebooter, killer, sleeper, and selector. Routing every
// syscall through one of these small interfaces keeps the core testable
// with hand-written fakes instead of real syscalls, the same property
// original_source/tests/heart_test/c_src/heart_fixture.c gets in C by
// replacing libc symbols at link time.
package sysiface

import (
	"syscall"
	"time"

	"example.com/heart/internal/wire"
)

// Seconds is a monotonic timestamp, in whole seconds since an
// unspecified epoch fixed at process start.
type Seconds int64

// Clock supplies the monotonic time source the loop composes every
// deadline from.
type Clock interface {
	// Now returns the current monotonic time. A non-nil error means the
	// clock source is unavailable — fatal to the board, since the loop
	// cannot reason about deadlines with no clock.
	Now() (Seconds, error)
}

// FrameIO is the blocking, length-prefixed wire protocol over the
// supervisor's stdin/stdout.
type FrameIO interface {
	ReadFrame() (wire.Frame, error)
	WriteFrame(op wire.Opcode, body []byte) error
}

// WatchdogOptions reports static watchdog device capabilities for the
// info reporter. Each constant is its own bit, independent of any
// kernel ABI numbering — the watchdog package is responsible for
// translating a real device's raw capability bits into these.
type WatchdogOptions uint32

const (
	WDIOFOverheat WatchdogOptions = 1 << iota
	WDIOFFanFault
	WDIOFExternal1
	WDIOFExternal2
	WDIOFPowerUnder
	WDIOFCardReset
	WDIOFPowerOver
	WDIOFSetTimeout
	WDIOFMagicClose
	WDIOFPreTimeout
	WDIOFAlarmOnly
	WDIOFKeepaliveping WatchdogOptions = 1 << 15
)

// WatchdogStatus is a point-in-time snapshot of the watchdog device, as
// reported by the GET_CMD info reply.
type WatchdogStatus struct {
	Identity         string
	FirmwareVersion  uint32
	Options          WatchdogOptions
	TimeLeft         int
	PreTimeout       int
	LastBootWatchdog bool
	Supported        bool // false when no watchdog device is open
}

// WatchdogIO drives the kernel hardware watchdog.
type WatchdogIO interface {
	// Pet writes a keepalive byte to the device, opening it (subject to
	// retry) if it is not already open. now is recorded as the last pet
	// time on success.
	Pet(now Seconds) error

	// Detach forgets the open device handle without closing it — some
	// kernels disarm or reset the watchdog on close(2), which a
	// supervisor trying to prove a real hardware reset must avoid.
	Detach()

	// Timeout is the kernel watchdog's own negotiated timeout, in
	// seconds.
	Timeout() int

	// PetInterval is the derived interval at which Pet should be
	// called to stay ahead of Timeout.
	PetInterval() int

	// LastPetTime is the monotonic time of the last successful pet.
	LastPetTime() Seconds

	// Status reports device capabilities for the info reporter.
	Status() WatchdogStatus
}

// RebootCommand identifies a kernel reboot(2) action.
type RebootCommand int

const (
	RebootRestart RebootCommand = iota
	RebootPowerOff
)

// Rebooter terminates the board.
type Rebooter interface {
	Reboot(cmd RebootCommand) error
	Sync()
}

// Killer signals and polls the supervised VM process.
type Killer interface {
	// Signal sends sig to pid. A nil error means the signal was
	// delivered; implementations report process-not-found the same way
	// syscall.Kill does (via syscall.ESRCH).
	Signal(pid int, sig syscall.Signal) error
	// Alive polls pid with signal 0, the standard liveness probe.
	Alive(pid int) bool
}

// Sleeper is the one blocking primitive used outside the main select
// wait, inside the kill-retry sequence.
type Sleeper interface {
	Sleep(d time.Duration)
}

// Selector blocks on stdin readability for up to timeout. It reports
// ready=true when data is available to read, ready=false on an idle
// timeout, and a non-nil error for any select failure other than an
// interrupting signal, which the caller is expected to retry.
type Selector interface {
	Select(timeout time.Duration) (ready bool, err error)
}

// ErrInterrupted is returned by Selector.Select when the wait was
// interrupted by a delivered signal rather than timing out or becoming
// ready; the loop retries in this case instead of treating it as a
// hard error.
var ErrInterrupted = errInterrupted{}

type errInterrupted struct{}

func (errInterrupted) Error() string { return "sysiface: select interrupted by signal" }
