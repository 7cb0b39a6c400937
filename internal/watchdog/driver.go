// Package watchdog drives the kernel hardware watchdog device. It opens
// the device with bounded retry, negotiates its timeout, pets it, and
// can be detached (forgotten, never closed) so that a "disable" command
// can verify a real hardware reset without ever calling close(2) on the
// fd — see DESIGN.md Open Question 2.
package watchdog

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"example.com/heart/internal/sysiface"
)

const (
	defaultDevicePath = "/dev/watchdog0"
	maxOpenRetries    = 10
	minWDTTimeout     = 2   // kernel's own timer resolution floor
	maxWDTTimeout     = 120 // sanity ceiling
	petTimeoutBuffer  = 10  // seconds; pet this long before expiry when possible
	noWatchdogTimeout = 60 * 60 * 24 * 365

	detachedPetInterval = 60 * 60 * 24 // one day; see Detach
)

// Logger is the minimal logging seam the driver needs; satisfied by
// *elog.Logger without importing it (avoids a needless import cycle
// risk and keeps this package testable with a no-op stub).
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Driver implements sysiface.WatchdogIO against a real Linux watchdog
// character device.
type Driver struct {
	path                  string
	kernelTimeoutOverride int // 0 = let the device pick
	log                   Logger

	fd          int // < 0 means not open
	openRetries int
	timeout     int
	petInterval int
	lastPet     sysiface.Seconds
}

// Config configures a Driver at start-up from environment variables
// (HEART_WATCHDOG_PATH, HEART_KERNEL_TIMEOUT).
type Config struct {
	DevicePath            string
	KernelTimeoutOverride int // seconds, 0 = do not override
	Logger                Logger
}

// New constructs a Driver. It does not open the device yet — the first
// Pet call does, lazily, exactly as heart.c's try_open_watchdog is
// called from pet_watchdog.
func New(cfg Config) *Driver {
	path := cfg.DevicePath
	if path == "" {
		path = defaultDevicePath
	}
	log := cfg.Logger
	if log == nil {
		log = nopLogger{}
	}
	return &Driver{
		path:                  path,
		kernelTimeoutOverride: cfg.KernelTimeoutOverride,
		log:                   log,
		fd:                    -1,
		openRetries:           maxOpenRetries,
		timeout:               2 * petTimeoutBuffer, // default pre-negotiation
		petInterval:           petTimeoutBuffer,
	}
}

// Timeout implements sysiface.WatchdogIO.
func (d *Driver) Timeout() int { return d.timeout }

// PetInterval implements sysiface.WatchdogIO.
func (d *Driver) PetInterval() int { return d.petInterval }

// LastPetTime implements sysiface.WatchdogIO.
func (d *Driver) LastPetTime() sysiface.Seconds { return d.lastPet }

// tryOpen opens the device if it isn't already open and retries remain.
// Every call, successful or not, is one attempt.
func (d *Driver) tryOpen() {
	if d.fd >= 0 || d.openRetries <= 0 {
		return
	}

	fd, err := unix.Open(d.path, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		d.openRetries--
		if d.openRetries <= 0 {
			d.log.Errorf("watchdog: giving up opening %s after %d attempts, running without kernel watchdog: %v", d.path, maxOpenRetries, err)
			d.timeout = noWatchdogTimeout
			d.petInterval = noWatchdogTimeout
		}
		return
	}

	d.fd = fd
	d.negotiateTimeout()
	d.log.Infof("watchdog: activated %s, WDT timeout %ds, pet interval %ds", d.path, d.timeout, d.petInterval)
}

func (d *Driver) negotiateTimeout() {
	if d.kernelTimeoutOverride != 0 {
		if err := d.ioctlSetInt(wdiocSetTimeout, d.kernelTimeoutOverride); err != nil {
			d.log.Errorf("watchdog: failed to set kernel timeout to %ds: %v", d.kernelTimeoutOverride, err)
		}
	}

	real, err := d.ioctlGetInt(wdiocGetTimeout)
	switch {
	case err == nil && real >= minWDTTimeout:
		d.timeout = real
	case err != nil:
		d.log.Errorf("watchdog: error reading WDT timeout, using defaults: %v", err)
	}

	if d.timeout < minWDTTimeout {
		d.timeout = minWDTTimeout
	}
	if d.timeout > maxWDTTimeout {
		d.timeout = maxWDTTimeout
	}

	if d.timeout > 2*petTimeoutBuffer {
		d.petInterval = d.timeout - petTimeoutBuffer
	} else {
		d.petInterval = d.timeout / 2
	}
}

// Pet implements sysiface.WatchdogIO.
func (d *Driver) Pet(now sysiface.Seconds) error {
	d.tryOpen()
	if d.fd < 0 {
		return nil // no watchdog available; not an error
	}

	if _, err := unix.Write(d.fd, []byte{0}); err != nil {
		d.log.Errorf("watchdog: error petting watchdog, will retry open: %v", err)
		unix.Close(d.fd)
		d.fd = -1
		return fmt.Errorf("watchdog: pet: %w", err)
	}
	d.lastPet = now
	return nil
}

// Detach forgets the open device handle without closing it, and widens
// the pet interval so the loop's deadline math is no longer perturbed
// by a watchdog it is no longer responsible for.
func (d *Driver) Detach() {
	d.fd = -1
	d.openRetries = 0
	d.petInterval = detachedPetInterval
}

// Status implements sysiface.WatchdogIO, used by the GET_CMD info
// reporter.
func (d *Driver) Status() sysiface.WatchdogStatus {
	if d.fd < 0 {
		return sysiface.WatchdogStatus{Identity: "none"}
	}

	status := sysiface.WatchdogStatus{Supported: true}

	var info watchdogInfo
	if err := d.ioctlGetSupport(&info); err == nil {
		status.Identity = nullTerminatedString(info.Identity[:])
		status.FirmwareVersion = info.FirmwareVersion
		status.Options = translateOptions(info.Options)
	} else {
		status.Identity = "none"
	}

	if v, err := d.ioctlGetInt(wdiocGetTimeLeft); err == nil {
		status.TimeLeft = v
	}
	if v, err := d.ioctlGetInt(wdiocGetPreTimeout); err == nil {
		status.PreTimeout = v
	}
	if v, err := d.ioctlGetInt(wdiocGetBootStatus); err == nil {
		status.LastBootWatchdog = v != 0
	}

	return status
}

// optionBits pairs each raw kernel WDIOF_* bit with its
// sysiface.WatchdogOptions counterpart. The two sets are declared
// separately (their bit values currently coincide); translating bit by
// bit through this table keeps the report independent of that, and
// drops kernel bits that have no sysiface counterpart.
var optionBits = []struct {
	kernel uint32
	opt    sysiface.WatchdogOptions
}{
	{wdiofOverheat, sysiface.WDIOFOverheat},
	{wdiofFanFault, sysiface.WDIOFFanFault},
	{wdiofExternal1, sysiface.WDIOFExternal1},
	{wdiofExternal2, sysiface.WDIOFExternal2},
	{wdiofPowerUnder, sysiface.WDIOFPowerUnder},
	{wdiofCardReset, sysiface.WDIOFCardReset},
	{wdiofPowerOver, sysiface.WDIOFPowerOver},
	{wdiofSetTimeout, sysiface.WDIOFSetTimeout},
	{wdiofMagicClose, sysiface.WDIOFMagicClose},
	{wdiofPreTimeout, sysiface.WDIOFPreTimeout},
	{wdiofAlarmOnly, sysiface.WDIOFAlarmOnly},
	{wdiofKeepaliveping, sysiface.WDIOFKeepaliveping},
}

// translateOptions converts raw watchdog_info.Options kernel bits into
// sysiface.WatchdogOptions, bit by bit.
func translateOptions(raw uint32) sysiface.WatchdogOptions {
	var out sysiface.WatchdogOptions
	for _, b := range optionBits {
		if raw&b.kernel != 0 {
			out |= b.opt
		}
	}
	return out
}

func (d *Driver) ioctlGetInt(req uintptr) (int, error) {
	var v int32
	if err := d.ioctl(req, unsafe.Pointer(&v)); err != nil {
		return 0, err
	}
	return int(v), nil
}

func (d *Driver) ioctlSetInt(req uintptr, v int) error {
	val := int32(v)
	return d.ioctl(req, unsafe.Pointer(&val))
}

func (d *Driver) ioctlGetSupport(info *watchdogInfo) error {
	return d.ioctl(wdiocGetSupport, unsafe.Pointer(info))
}

func (d *Driver) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func nullTerminatedString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
