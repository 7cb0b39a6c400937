package watchdog

// Linux watchdog ioctl request codes and the watchdog_info structure
// layout, computed the way <linux/watchdog.h> computes them (type 'W',
// the standard asm-generic _IOC encoding) rather than hardcoded magic
// numbers — the same style the teacher repo uses for its KVM ioctl
// constants (core_engine/hypervisor/kvm.go: KVM_CREATE_VM and friends,
// built from shifted bit fields rather than copied hex literals).
const (
	iocNone  = 0
	iocWrite = 1
	iocRead  = 2

	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	watchdogIOCType = 'W'
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<iocDirShift | size<<iocSizeShift | typ<<iocTypeShift | nr<<iocNRShift
}

func ior(nr, size uintptr) uintptr { return ioc(iocRead, watchdogIOCType, nr, size) }
func iowr(nr, size uintptr) uintptr {
	return ioc(iocWrite|iocRead, watchdogIOCType, nr, size)
}

const sizeofInt = 4

// watchdogInfo mirrors struct watchdog_info from <linux/watchdog.h>.
type watchdogInfo struct {
	Options         uint32
	FirmwareVersion uint32
	Identity        [32]byte
}

const sizeofWatchdogInfo = 4 + 4 + 32

var (
	wdiocGetSupport    = ior(0, sizeofWatchdogInfo)
	wdiocGetBootStatus = ior(2, sizeofInt)
	wdiocSetTimeout    = iowr(6, sizeofInt)
	wdiocGetTimeout    = ior(7, sizeofInt)
	wdiocGetPreTimeout = ior(9, sizeofInt)
	wdiocGetTimeLeft   = ior(10, sizeofInt)
)

// Watchdog capability bits from watchdog_info.Options, numbered exactly
// as <linux/watchdog.h> defines WDIOF_*.
const (
	wdiofOverheat      uint32 = 1 << 0
	wdiofFanFault      uint32 = 1 << 1
	wdiofExternal1     uint32 = 1 << 2
	wdiofExternal2     uint32 = 1 << 3
	wdiofPowerUnder    uint32 = 1 << 4
	wdiofCardReset     uint32 = 1 << 5
	wdiofPowerOver     uint32 = 1 << 6
	wdiofSetTimeout    uint32 = 1 << 7
	wdiofMagicClose    uint32 = 1 << 8
	wdiofPreTimeout    uint32 = 1 << 9
	wdiofAlarmOnly     uint32 = 1 << 10
	wdiofKeepaliveping uint32 = 1 << 15
)
