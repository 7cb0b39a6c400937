package supervisor

import (
	"os"
	"strconv"
	"syscall"
	"time"

	"example.com/heart/internal/sysiface"
)

// TerminateDeps bundles the capability seams the termination policy
// needs beyond those already in Deps.
type TerminateDeps struct {
	Deps
	Killer           sysiface.Killer
	Sleeper          sysiface.Sleeper
	KillPID          int
	NoKill           bool
	KillSignal       syscall.Signal // SIGKILL unless HEART_KILL_SIGNAL=SIGABRT
	CrashDumpWaitEnv func() (seconds int, ok bool)
}

const killRetryLimit = 5
const closedPollLimit = 5

// Terminate runs the termination policy for the reason the loop
// returned. It never returns for the reboot/poweroff paths in practice
// (Reboot ends the process), but returns normally so callers (and
// tests) can observe what would have happened next.
func Terminate(st *State, td TerminateDeps, reason Reason, now sysiface.Seconds) {
	log := td.logger()

	switch reason {
	case ReasonShutDown:
		if err := td.Watchdog.Pet(now); err != nil {
			log.Warningf("shutdown pet failed: %v", err)
		}
		return

	case ReasonCrashing:
		if err := td.Watchdog.Pet(now); err != nil {
			log.Warningf("crashing pet failed: %v", err)
		}
		if seconds, ok := td.CrashDumpWaitEnv(); ok && seconds > 0 {
			waitForCrashDump(td, seconds)
		}
		// fall through to the reboot path.
	}

	td.Reboot.Sync()
	killVM(td, reason)
	if err := td.Reboot.Reboot(sysiface.RebootRestart); err != nil {
		log.Errorf("reboot(RESTART) failed: %v", err)
	}
}

// waitForCrashDump blocks up to seconds waiting for stdin to close or
// deliver data, mirroring heart.c's ERL_CRASH_DUMP_SECONDS handling.
func waitForCrashDump(td TerminateDeps, seconds int) {
	_, _ = td.Selector.Select(time.Duration(seconds) * time.Second)
}

// killVM implements the kill policy.
func killVM(td TerminateDeps, reason Reason) {
	log := td.logger()

	if td.NoKill || td.KillPID == 0 {
		return
	}

	if reason == ReasonClosed {
		for i := 0; i < closedPollLimit; i++ {
			if !td.Killer.Alive(td.KillPID) {
				return
			}
			td.Sleeper.Sleep(time.Second)
		}
	}

	sig := td.KillSignal
	if sig == 0 {
		sig = syscall.SIGKILL
	}
	for i := 0; i < killRetryLimit; i++ {
		if !td.Killer.Alive(td.KillPID) {
			return
		}
		if err := td.Killer.Signal(td.KillPID, sig); err != nil {
			log.Warningf("signal %d to pid %d failed: %v", sig, td.KillPID, err)
		}
		td.Sleeper.Sleep(time.Second)
	}
}

// CrashDumpSecondsFromEnv reads ERL_CRASH_DUMP_SECONDS.
func CrashDumpSecondsFromEnv() (int, bool) {
	v, ok := os.LookupEnv("ERL_CRASH_DUMP_SECONDS")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
