// Command heart is the port-program supervisor: it reads a framed
// heartbeat protocol on stdin, pets the kernel hardware watchdog on an
// independently-computed schedule, and reboots the board the moment
// either side of that contract breaks.
//
// Grounded on original_source/src/heart.c's main(): resolve
// configuration, open the logger, run the loop exactly once, then run
// the termination policy on whatever reason it returns.
package main

import (
	"os"

	memlimit "github.com/KimMachineGun/automemlimit/memlimit"
	"go.uber.org/automaxprocs/maxprocs"

	"example.com/heart/internal/clock"
	"example.com/heart/internal/config"
	"example.com/heart/internal/elog"
	"example.com/heart/internal/frameio"
	"example.com/heart/internal/signalintake"
	"example.com/heart/internal/supervisor"
	"example.com/heart/internal/sysreal"
	"example.com/heart/internal/watchdog"
)

func main() {
	os.Exit(run())
}

// run contains everything main would otherwise do directly, so that
// os.Exit is the single, outermost statement in the package (the
// teacher pack's own cmd/ binaries keep the same shape so deferred
// cleanups still execute before exit).
func run() int {
	// Ambient resource tuning: harmless on a board with no cgroup
	// limits, load-bearing on a container host — present in go.mod
	// because the teacher pack's own service binaries carry it.
	undoMaxProcs, err := maxprocs.Set()
	defer undoMaxProcs()
	_ = err // best-effort; GOMAXPROCS simply stays at NumCPU on failure

	if _, err := memlimit.SetGoMemLimitWithOpts(); err != nil {
		// No cgroup memory limit is the common case outside a container;
		// not worth logging before the logger itself exists.
		_ = err
	}

	cfg := config.FromOSEnviron()

	log := elog.New(elog.WithVerbosity(cfg.Verbosity))
	log.Infof("heart starting: %s", cfg.String())

	rt := clock.Real{}
	now, err := rt.Now()
	if err != nil {
		// No monotonic clock means the loop cannot reason about any
		// deadline; there is nothing left to supervise.
		log.Criticalf("monotonic clock unavailable, exiting: %v", err)
		return 1
	}

	st := supervisor.NewState(cfg, now)

	wdt := watchdog.New(watchdog.Config{
		DevicePath:            cfg.WatchdogPath,
		KernelTimeoutOverride: cfg.KernelTimeoutOverride,
		Logger:                log,
	})

	snooze := signalintake.NewSnooze(signalintake.DefaultSignal)
	defer snooze.Stop()

	frames := frameio.Pipe{R: os.Stdin, W: os.Stdout}
	selector := sysreal.Selector{FD: int(os.Stdin.Fd())}
	reboot := sysreal.Rebooter{}
	killer := sysreal.Killer{}
	sleeper := sysreal.Sleeper{}

	deps := supervisor.Deps{
		Clock:    rt,
		Frames:   frames,
		Watchdog: wdt,
		Selector: selector,
		Snooze:   snooze,
		Reboot:   reboot,
		Pid1:     killer,
		Log:      log,
	}

	reason, err := supervisor.Run(st, deps)
	if err != nil {
		log.Errorf("loop exited with error: %v", err)
	}
	log.Infof("loop returned %s", reason)

	endNow, clockErr := rt.Now()
	if clockErr != nil {
		endNow = now
	}

	td := supervisor.TerminateDeps{
		Deps:             deps,
		Killer:           killer,
		Sleeper:          sleeper,
		KillPID:          cfg.KillPID,
		NoKill:           cfg.NoKill,
		KillSignal:       cfg.KillSig,
		CrashDumpWaitEnv: supervisor.CrashDumpSecondsFromEnv,
	}
	supervisor.Terminate(st, td, reason, endNow)

	if reason == supervisor.ReasonShutDown {
		return 0
	}
	// Terminate reboots the board for every other reason; reaching here
	// means the reboot syscall itself failed (e.g. running unprivileged
	// in a test environment, or under a container without CAP_SYS_BOOT).
	log.Criticalf("board failed to reboot after reason %s", reason)
	return 1
}
