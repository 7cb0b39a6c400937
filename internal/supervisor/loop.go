package supervisor

import (
	"errors"
	"time"

	"example.com/heart/internal/sysiface"
	"example.com/heart/internal/wire"
)

// Logger is the minimal logging seam the loop needs.
type Logger interface {
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)    {}
func (nopLogger) Warningf(string, ...any) {}
func (nopLogger) Errorf(string, ...any)   {}

// Snoozer is satisfied by *signalintake.Snooze; declared here rather
// than imported to avoid a dependency from the state machine onto the
// signal-plumbing package.
type Snoozer interface {
	TestAndClear() bool
	Request()
}

// Deps bundles every capability seam the loop needs.
type Deps struct {
	Clock     sysiface.Clock
	Frames    sysiface.FrameIO
	Watchdog  sysiface.WatchdogIO
	Selector  sysiface.Selector
	Snooze    Snoozer
	Reboot    sysiface.Rebooter
	Pid1      Pid1Signaler
	Log       Logger
}

func (d *Deps) Rebooter() sysiface.Rebooter { return d.Reboot }

func (d *Deps) logger() Logger {
	if d.Log == nil {
		return nopLogger{}
	}
	return d.Log
}

// Run executes the supervision loop to completion and returns exactly
// one Reason.
//
// Entry: pet the watchdog once unconditionally, then send the start-up
// ACK immediately after initializing.
func Run(st *State, d Deps) (Reason, error) {
	log := d.logger()

	now, err := d.Clock.Now()
	if err != nil {
		return ReasonError, err
	}
	if err := d.Watchdog.Pet(now); err != nil {
		log.Warningf("initial pet failed: %v", err)
	}
	if err := d.Frames.WriteFrame(wire.OpAck, nil); err != nil {
		return ReasonError, err
	}

	for {
		reason, done, err := iterate(st, d, log)
		if done {
			return reason, err
		}
	}
}

// iterate runs exactly one loop pass. done is true when the loop must
// return reason/err to its caller.
func iterate(st *State, d Deps, log Logger) (reason Reason, done bool, err error) {
	now, err := d.Clock.Now()
	if err != nil {
		return ReasonError, true, err
	}

	// Step 1: consume snooze.
	if d.Snooze != nil && d.Snooze.TestAndClear() {
		if err := d.Watchdog.Pet(now); err != nil {
			log.Warningf("snooze pet failed: %v", err)
		}
		st.InitHandshakeHappened = true
		st.SnoozeEndTime = now + snoozeDuration
		st.LastHeartBeatTime = st.SnoozeEndTime
	}

	// Step 2: compute the wait.
	wait := computeWait(st, d.Watchdog, now)

	// Step 3: wait on stdin readability.
	ready, err := d.Selector.Select(wait)
	if err != nil {
		if errors.Is(err, sysiface.ErrInterrupted) {
			return 0, false, nil // retry the iteration; step 1 observes the flag
		}
		return ReasonError, true, err
	}

	// Step 4: refresh now.
	now, err = d.Clock.Now()
	if err != nil {
		return ReasonError, true, err
	}

	// Step 5: heartbeat deadline.
	if now >= st.LastHeartBeatTime+st.HeartbeatTimeout {
		return ReasonTimeout, true, nil
	}

	// Step 6: handshake deadline.
	if !st.InitHandshakeHappened && st.InitHandshakeTimeout > 0 && now >= st.InitHandshakeEndTime {
		return ReasonTimeout, true, nil
	}

	// Step 7: idle path.
	if !ready {
		if err := d.Watchdog.Pet(now); err != nil {
			log.Warningf("idle pet failed: %v", err)
		}
		return 0, false, nil
	}

	// Step 8: grace path.
	if now < st.SnoozeEndTime || now < st.InitGraceEndTime {
		if err := d.Watchdog.Pet(now); err != nil {
			log.Warningf("grace pet failed: %v", err)
		}
	}

	// Step 9: read and dispatch one frame.
	return dispatch(st, d, log, now)
}

// computeWait derives the next wakeup: max(1, min(heartbeat deadline,
// watchdog pet deadline[, handshake deadline while outstanding]) - now).
func computeWait(st *State, wdt sysiface.WatchdogIO, now sysiface.Seconds) time.Duration {
	heartbeatDeadline := st.LastHeartBeatTime + st.HeartbeatTimeout
	wdtDeadline := wdt.LastPetTime() + sysiface.Seconds(wdt.PetInterval())

	deadline := minSeconds(heartbeatDeadline, wdtDeadline)
	if !st.InitHandshakeHappened && st.InitHandshakeTimeout > 0 {
		deadline = minSeconds(deadline, st.InitHandshakeEndTime)
	}

	remaining := deadline - now
	if remaining < 1 {
		remaining = 1
	}
	return time.Duration(remaining) * time.Second
}

func minSeconds(a, b sysiface.Seconds) sysiface.Seconds {
	if a < b {
		return a
	}
	return b
}

func dispatch(st *State, d Deps, log Logger, now sysiface.Seconds) (Reason, bool, error) {
	f, err := d.Frames.ReadFrame()
	if err != nil {
		if errors.Is(err, wire.ErrClosed) {
			return ReasonClosed, true, nil
		}
		return ReasonError, true, err
	}

	if f.Junk() {
		return 0, false, nil
	}

	switch f.Op {
	case wire.OpHeartBeat:
		if err := d.Watchdog.Pet(now); err != nil {
			log.Warningf("heartbeat pet failed: %v", err)
		}
		if st.LastHeartBeatTime < now {
			st.LastHeartBeatTime = now
		}

	case wire.OpShutDown:
		return ReasonShutDown, true, nil

	case wire.OpSetCmd:
		return applySetCmd(st, d, log, now, f.Body)

	case wire.OpClearCmd:
		if err := d.Frames.WriteFrame(wire.OpAck, nil); err != nil {
			return ReasonError, true, err
		}

	case wire.OpGetCmd:
		if err := writeReport(st, d, now); err != nil {
			return ReasonError, true, err
		}

	case wire.OpPreparingCrash:
		return ReasonCrashing, true, nil

	default:
		// Unknown opcode: ignored.
	}

	return 0, false, nil
}
