package supervisor

import (
	"bytes"
	"syscall"

	"example.com/heart/internal/sysiface"
	"example.com/heart/internal/wire"
)

// Pid1Signaler sends a signal to the init process (PID 1), used by the
// guarded_* SET_CMD bodies to ask a supervising init to perform the
// actual reboot/poweroff/halt.
type Pid1Signaler interface {
	Signal(pid int, sig syscall.Signal) error
}

// applySetCmd dispatches a SET_CMD body by exact string match, the Go
// equivalent of heart.c's memcmp-against-known-keywords approach. All
// bodies conventionally carry a trailing NUL from the sender.
func applySetCmd(st *State, d Deps, log Logger, now sysiface.Seconds, body []byte) (Reason, bool, error) {
	cmd := trimNUL(body)

	switch cmd {
	case "disable", "disable_hw":
		d.Watchdog.Detach()
		return ack(d)

	case "disable_vm":
		if err := d.Frames.WriteFrame(wire.OpAck, nil); err != nil {
			return ReasonError, true, err
		}
		return ReasonTimeout, true, nil

	case "guarded_reboot":
		petThenDetach(d, log, now)
		signalPid1(d, log, syscall.SIGTERM)
		d.Rebooter().Sync()
		return ack(d)

	case "guarded_immediate_reboot":
		d.Watchdog.Detach()
		if err := d.Rebooter().Reboot(sysiface.RebootRestart); err != nil {
			log.Errorf("guarded_immediate_reboot: %v", err)
		}
		return ReasonShutDown, true, nil

	case "guarded_poweroff":
		petThenDetach(d, log, now)
		signalPid1(d, log, syscall.SIGUSR2)
		d.Rebooter().Sync()
		return ack(d)

	case "guarded_immediate_poweroff":
		d.Watchdog.Detach()
		if err := d.Rebooter().Reboot(sysiface.RebootPowerOff); err != nil {
			log.Errorf("guarded_immediate_poweroff: %v", err)
		}
		return ReasonShutDown, true, nil

	case "guarded_halt":
		petThenDetach(d, log, now)
		signalPid1(d, log, syscall.SIGUSR1)
		d.Rebooter().Sync()
		return ack(d)

	case "init_handshake":
		st.InitHandshakeHappened = true
		return ack(d)

	case "snooze":
		if d.Snooze != nil {
			d.Snooze.Request()
		}
		return ack(d)

	default:
		return ack(d)
	}
}

func ack(d Deps) (Reason, bool, error) {
	if err := d.Frames.WriteFrame(wire.OpAck, nil); err != nil {
		return ReasonError, true, err
	}
	return 0, false, nil
}

func petThenDetach(d Deps, log Logger, now sysiface.Seconds) {
	if err := d.Watchdog.Pet(now); err != nil {
		log.Warningf("pet before detach failed: %v", err)
	}
	d.Watchdog.Detach()
}

func signalPid1(d Deps, log Logger, sig syscall.Signal) {
	sig1 := d.Pid1
	if sig1 == nil {
		return
	}
	if err := sig1.Signal(1, sig); err != nil {
		log.Errorf("signal to pid 1 failed: %v", err)
	}
}

func trimNUL(body []byte) string {
	if i := bytes.IndexByte(body, 0); i >= 0 {
		body = body[:i]
	}
	return string(body)
}
