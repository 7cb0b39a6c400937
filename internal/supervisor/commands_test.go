package supervisor

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/heart/internal/config"
	"example.com/heart/internal/sysiface"
)

func newCmdDeps() (*fakeFrameIO, *fakeWatchdog, *fakeRebooter, *fakeKiller, Deps) {
	frames := &fakeFrameIO{}
	wdt := &fakeWatchdog{timeout: 60, petInterval: 50}
	reboot := &fakeRebooter{}
	killer := &fakeKiller{alive: true}
	d := Deps{
		Frames:   frames,
		Watchdog: wdt,
		Reboot:   reboot,
		Pid1:     killer,
		Log:      fakeLogger{},
	}
	return frames, wdt, reboot, killer, d
}

func TestSetCmdDisableDetachesAndAcks(t *testing.T) {
	frames, wdt, _, _, d := newCmdDeps()
	st := NewState(config.Config{HeartbeatTimeout: 60}, 0)

	reason, done, err := applySetCmd(st, d, fakeLogger{}, 0, []byte("disable_hw\x00"))
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, Reason(0), reason)
	assert.True(t, wdt.detached)
	assert.Equal(t, 1, frames.acks())
}

func TestSetCmdDisableVMAcksThenReturnsTimeout(t *testing.T) {
	frames, _, _, _, d := newCmdDeps()
	st := NewState(config.Config{HeartbeatTimeout: 60}, 0)

	reason, done, err := applySetCmd(st, d, fakeLogger{}, 0, []byte("disable_vm\x00"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, ReasonTimeout, reason)
	assert.Equal(t, 1, frames.acks())
}

func TestSetCmdGuardedImmediateRebootSkipsPetAndAck(t *testing.T) {
	frames, wdt, reboot, _, d := newCmdDeps()
	st := NewState(config.Config{HeartbeatTimeout: 60}, 0)

	reason, done, err := applySetCmd(st, d, fakeLogger{}, 0, []byte("guarded_immediate_reboot\x00"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, ReasonShutDown, reason)
	assert.True(t, wdt.detached)
	assert.Zero(t, wdt.pets)
	assert.Zero(t, frames.acks())
	require.Len(t, reboot.rebootCmds, 1)
	assert.Equal(t, sysiface.RebootRestart, reboot.rebootCmds[0])
}

func TestSetCmdGuardedImmediatePoweroff(t *testing.T) {
	_, wdt, reboot, _, d := newCmdDeps()
	st := NewState(config.Config{HeartbeatTimeout: 60}, 0)

	reason, done, err := applySetCmd(st, d, fakeLogger{}, 0, []byte("guarded_immediate_poweroff\x00"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, ReasonShutDown, reason)
	assert.True(t, wdt.detached)
	require.Len(t, reboot.rebootCmds, 1)
	assert.Equal(t, sysiface.RebootPowerOff, reboot.rebootCmds[0])
}

func TestSetCmdGuardedRebootPetsSignalsPid1AndSyncsThenAcks(t *testing.T) {
	frames, wdt, reboot, killer, d := newCmdDeps()
	st := NewState(config.Config{HeartbeatTimeout: 60}, 0)

	_, done, err := applySetCmd(st, d, fakeLogger{}, 5, []byte("guarded_reboot\x00"))
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 1, wdt.pets)
	assert.True(t, wdt.detached)
	require.Len(t, killer.signals, 1)
	assert.Equal(t, syscall.SIGTERM, killer.signals[0])
	assert.True(t, reboot.synced)
	assert.Equal(t, 1, frames.acks())
}

func TestSetCmdGuardedPoweroffSignalsUSR2(t *testing.T) {
	_, _, _, killer, d := newCmdDeps()
	st := NewState(config.Config{HeartbeatTimeout: 60}, 0)

	_, _, err := applySetCmd(st, d, fakeLogger{}, 0, []byte("guarded_poweroff\x00"))
	require.NoError(t, err)
	require.Len(t, killer.signals, 1)
	assert.Equal(t, syscall.SIGUSR2, killer.signals[0])
}

func TestSetCmdGuardedHaltSignalsUSR1(t *testing.T) {
	_, _, _, killer, d := newCmdDeps()
	st := NewState(config.Config{HeartbeatTimeout: 60}, 0)

	_, _, err := applySetCmd(st, d, fakeLogger{}, 0, []byte("guarded_halt\x00"))
	require.NoError(t, err)
	require.Len(t, killer.signals, 1)
	assert.Equal(t, syscall.SIGUSR1, killer.signals[0])
}

func TestSetCmdInitHandshakeSetsFlagAndAcks(t *testing.T) {
	frames, _, _, _, d := newCmdDeps()
	st := NewState(config.Config{HeartbeatTimeout: 60, InitHandshakeTimeout: 30}, 0)
	require.False(t, st.InitHandshakeHappened)

	_, _, err := applySetCmd(st, d, fakeLogger{}, 0, []byte("init_handshake\x00"))
	require.NoError(t, err)
	assert.True(t, st.InitHandshakeHappened)
	assert.Equal(t, 1, frames.acks())
}

func TestSetCmdSnoozeRequestsFlagAndAcks(t *testing.T) {
	frames, wdt, _, _, d := newCmdDeps()
	snooze := &fakeSnooze{}
	d.Snooze = snooze
	st := NewState(config.Config{HeartbeatTimeout: 60}, 0)
	_ = wdt

	_, _, err := applySetCmd(st, d, fakeLogger{}, 0, []byte("snooze\x00"))
	require.NoError(t, err)
	assert.True(t, snooze.requested)
	assert.Equal(t, 1, frames.acks())
}

func TestSetCmdUnknownBodyStillAcks(t *testing.T) {
	frames, _, _, _, d := newCmdDeps()
	st := NewState(config.Config{HeartbeatTimeout: 60}, 0)

	_, done, err := applySetCmd(st, d, fakeLogger{}, 0, []byte("something_unrecognized\x00"))
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 1, frames.acks())
}

func TestTrimNUL(t *testing.T) {
	assert.Equal(t, "disable_hw", trimNUL([]byte("disable_hw\x00")))
	assert.Equal(t, "disable_hw", trimNUL([]byte("disable_hw")))
}
