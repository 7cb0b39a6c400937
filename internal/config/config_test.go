package config

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load(noEnv, nil)
	assert.Equal(t, 60, cfg.HeartbeatTimeout)
	assert.Equal(t, 0, cfg.InitGraceTime)
	assert.Equal(t, "/dev/watchdog0", cfg.WatchdogPath)
	assert.Equal(t, syscall.SIGKILL, cfg.KillSig)
	assert.False(t, cfg.NoKill)
}

func TestCLIHeartbeatTimeoutStrictLowerBound(t *testing.T) {
	cfg := Load(noEnv, []string{"-ht", "10"})
	assert.Equal(t, 60, cfg.HeartbeatTimeout, "10 itself must be rejected")

	cfg = Load(noEnv, []string{"-ht", "11"})
	assert.Equal(t, 11, cfg.HeartbeatTimeout)
}

func TestCLIHeartbeatTimeoutUpperBound(t *testing.T) {
	cfg := Load(noEnv, []string{"-ht", "65535"})
	assert.Equal(t, 65535, cfg.HeartbeatTimeout)

	cfg = Load(noEnv, []string{"-ht", "65536"})
	assert.Equal(t, 60, cfg.HeartbeatTimeout, "out of range must be ignored")
}

func TestCLIPid(t *testing.T) {
	cfg := Load(noEnv, []string{"-pid", "4242"})
	assert.Equal(t, 4242, cfg.KillPID)
}

func TestUnknownFlagsAreIgnored(t *testing.T) {
	cfg := Load(noEnv, []string{"-bogus", "value", "--also-bogus", "-ht", "20"})
	assert.Equal(t, 20, cfg.HeartbeatTimeout)
}

func TestFlagMissingValueIsIgnored(t *testing.T) {
	cfg := Load(noEnv, []string{"-ht"})
	assert.Equal(t, 60, cfg.HeartbeatTimeout)
}

func TestInitGraceTimeClampedToWindow(t *testing.T) {
	cfg := Load(envMap(map[string]string{"HEART_INIT_GRACE_TIME": "601"}), nil)
	assert.Equal(t, 600, cfg.InitGraceTime)

	cfg = Load(envMap(map[string]string{"HEART_INIT_GRACE_TIME": "-5"}), nil)
	assert.Equal(t, 0, cfg.InitGraceTime)
}

func TestInitHandshakeTimeoutRaisedToGraceTime(t *testing.T) {
	cfg := Load(envMap(map[string]string{
		"HEART_INIT_GRACE_TIME": "30",
		"HEART_INIT_TIMEOUT":    "5",
	}), nil)
	assert.Equal(t, 30, cfg.InitHandshakeTimeout)
}

func TestInitHandshakeTimeoutZeroStaysDisabled(t *testing.T) {
	cfg := Load(envMap(map[string]string{"HEART_INIT_GRACE_TIME": "30"}), nil)
	assert.Zero(t, cfg.InitHandshakeTimeout)
}

func TestKillSignalOverride(t *testing.T) {
	cfg := Load(envMap(map[string]string{"HEART_KILL_SIGNAL": "SIGABRT"}), nil)
	assert.Equal(t, syscall.SIGABRT, cfg.KillSig)
}

func TestNoKillFlag(t *testing.T) {
	cfg := Load(envMap(map[string]string{"HEART_NO_KILL": "true"}), nil)
	assert.True(t, cfg.NoKill)
}

func TestWatchdogPathOverride(t *testing.T) {
	cfg := Load(envMap(map[string]string{"HEART_WATCHDOG_PATH": "/dev/watchdog3"}), nil)
	assert.Equal(t, "/dev/watchdog3", cfg.WatchdogPath)
}

func TestKernelTimeoutOverride(t *testing.T) {
	cfg := Load(envMap(map[string]string{"HEART_KERNEL_TIMEOUT": "30"}), nil)
	assert.Equal(t, 30, cfg.KernelTimeoutOverride)
}
