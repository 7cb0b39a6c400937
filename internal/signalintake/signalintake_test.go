package signalintake

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnoozeTestAndClearIsFalseInitially(t *testing.T) {
	s := NewSnooze(syscall.SIGUSR2)
	defer s.Stop()
	assert.False(t, s.TestAndClear())
}

func TestSnoozeCapturesSignalExactlyOnce(t *testing.T) {
	s := NewSnooze(syscall.SIGUSR2)
	defer s.Stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR2))
	require.Eventually(t, s.TestAndClear, time.Second, time.Millisecond)
	assert.False(t, s.TestAndClear(), "flag must clear on test")
}

func TestSnoozeCoalescesRepeatedSignals(t *testing.T) {
	s := NewSnooze(syscall.SIGUSR2)
	defer s.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR2))
	}
	require.Eventually(t, s.TestAndClear, time.Second, time.Millisecond)
	assert.False(t, s.TestAndClear())
}
