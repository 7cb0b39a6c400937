package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/heart/internal/wire"
)

func TestRunSessionHappyPathSendsBeatsThenShutdown(t *testing.T) {
	supR, vmW, err := os.Pipe() // vmsim -> supervisor direction
	require.NoError(t, err)
	vmR, supW, err := os.Pipe() // supervisor -> vmsim direction
	require.NoError(t, err)
	defer supR.Close()
	defer vmW.Close()
	defer vmR.Close()
	defer supW.Close()

	done := make(chan error, 1)
	go func() {
		done <- runSession(vmR, vmW, 2, time.Millisecond, "shutdown")
	}()

	require.NoError(t, wire.WriteFrame(supW, wire.OpAck, nil))

	f1, err := wire.ReadFrame(supR)
	require.NoError(t, err)
	assert.Equal(t, wire.OpHeartBeat, f1.Op)

	f2, err := wire.ReadFrame(supR)
	require.NoError(t, err)
	assert.Equal(t, wire.OpHeartBeat, f2.Op)

	f3, err := wire.ReadFrame(supR)
	require.NoError(t, err)
	assert.Equal(t, wire.OpShutDown, f3.Op)

	require.NoError(t, <-done)
}

func TestRunSessionCrashAction(t *testing.T) {
	supR, vmW, err := os.Pipe()
	require.NoError(t, err)
	vmR, supW, err := os.Pipe()
	require.NoError(t, err)
	defer supR.Close()
	defer vmW.Close()
	defer vmR.Close()
	defer supW.Close()

	done := make(chan error, 1)
	go func() {
		done <- runSession(vmR, vmW, 0, 0, "crash")
	}()

	require.NoError(t, wire.WriteFrame(supW, wire.OpAck, nil))

	f, err := wire.ReadFrame(supR)
	require.NoError(t, err)
	assert.Equal(t, wire.OpPreparingCrash, f.Op)
	require.NoError(t, <-done)
}

func TestRunSessionRejectsNonACKStart(t *testing.T) {
	supR, vmW, err := os.Pipe()
	require.NoError(t, err)
	vmR, supW, err := os.Pipe()
	require.NoError(t, err)
	defer supR.Close()
	defer vmW.Close()
	defer vmR.Close()
	defer supW.Close()

	require.NoError(t, wire.WriteFrame(supW, wire.OpHeartBeat, nil))
	err = runSession(vmR, vmW, 0, 0, "shutdown")
	assert.Error(t, err)
}
