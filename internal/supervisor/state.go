// Package supervisor implements the core state machine: the single-
// threaded event loop that multiplexes the stdin protocol, the
// watchdog pet schedule, several wall-clock deadlines, and asynchronous
// signal delivery.
//
// Grounded on original_source/src/heart.c's main loop and
// original_source/src/heart.h's field list; the capability-seam
// plumbing follows internal/sysiface.
package supervisor

import (
	"example.com/heart/internal/config"
	"example.com/heart/internal/sysiface"
)

const snoozeDuration sysiface.Seconds = 900

// Reason is the single value the loop returns on exit: exactly one of
// these five.
type Reason int

const (
	ReasonTimeout Reason = iota
	ReasonClosed
	ReasonError
	ReasonShutDown
	ReasonCrashing
)

func (r Reason) String() string {
	switch r {
	case ReasonTimeout:
		return "R_TIMEOUT"
	case ReasonClosed:
		return "R_CLOSED"
	case ReasonError:
		return "R_ERROR"
	case ReasonShutDown:
		return "R_SHUT_DOWN"
	case ReasonCrashing:
		return "R_CRASHING"
	default:
		return "R_UNKNOWN"
	}
}

// State holds every mutable field the loop touches, owned exclusively
// by the loop and passed by reference, in place of the original's
// module-level C globals.
type State struct {
	ProgramName    string
	ProgramVersion string

	HeartbeatTimeout    sysiface.Seconds
	LastHeartBeatTime   sysiface.Seconds
	InitHandshakeTimeout   sysiface.Seconds // 0 = disabled
	InitHandshakeHappened  bool
	InitHandshakeEndTime   sysiface.Seconds
	InitGraceTime          sysiface.Seconds
	InitGraceEndTime       sysiface.Seconds
	SnoozeEndTime          sysiface.Seconds

	KillPID int

	ackSentAtStart bool
}

// NewState initialises a State from resolved configuration and the
// current monotonic time: the initial grace period is encoded by
// pre-seeding LastHeartBeatTime with InitGraceEndTime, deferring the
// heartbeat deadline until grace expires.
func NewState(cfg config.Config, now sysiface.Seconds) *State {
	s := &State{
		ProgramName:          cfg.ProgramName,
		ProgramVersion:       cfg.ProgramVersion,
		HeartbeatTimeout:     sysiface.Seconds(cfg.HeartbeatTimeout),
		InitHandshakeTimeout: sysiface.Seconds(cfg.InitHandshakeTimeout),
		InitGraceTime:        sysiface.Seconds(cfg.InitGraceTime),
		KillPID:              cfg.KillPID,
	}

	s.InitGraceEndTime = now + s.InitGraceTime
	if s.InitHandshakeTimeout > 0 {
		s.InitHandshakeEndTime = now + s.InitHandshakeTimeout
	}
	s.InitHandshakeHappened = s.InitHandshakeTimeout == 0

	s.LastHeartBeatTime = s.InitGraceEndTime
	s.SnoozeEndTime = now

	return s
}

func clampNonNegative(v sysiface.Seconds) sysiface.Seconds {
	if v < 0 {
		return 0
	}
	return v
}
