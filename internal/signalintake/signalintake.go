// Package signalintake bridges an asynchronously delivered OS signal
// into the single-threaded supervision loop's synchronous, once-per-
// iteration poll.
//
// The original program sets a sig_atomic_t flag from inside a signal
// handler and has the main loop test-and-clear it once per pass
// (original_source/src/heart.c: snooze_is_open / accept_snooze). Go
// forbids running arbitrary code in a true signal handler, and
// signal.Notify delivers on its own goroutine rather than inside one;
// an atomic.Bool set by that goroutine and test-and-cleared by the loop
// is the idiomatic Go translation of the same flag-and-poll shape.
package signalintake

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Snooze delivers a one-shot, coalesced notification that the loop
// should extend the current heartbeat deadline.
type Snooze struct {
	flag atomic.Bool
	ch   chan os.Signal
	stop chan struble
}

type struble = struct{}

// NewSnooze starts listening for sig (SIGUSR1 in production; tests may
// inject any signal they can raise themselves). Call Stop to release
// the underlying signal.Notify registration.
func NewSnooze(sig os.Signal) *Snooze {
	s := &Snooze{
		ch:   make(chan os.Signal, 1),
		stop: make(chan struble),
	}
	signal.Notify(s.ch, sig)
	go s.run()
	return s
}

func (s *Snooze) run() {
	for {
		select {
		case <-s.ch:
			s.flag.Store(true)
		case <-s.stop:
			return
		}
	}
}

// Request sets the snooze flag directly, as if the signal had fired.
// A snooze requested over the wire and one requested by signal collapse
// onto the exact same flag — the loop never distinguishes them.
func (s *Snooze) Request() {
	s.flag.Store(true)
}

// TestAndClear reports whether a snooze was requested since the last
// call, clearing the flag atomically. The loop calls this exactly once
// per iteration.
func (s *Snooze) TestAndClear() bool {
	return s.flag.Swap(false)
}

// Stop ends the notification goroutine and undoes signal.Notify.
func (s *Snooze) Stop() {
	signal.Stop(s.ch)
	close(s.stop)
}

// DefaultSignal is the snooze trigger used by cmd/heart: SIGUSR1,
// matching the original's use of an otherwise unassigned signal
// reserved for this purpose on Linux/BEAM ports.
const DefaultSignal = syscall.SIGUSR1
