package supervisor

import (
	"syscall"
	"time"

	"example.com/heart/internal/sysiface"
	"example.com/heart/internal/wire"
)

type fakeClock struct {
	now sysiface.Seconds
	err error
}

func (c *fakeClock) Now() (sysiface.Seconds, error) { return c.now, c.err }
func (c *fakeClock) advance(d sysiface.Seconds)     { c.now += d }

type fakeFrameIO struct {
	inbox   []wire.Frame
	readErr error
	written []wire.Frame
	writeErr error
}

func (f *fakeFrameIO) ReadFrame() (wire.Frame, error) {
	if f.readErr != nil {
		return wire.Frame{}, f.readErr
	}
	if len(f.inbox) == 0 {
		return wire.Frame{}, wire.ErrClosed
	}
	fr := f.inbox[0]
	f.inbox = f.inbox[1:]
	return fr, nil
}

func (f *fakeFrameIO) WriteFrame(op wire.Opcode, body []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, wire.Frame{Op: op, Body: body, Len: wire.HeaderSize + 1 + len(body)})
	return nil
}

func (f *fakeFrameIO) acks() int {
	n := 0
	for _, w := range f.written {
		if w.Op == wire.OpAck {
			n++
		}
	}
	return n
}

type fakeWatchdog struct {
	pets        int
	petErr      error
	detached    bool
	timeout     int
	petInterval int
	lastPet     sysiface.Seconds
	status      sysiface.WatchdogStatus
}

func (w *fakeWatchdog) Pet(now sysiface.Seconds) error {
	if w.petErr != nil {
		return w.petErr
	}
	w.pets++
	w.lastPet = now
	return nil
}
func (w *fakeWatchdog) Detach()                          { w.detached = true }
func (w *fakeWatchdog) Timeout() int                      { return w.timeout }
func (w *fakeWatchdog) PetInterval() int                  { return w.petInterval }
func (w *fakeWatchdog) LastPetTime() sysiface.Seconds     { return w.lastPet }
func (w *fakeWatchdog) Status() sysiface.WatchdogStatus   { return w.status }

type fakeSelector struct {
	results []selectResult
}

type selectResult struct {
	ready bool
	err   error
}

func (s *fakeSelector) Select(time.Duration) (bool, error) {
	if len(s.results) == 0 {
		return false, nil
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.ready, r.err
}

type fakeSnooze struct {
	requested bool
}

func (s *fakeSnooze) TestAndClear() bool {
	v := s.requested
	s.requested = false
	return v
}
func (s *fakeSnooze) Request() { s.requested = true }

type fakeRebooter struct {
	rebootCmds []sysiface.RebootCommand
	synced     bool
}

func (r *fakeRebooter) Reboot(cmd sysiface.RebootCommand) error {
	r.rebootCmds = append(r.rebootCmds, cmd)
	return nil
}
func (r *fakeRebooter) Sync() { r.synced = true }

type fakeKiller struct {
	signals []syscall.Signal
	alive   bool
}

func (k *fakeKiller) Signal(pid int, sig syscall.Signal) error {
	k.signals = append(k.signals, sig)
	return nil
}
func (k *fakeKiller) Alive(pid int) bool { return k.alive }

type fakeSleeper struct {
	slept []time.Duration
}

func (s *fakeSleeper) Sleep(d time.Duration) { s.slept = append(s.slept, d) }

type fakeLogger struct{}

func (fakeLogger) Infof(string, ...any)    {}
func (fakeLogger) Warningf(string, ...any) {}
func (fakeLogger) Errorf(string, ...any)   {}
