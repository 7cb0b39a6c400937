package sysreal

import (
	"time"

	"golang.org/x/sys/unix"

	"example.com/heart/internal/sysiface"
)

// Selector blocks on a single fd's readability via select(2), the same
// primitive heart.c's main loop uses (it calls select() on STDIN_FILENO
// with a computed timeval). A signal arriving mid-wait interrupts the
// call with EINTR, which is reported as sysiface.ErrInterrupted rather
// than a real error so the loop retries instead of treating it as a
// hard failure.
type Selector struct {
	FD int
}

// Select implements sysiface.Selector.
func (s Selector) Select(timeout time.Duration) (bool, error) {
	if timeout < 0 {
		timeout = 0
	}
	tv := unix.NsecToTimeval(timeout.Nanoseconds())

	var set unix.FdSet
	fdSetSet(&set, s.FD)

	n, err := unix.Select(s.FD+1, &set, nil, nil, &tv)
	if err != nil {
		if err == unix.EINTR {
			return false, sysiface.ErrInterrupted
		}
		return false, err
	}
	return n > 0, nil
}

func fdSetSet(set *unix.FdSet, fd int) {
	idx := fd / 64
	bit := uint(fd % 64)
	set.Bits[idx] |= 1 << bit
}
