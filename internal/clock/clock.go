// Package clock provides the monotonic time source the supervision
// loop composes every deadline from.
//
// Grounded on heart.c's timestamp_seconds, which calls
// clock_gettime(CLOCK_MONOTONIC, ...) and treats failure as fatal; Real
// wraps the equivalent golang.org/x/sys/unix call in the same small,
// single-purpose struct shape.
package clock

import (
	"fmt"

	"golang.org/x/sys/unix"

	"example.com/heart/internal/sysiface"
)

// Real is a sysiface.Clock backed by CLOCK_MONOTONIC.
type Real struct{}

// Now returns the current monotonic second count. A non-nil error
// means the OS clock is unavailable, which is fatal to the board — the
// caller is expected to log and exit immediately.
func (Real) Now() (sysiface.Seconds, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0, fmt.Errorf("clock: CLOCK_MONOTONIC unavailable: %w", err)
	}
	return sysiface.Seconds(ts.Sec), nil
}
