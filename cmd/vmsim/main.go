// Command vmsim plays the VM side of the wire protocol against a real
// heart binary (or anything else speaking the same framing) for manual
// or scripted end-to-end testing. It is not part of the supervision
// loop — a test/demo aid only, grounded on the role
// original_source/tests/heart_test/c_src/heart_fixture.c plays for the
// C implementation: exercise the real protocol without a real VM.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"example.com/heart/internal/wire"
)

func main() {
	beats := flag.Int("beats", 5, "number of HEART_BEAT frames to send")
	interval := flag.Duration("interval", 30*time.Second, "gap between HEART_BEAT frames")
	then := flag.String("then", "shutdown", "what to do after the beats: shutdown|silence|crash")
	flag.Parse()

	if err := runSession(os.Stdin, os.Stdout, *beats, *interval, *then); err != nil {
		fmt.Fprintln(os.Stderr, "vmsim:", err)
		os.Exit(1)
	}
}

// runSession reads the supervisor's start-up ACK, then drives *beats
// HEART_BEAT frames spaced *interval apart, then performs the action
// named by then, so a scripted run of this binary against cmd/heart
// reproduces a real VM session on an actual host.
func runSession(r *os.File, w *os.File, beats int, interval time.Duration, then string) error {
	br := bufio.NewReader(r)

	ack, err := wire.ReadFrame(br)
	if err != nil {
		return fmt.Errorf("reading start-up ACK: %w", err)
	}
	if ack.Op != wire.OpAck {
		return fmt.Errorf("expected ACK at start-up, got opcode %d", ack.Op)
	}

	for i := 0; i < beats; i++ {
		if err := wire.WriteFrame(w, wire.OpHeartBeat, nil); err != nil {
			return fmt.Errorf("writing heartbeat %d: %w", i, err)
		}
		if i < beats-1 {
			time.Sleep(interval)
		}
	}

	switch then {
	case "shutdown":
		return wire.WriteFrame(w, wire.OpShutDown, nil)
	case "crash":
		return wire.WriteFrame(w, wire.OpPreparingCrash, nil)
	case "silence":
		select {} // block forever; the supervisor's own timeout fires.
	default:
		return fmt.Errorf("unknown -then action %q", then)
	}
}
