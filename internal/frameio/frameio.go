// Package frameio adapts internal/wire's ReadFrame/WriteFrame
// functions, which operate on plain io.Reader/io.Writer, into the
// sysiface.FrameIO capability seam the supervision loop depends on.
package frameio

import (
	"io"

	"example.com/heart/internal/sysiface"
	"example.com/heart/internal/wire"
)

// Pipe implements sysiface.FrameIO over a pair of blocking
// descriptors: stdin for reads, stdout for writes, the same anonymous
// pipe pair a supervised VM process connects over.
type Pipe struct {
	R io.Reader
	W io.Writer
}

// ReadFrame implements sysiface.FrameIO.
func (p Pipe) ReadFrame() (wire.Frame, error) {
	return wire.ReadFrame(p.R)
}

// WriteFrame implements sysiface.FrameIO.
func (p Pipe) WriteFrame(op wire.Opcode, body []byte) error {
	return wire.WriteFrame(p.W, op, body)
}

var _ sysiface.FrameIO = Pipe{}
