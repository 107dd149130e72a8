package linkmux

import (
	"fmt"
	"strings"
)

// RawFrame is one sensor frame from the gate I/O board: the raw electrical
// levels of the seven input lines, before any polarity or edge policy is
// applied. Frames arrive as comma-separated lines of the form
//
//	IO,<front>,<middle>,<back>,<safA>,<safB>,<movA>,<movB>
//
// where each field is 0 or 1.
type RawFrame struct {
	Front  bool
	Middle bool
	Back   bool

	SafetyA bool
	SafetyB bool

	MovingA bool
	MovingB bool
}

// Levels returns the frame's lines in wire order.
func (f RawFrame) Levels() [7]bool {
	return [7]bool{
		f.Front, f.Middle, f.Back,
		f.SafetyA, f.SafetyB,
		f.MovingA, f.MovingB,
	}
}

const framePrefix = "IO"

// IsFrame reports whether a link line is a sensor frame, as opposed to a
// boot banner or echo the board may also emit.
func IsFrame(line string) bool {
	return strings.HasPrefix(line, framePrefix+",")
}

// ParseFrame parses a sensor frame line. Malformed frames are an error; the
// caller treats them as a sensor fault, never as a guessed level.
func ParseFrame(line string) (RawFrame, error) {
	segments := strings.Split(strings.TrimSpace(line), ",")
	if len(segments) != 8 || segments[0] != framePrefix {
		return RawFrame{}, fmt.Errorf("invalid frame %q: expected IO plus 7 fields", line)
	}

	var levels [7]bool
	for i, seg := range segments[1:] {
		switch seg {
		case "0":
			levels[i] = false
		case "1":
			levels[i] = true
		default:
			return RawFrame{}, fmt.Errorf("invalid frame %q: field %d is %q, expected 0 or 1", line, i+1, seg)
		}
	}

	return RawFrame{
		Front: levels[0], Middle: levels[1], Back: levels[2],
		SafetyA: levels[3], SafetyB: levels[4],
		MovingA: levels[5], MovingB: levels[6],
	}, nil
}

// GateCommandLine formats an actuator command for the board: G,<A|B>,<0|1>.
func GateCommandLine(gate string, open bool) string {
	level := "0"
	if open {
		level = "1"
	}
	return fmt.Sprintf("G,%s,%s", gate, level)
}

// ColorCommandLine formats a status indicator command for the board:
// C,<color>.
func ColorCommandLine(color string) string {
	return "C," + color
}
