// Package status maps sequencer state to the externally observable
// indicator. The mapping is total and pure; nothing here feeds back into
// control.
package status

import (
	"github.com/hatchway/airlock/internal/interlock"
)

// Color is the indicator value consumed by the external display driver.
type Color int

const (
	// ColorGreen: at rest, no fault.
	ColorGreen Color = iota
	// ColorAmber: a gate is open for entry.
	ColorAmber
	// ColorBlue: agent inside the chamber, both gates closed.
	ColorBlue
	// ColorPurple: a gate is open for exit.
	ColorPurple
	// ColorRed: alert. Safety lockout, including an agent trapped
	// mid-chamber under fault.
	ColorRed
)

var colorNames = map[Color]string{
	ColorGreen:  "green",
	ColorAmber:  "amber",
	ColorBlue:   "blue",
	ColorPurple: "purple",
	ColorRed:    "red",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return "unknown"
}

// Report maps a sequencer state to its indicator color. faulted
// distinguishes the fault-flavored MiddleOccupied (agent trapped under
// lockout) from nominal mid-chamber occupancy.
func Report(state interlock.State, faulted bool) Color {
	if faulted {
		return ColorRed
	}
	switch state {
	case interlock.Idle:
		return ColorGreen
	case interlock.FrontEntering, interlock.BackEntering:
		return ColorAmber
	case interlock.MiddleOccupied:
		return ColorBlue
	case interlock.BackExiting, interlock.FrontExiting:
		return ColorPurple
	case interlock.SafetyLocked:
		return ColorRed
	default:
		// Unknown states read as an alert rather than a nominal color.
		return ColorRed
	}
}
