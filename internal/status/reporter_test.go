package status

import (
	"testing"

	"github.com/hatchway/airlock/internal/interlock"
)

func TestReportIsTotal(t *testing.T) {
	for _, state := range interlock.States() {
		for _, faulted := range []bool{false, true} {
			c := Report(state, faulted)
			if c.String() == "unknown" {
				t.Fatalf("Report(%s, %t) returned an unknown color", state, faulted)
			}
		}
	}
}

func TestReportMapping(t *testing.T) {
	tests := []struct {
		state   interlock.State
		faulted bool
		want    Color
	}{
		{interlock.Idle, false, ColorGreen},
		{interlock.FrontEntering, false, ColorAmber},
		{interlock.BackEntering, false, ColorAmber},
		{interlock.MiddleOccupied, false, ColorBlue},
		{interlock.BackExiting, false, ColorPurple},
		{interlock.FrontExiting, false, ColorPurple},
		{interlock.SafetyLocked, false, ColorRed},
		// Fault-flavored MiddleOccupied must be distinguishable from the
		// nominal sequencing colors.
		{interlock.MiddleOccupied, true, ColorRed},
	}

	for _, tt := range tests {
		if got := Report(tt.state, tt.faulted); got != tt.want {
			t.Errorf("Report(%s, %t) = %s, want %s", tt.state, tt.faulted, got, tt.want)
		}
	}
}

func TestLinkIndicatorCommandFormat(t *testing.T) {
	var sent string
	i := NewLinkIndicator(senderFunc(func(cmd string) error {
		sent = cmd
		return nil
	}))

	if err := i.SetColor(ColorRed); err != nil {
		t.Fatalf("SetColor failed: %v", err)
	}
	if sent != "C,red" {
		t.Fatalf("sent %q, want %q", sent, "C,red")
	}
}

type senderFunc func(string) error

func (f senderFunc) SendCommand(cmd string) error { return f(cmd) }
