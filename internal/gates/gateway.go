// Package gates is the sole path through which gate commands reach
// hardware. The gateway independently re-checks the safety invariants the
// sequencer is supposed to honor, so a sequencing bug cannot open an
// obstructed gate or both gates at once.
package gates

import (
	"errors"
	"fmt"

	"github.com/hatchway/airlock/internal/interlock"
)

// ErrRejected is returned when an open command is refused. A rejection is
// correct enforcement of an invariant, not a bug: callers log it and move
// on, they never escalate.
var ErrRejected = errors.New("gates: open command rejected")

// Actuator drives the physical gate outputs. Levels are held until changed.
type Actuator interface {
	SetGate(gate interlock.GateID, open bool) error
}

// Gateway enforces, per command, that an obstructed gate is never opened
// and that the two gates are never commanded open simultaneously. Close
// commands are never rejected.
type Gateway struct {
	act        Actuator
	obstructed [2]bool
	commanded  [2]bool
	driven     [2]bool // whether commanded[i] has been written to the actuator yet
}

// NewGateway returns a gateway with both gates commanded closed.
func NewGateway(act Actuator) *Gateway {
	return &Gateway{act: act}
}

// Observe refreshes the gateway's view of the safety sensors. Called once
// per cycle, before any commands for that cycle.
func (g *Gateway) Observe(snap interlock.SensorSnapshot) {
	g.obstructed[interlock.GateA] = snap.SafetyA
	g.obstructed[interlock.GateB] = snap.SafetyB
}

// Command requests a gate level. Open requests are rejected with
// ErrRejected while the gate's own safety sensor reports an obstruction, or
// while the other gate is commanded open. The output level is held until
// changed; repeating the current level is a no-op.
func (g *Gateway) Command(gate interlock.GateID, open bool) error {
	if open {
		if g.obstructed[gate] {
			return fmt.Errorf("%w: gate %s path obstructed", ErrRejected, gate)
		}
		if g.commanded[gate.Other()] {
			return fmt.Errorf("%w: gate %s is open", ErrRejected, gate.Other())
		}
	}

	if g.driven[gate] && g.commanded[gate] == open {
		return nil
	}

	if err := g.act.SetGate(gate, open); err != nil {
		return fmt.Errorf("gates: actuate gate %s: %w", gate, err)
	}
	g.commanded[gate] = open
	g.driven[gate] = true
	return nil
}

// Apply runs a batch of sequencer commands in order. The first actuation
// failure aborts the batch; rejections do not, they are collected and
// returned after the remaining commands have been applied.
func (g *Gateway) Apply(cmds []interlock.GateCommand) []error {
	var rejected []error
	for _, cmd := range cmds {
		err := g.Command(cmd.Gate, cmd.Open)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrRejected) {
			rejected = append(rejected, err)
			continue
		}
		return append(rejected, err)
	}
	return rejected
}

// Commanded reports the currently held output level for a gate.
func (g *Gateway) Commanded(gate interlock.GateID) bool {
	return g.commanded[gate]
}
