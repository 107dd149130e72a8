package gates

import (
	"github.com/hatchway/airlock/internal/interlock"
	"github.com/hatchway/airlock/internal/linkmux"
)

// CommandSender is the write half of the board link.
type CommandSender interface {
	SendCommand(string) error
}

// LinkActuator drives the gate outputs over the gate I/O board link.
type LinkActuator struct {
	sender CommandSender
}

// NewLinkActuator returns an Actuator that writes G,<gate>,<level> commands
// to the board.
func NewLinkActuator(sender CommandSender) *LinkActuator {
	return &LinkActuator{sender: sender}
}

// SetGate implements Actuator.
func (a *LinkActuator) SetGate(gate interlock.GateID, open bool) error {
	return a.sender.SendCommand(linkmux.GateCommandLine(gate.String(), open))
}
