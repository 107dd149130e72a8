package status

import (
	"github.com/hatchway/airlock/internal/linkmux"
)

// Indicator is the external display driver consuming one color per change.
type Indicator interface {
	SetColor(Color) error
}

// CommandSender is the write half of the board link.
type CommandSender interface {
	SendCommand(string) error
}

// LinkIndicator drives the status indicator over the gate I/O board link.
type LinkIndicator struct {
	sender CommandSender
}

// NewLinkIndicator returns an Indicator that writes C,<color> commands to
// the board.
func NewLinkIndicator(sender CommandSender) *LinkIndicator {
	return &LinkIndicator{sender: sender}
}

// SetColor implements Indicator.
func (i *LinkIndicator) SetColor(c Color) error {
	return i.sender.SendCommand(linkmux.ColorCommandLine(c.String()))
}
