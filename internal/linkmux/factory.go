package linkmux

import (
	"go.bug.st/serial"
)

// NewRealLinkMux creates a LinkMux backed by a real serial port at the
// given path using the provided serial options.
func NewRealLinkMux(path string, opts PortOptions) (*LinkMux[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return NewLinkMux[serial.Port](port), nil
}
