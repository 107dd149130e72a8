package linkmux

import (
	"io"
)

// LinkPorter defines the minimal interface needed for the gate I/O board's
// serial link. The abstraction enables unit testing without real hardware.
type LinkPorter interface {
	io.ReadWriter
	io.Closer
}
