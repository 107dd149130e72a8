package linkmux

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// MockLinkPort implements LinkPorter for testing and dev mode. Reads are
// served from an io.Pipe fed by a frame generator; writes (actuator
// commands) are captured for inspection.
type MockLinkPort struct {
	io.Reader
	pipeWriter *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer
	closed  bool
}

// Write records an actuator command sent to the mock board.
func (p *MockLinkPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	return p.written.Write(b)
}

// Close stops the mock port.
func (p *MockLinkPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.pipeWriter.Close()
}

// Written returns everything written to the mock port so far.
func (p *MockLinkPort) Written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.String()
}

// NewMockLinkMux creates a LinkMux backed by a mock port that emits the
// given frame line at the given period, simulating the gate I/O board's
// steady sensor stream.
func NewMockLinkMux(frame string, period time.Duration) (*LinkMux[*MockLinkPort], *MockLinkPort) {
	r, w := io.Pipe()
	port := &MockLinkPort{Reader: r, pipeWriter: w}

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := w.Write([]byte(frame + "\n")); err != nil {
				return
			}
		}
	}()

	return NewLinkMux[*MockLinkPort](port), port
}

// NewScriptedLinkMux creates a LinkMux backed by a mock port that emits the
// given frame lines once, in order, then blocks. Tests use it to drive the
// monitor with a precise sensor sequence.
func NewScriptedLinkMux(frames []string) (*LinkMux[*MockLinkPort], *MockLinkPort) {
	r, w := io.Pipe()
	port := &MockLinkPort{Reader: r, pipeWriter: w}

	go func() {
		for _, frame := range frames {
			if _, err := w.Write([]byte(frame + "\n")); err != nil {
				return
			}
		}
	}()

	return NewLinkMux[*MockLinkPort](port), port
}
