// Package linkmux provides an abstraction over the serial link to the gate
// I/O board, with the ability for multiple clients to subscribe to sensor
// frames from the board and send actuator commands to it over a single
// port.
package linkmux

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/hatchway/airlock/internal/monitoring"
)

var ErrWriteFailed = fmt.Errorf("failed to write to link port")

// LinkMux multiplexes a single serial link: sensor frames read from the
// port fan out to every subscriber, and actuator commands from any caller
// are serialized onto the port.
type LinkMux[T LinkPorter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// LinkMuxInterface defines the interface for the LinkMux type.
type LinkMuxInterface interface {
	// Subscribe creates a new channel for receiving line frames from the
	// link. The channel ID identifies the channel when unsubscribing.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// SendCommand writes the provided command line to the link.
	SendCommand(string) error
	// Monitor reads frames from the link and fans them out to subscribers.
	Monitor(context.Context) error
	// Close closes all subscribed channels and the underlying port.
	Close() error
}

// NewLinkMux creates a LinkMux backed by the given port.
func NewLinkMux[T LinkPorter](port T) *LinkMux[T] {
	return &LinkMux[T]{
		port:        port,
		subscribers: make(map[string]chan string),
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (m *LinkMux[T]) Subscribe() (string, chan string) {
	id := randomID()
	// Small buffer so a subscriber briefly between reads does not lose
	// frames; a persistently slow subscriber still drops.
	ch := make(chan string, 16)
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	m.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the link mux.
func (m *LinkMux[T]) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// SendCommand sends an actuator command line to the gate I/O board.
func (m *LinkMux[T]) SendCommand(command string) error {
	m.commandMu.Lock()
	defer m.commandMu.Unlock()
	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}
	n, err := m.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads newline-delimited frames from the link and sends them to
// subscribers. It returns when ctx is cancelled or the port fails.
func (m *LinkMux[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(m.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan.Scan runs in its own goroutine so it cannot
	// interfere with the outer loop awaiting context cancellation.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				return scan.Err()
			}
			m.publish(line)
		}
	}
}

func (m *LinkMux[T]) publish(line string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for id, ch := range m.subscribers {
		select {
		case ch <- line:
		default:
			// A subscriber that cannot keep up drops frames rather than
			// stalling the link; the sampler only cares about the latest
			// frame anyway.
			monitoring.Logf("linkmux: subscriber %s dropped frame", id)
		}
	}
}

// Close closes all subscriber channels and the underlying port.
func (m *LinkMux[T]) Close() error {
	m.closingMu.Lock()
	if m.closing {
		m.closingMu.Unlock()
		return nil
	}
	m.closing = true
	m.closingMu.Unlock()

	m.subscriberMu.Lock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	m.subscriberMu.Unlock()

	return m.port.Close()
}
