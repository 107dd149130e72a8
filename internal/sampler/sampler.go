// Package sampler turns raw line levels from the gate I/O board into the
// stable logical booleans the interlock consumes. It owns the deployment's
// polarity and edge policy and nothing else: no control decisions are made
// here, and no state is retained beyond what edge detection requires.
package sampler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hatchway/airlock/internal/interlock"
	"github.com/hatchway/airlock/internal/linkmux"
	"github.com/hatchway/airlock/internal/timeutil"
)

// ErrSensorFault is returned by Sample when no trustworthy frame is
// available. The accompanying snapshot is fail-closed: both safety bits are
// asserted so the arbiter locks the gates out.
var ErrSensorFault = errors.New("sampler: sensor fault")

// Channel identifies one of the seven input lines, in wire order.
type Channel int

const (
	ChanFront Channel = iota
	ChanMiddle
	ChanBack
	ChanSafetyA
	ChanSafetyB
	ChanMovingA
	ChanMovingB

	NumChannels
)

var channelNames = [NumChannels]string{
	"front", "middle", "back",
	"safety_a", "safety_b",
	"moving_a", "moving_b",
}

func (c Channel) String() string {
	if c < 0 || c >= NumChannels {
		return "?"
	}
	return channelNames[c]
}

// ChannelByName resolves a configuration key to a channel.
func ChannelByName(name string) (Channel, bool) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), true
		}
	}
	return 0, false
}

// Polarity maps an electrical level to a logical value.
type Polarity int

const (
	// ActiveHigh: raw high means asserted (occupied / obstructed / moving).
	ActiveHigh Polarity = iota
	// ActiveLow: raw low means asserted. Beam-break detectors typically
	// idle high and drop when interrupted.
	ActiveLow
)

// Policy is the deployment's sensor normalization policy. Which convention
// applies is a property of the installed hardware, so it is configured, not
// hard-coded.
type Policy struct {
	// Polarity per channel. Zero value is ActiveHigh everywhere.
	Polarity [NumChannels]Polarity

	// EdgeToggle selects edge-triggered sensing: each asserted edge flips
	// the held logical value instead of the level being read directly.
	// Level sensing is the default.
	EdgeToggle bool

	// Staleness is how old the latest frame may be before Sample reports a
	// sensor fault. Zero disables the check (tests only; deployments always
	// set it).
	Staleness time.Duration
}

// Sampler holds the latest raw frame from the link and produces one
// normalized SensorSnapshot per control cycle.
type Sampler struct {
	policy Policy
	clock  timeutil.Clock

	mu        sync.Mutex
	levels    [NumChannels]bool // latest raw levels
	prev      [NumChannels]bool // previous logical levels, for edge detection
	toggles   [NumChannels]bool // held values in edge-toggle mode
	frameAt   time.Time
	haveFrame bool
}

// New returns a sampler with the given policy. clock defaults to the real
// clock when nil.
func New(policy Policy, clock timeutil.Clock) *Sampler {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Sampler{policy: policy, clock: clock}
}

// Ingest records a raw frame from the link. Called from the link monitor
// whenever the board reports; safe to call concurrently with Sample.
func (s *Sampler) Ingest(frame linkmux.RawFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := frame.Levels()
	for i := range raw {
		logical := s.normalize(Channel(i), raw[i])
		if s.policy.EdgeToggle && logical && !s.prev[i] {
			s.toggles[i] = !s.toggles[i]
		}
		s.prev[i] = logical
	}
	s.levels = raw
	s.frameAt = s.clock.Now()
	s.haveFrame = true
}

// Sample produces the snapshot for the current control cycle. When no frame
// has arrived yet, or the latest frame is older than the staleness window,
// it returns a fail-closed snapshot and ErrSensorFault.
func (s *Sampler) Sample() (interlock.SensorSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.haveFrame {
		return failClosed(), fmt.Errorf("%w: no frame received", ErrSensorFault)
	}
	if s.policy.Staleness > 0 {
		if age := s.clock.Since(s.frameAt); age > s.policy.Staleness {
			return failClosed(), fmt.Errorf("%w: last frame is %v old", ErrSensorFault, age)
		}
	}

	var logical [NumChannels]bool
	for i := range logical {
		if s.policy.EdgeToggle {
			logical[i] = s.toggles[i]
		} else {
			logical[i] = s.normalize(Channel(i), s.levels[i])
		}
	}

	return interlock.SensorSnapshot{
		Front:   logical[ChanFront],
		Middle:  logical[ChanMiddle],
		Back:    logical[ChanBack],
		SafetyA: logical[ChanSafetyA],
		SafetyB: logical[ChanSafetyB],
		MovingA: logical[ChanMovingA],
		MovingB: logical[ChanMovingB],
	}, nil
}

func (s *Sampler) normalize(c Channel, raw bool) bool {
	if s.policy.Polarity[c] == ActiveLow {
		return !raw
	}
	return raw
}

// failClosed is the snapshot reported on a sensor fault: both safety bits
// asserted so the arbiter forces a lockout.
func failClosed() interlock.SensorSnapshot {
	return interlock.SensorSnapshot{SafetyA: true, SafetyB: true}
}
