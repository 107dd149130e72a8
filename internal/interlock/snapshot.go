// Package interlock implements the dual-gate airlock interlock: the safety
// arbiter and the sequencing state machine that guarantee the two gates are
// never commanded open at the same time.
package interlock

// GateID identifies one of the two airlock gates.
type GateID int

const (
	GateA GateID = iota
	GateB
)

func (g GateID) String() string {
	switch g {
	case GateA:
		return "A"
	case GateB:
		return "B"
	default:
		return "?"
	}
}

// Other returns the opposite gate.
func (g GateID) Other() GateID {
	if g == GateA {
		return GateB
	}
	return GateA
}

// ZoneID identifies one of the three presence zones of the chamber.
type ZoneID int

const (
	ZoneFront ZoneID = iota
	ZoneMiddle
	ZoneBack
)

func (z ZoneID) String() string {
	switch z {
	case ZoneFront:
		return "front"
	case ZoneMiddle:
		return "middle"
	case ZoneBack:
		return "back"
	default:
		return "?"
	}
}

// SensorSnapshot is the set of normalized logical sensor states for one
// control cycle. It is produced fresh every cycle by the sampler and never
// mutated afterwards. Zone fields are true when the zone is occupied,
// safety fields are true when the gate path is obstructed, and moving
// fields are true while the gate is in transit.
type SensorSnapshot struct {
	Front  bool `json:"front"`
	Middle bool `json:"middle"`
	Back   bool `json:"back"`

	SafetyA bool `json:"safety_a"`
	SafetyB bool `json:"safety_b"`

	MovingA bool `json:"moving_a"`
	MovingB bool `json:"moving_b"`
}

// Zone reports whether the given presence zone is occupied.
func (s SensorSnapshot) Zone(z ZoneID) bool {
	switch z {
	case ZoneFront:
		return s.Front
	case ZoneMiddle:
		return s.Middle
	case ZoneBack:
		return s.Back
	default:
		return false
	}
}

// Obstructed reports whether the given gate's safety sensor is asserted.
func (s SensorSnapshot) Obstructed(g GateID) bool {
	if g == GateA {
		return s.SafetyA
	}
	return s.SafetyB
}

// Moving reports whether the given gate is still in transit.
func (s SensorSnapshot) Moving(g GateID) bool {
	if g == GateA {
		return s.MovingA
	}
	return s.MovingB
}

// GateCommand is a single open/close request emitted by the sequencer and
// consumed immediately by the gate actuator gateway. It is a value, not
// stored state.
type GateCommand struct {
	Gate GateID
	Open bool
}

func (c GateCommand) String() string {
	if c.Open {
		return "open(" + c.Gate.String() + ")"
	}
	return "close(" + c.Gate.String() + ")"
}
