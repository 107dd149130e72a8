package interlock

// State is the externally visible state of the airlock sequencer. It is the
// single source of truth for what the controller does next, owned
// exclusively by the Sequencer and mutated once per cycle.
type State int

const (
	// Idle: chamber empty, both gates commanded closed, no fault.
	Idle State = iota
	// FrontEntering: gate A commanded open for an agent entering from the
	// front zone.
	FrontEntering
	// MiddleOccupied: agent inside the chamber, both gates commanded closed.
	MiddleOccupied
	// BackExiting: gate B commanded open for the agent to leave through the
	// back zone.
	BackExiting
	// BackEntering: mirror of FrontEntering for travel in the opposite
	// direction.
	BackEntering
	// FrontExiting: mirror of BackExiting.
	FrontExiting
	// SafetyLocked: a safety obstruction forced both gates closed and
	// suspended all sequencing.
	SafetyLocked
)

var stateNames = map[State]string{
	Idle:           "idle",
	FrontEntering:  "front_entering",
	MiddleOccupied: "middle_occupied",
	BackExiting:    "back_exiting",
	BackEntering:   "back_entering",
	FrontExiting:   "front_exiting",
	SafetyLocked:   "safety_locked",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// States lists every sequencer state, in declaration order. Used by the
// status reporter and metrics to enumerate the full state space.
func States() []State {
	return []State{
		Idle, FrontEntering, MiddleOccupied, BackExiting,
		BackEntering, FrontExiting, SafetyLocked,
	}
}
