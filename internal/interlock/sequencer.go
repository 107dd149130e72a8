package interlock

// DefaultStuckCycles is the number of cycles a passage state may hold
// without progress before a stuck-transition diagnostic is raised. At the
// default 100ms cycle period this is about five seconds.
const DefaultStuckCycles = 50

// passage parameterizes one direction of travel through the chamber. The
// two directions share a single transition function; only the gate and zone
// roles differ, so both directions carry identical correctness guarantees.
type passage struct {
	entryGate GateID
	exitGate  GateID
	entryZone ZoneID
	exitZone  ZoneID
	entering  State
	exiting   State
}

var (
	frontPassage = passage{
		entryGate: GateA, exitGate: GateB,
		entryZone: ZoneFront, exitZone: ZoneBack,
		entering: FrontEntering, exiting: BackExiting,
	}
	backPassage = passage{
		entryGate: GateB, exitGate: GateA,
		entryZone: ZoneBack, exitZone: ZoneFront,
		entering: BackEntering, exiting: FrontExiting,
	}
)

// StepResult is the outcome of one sequencer cycle: the externally visible
// state, the gate commands to actuate this cycle, and diagnostics.
type StepResult struct {
	// State is the externally visible state. During a lockout with the
	// middle zone occupied it reads MiddleOccupied rather than SafetyLocked
	// so the status reporter can distinguish "agent trapped mid-chamber
	// under fault" from "fault with empty chamber".
	State State

	// Faulted is true while a safety lockout is in effect.
	Faulted bool

	// Lockout describes the safety inputs behind the fault. Meaningful only
	// when Faulted is true.
	Lockout LockoutReason

	// Commands are consumed immediately by the gate actuator gateway, in
	// order.
	Commands []GateCommand

	// Stuck is true when the machine has made no progress for the
	// configured number of cycles, or when the motion feedback is
	// contradictory. The machine holds position; nothing is actuated on
	// guesswork.
	Stuck bool
}

// Sequencer is the airlock finite-state machine. It owns the only piece of
// persistent control state in the system and is stepped exactly once per
// control cycle, never concurrently.
type Sequencer struct {
	arbiter Arbiter

	state        State
	pass         passage
	held         int
	stuckAfter   int
	resetPending bool
}

// NewSequencer returns a sequencer at Idle. stuckAfter is the number of
// cycles without progress after which StepResult.Stuck is raised; values
// <= 0 select DefaultStuckCycles.
func NewSequencer(stuckAfter int) *Sequencer {
	if stuckAfter <= 0 {
		stuckAfter = DefaultStuckCycles
	}
	return &Sequencer{state: Idle, stuckAfter: stuckAfter}
}

// State returns the sequencer's internal state.
func (q *Sequencer) State() State {
	return q.state
}

// Reset is the operator-level escape hatch for a held stuck transition: the
// machine re-evaluates from Idle on its next step. A safety lockout is
// unaffected; an active obstruction re-asserts itself immediately.
func (q *Sequencer) Reset() {
	q.resetPending = true
}

// Step evaluates one control cycle. The safety check runs first and
// short-circuits all sequencing on a fault; normal transitions are only
// considered on a clean snapshot.
func (q *Sequencer) Step(snap SensorSnapshot) StepResult {
	if q.resetPending {
		q.resetPending = false
		q.state = Idle
		q.held = 0
	}

	if reason, locked := q.arbiter.Check(snap); locked {
		q.state = SafetyLocked
		q.held = 0
		res := StepResult{
			State:    SafetyLocked,
			Faulted:  true,
			Lockout:  reason,
			Commands: closeBoth(),
		}
		if snap.Middle {
			res.State = MiddleOccupied
		}
		return res
	}

	if q.state == SafetyLocked {
		// Both safety sensors cleared: resume from Idle this cycle.
		q.state = Idle
		q.held = 0
		return StepResult{State: Idle, Commands: closeBoth()}
	}

	if snap.MovingA && snap.MovingB {
		// Both gates cannot be in transit at once; the feedback is not
		// trustworthy, so hold position until the sensors normalize.
		q.held++
		return StepResult{State: q.state, Stuck: true}
	}

	prev := q.state
	cmds := q.transition(snap)

	if q.state == prev && prev != Idle {
		q.held++
	} else {
		q.held = 0
	}

	res := StepResult{State: q.state, Commands: cmds}
	if q.held >= q.stuckAfter {
		res.Stuck = true
	}
	return res
}

func (q *Sequencer) transition(snap SensorSnapshot) []GateCommand {
	if q.state == Idle {
		return q.idleStep(snap)
	}
	return q.passageStep(snap)
}

func (q *Sequencer) idleStep(snap SensorSnapshot) []GateCommand {
	switch {
	case snap.Middle:
		// Chamber occupied with no passage in progress: hold everything
		// closed and wait.
		return closeBoth()
	case snap.Front:
		// Front entry wins the tie when both outer zones are occupied.
		return q.begin(frontPassage)
	case snap.Back:
		return q.begin(backPassage)
	default:
		return closeBoth()
	}
}

func (q *Sequencer) begin(p passage) []GateCommand {
	q.state = p.entering
	q.pass = p
	return []GateCommand{
		{Gate: p.exitGate, Open: false},
		{Gate: p.entryGate, Open: true},
	}
}

// passageStep advances the current passage. The same function serves both
// travel directions via the passage parameters.
func (q *Sequencer) passageStep(snap SensorSnapshot) []GateCommand {
	p := q.pass
	switch q.state {
	case p.entering:
		// Entry gate settled open and the agent reached the chamber.
		if !snap.Moving(p.entryGate) && snap.Middle {
			q.state = MiddleOccupied
			return []GateCommand{{Gate: p.entryGate, Open: false}}
		}
	case MiddleOccupied:
		// Entry gate settled closed: only now is the far side safe to open.
		if !snap.Moving(p.entryGate) {
			q.state = p.exiting
			return []GateCommand{{Gate: p.exitGate, Open: true}}
		}
	case p.exiting:
		// Exit gate settled open and the agent cleared the exit zone.
		if !snap.Moving(p.exitGate) && !snap.Zone(p.exitZone) {
			q.state = Idle
			return []GateCommand{{Gate: p.exitGate, Open: false}}
		}
	}
	return nil
}

func closeBoth() []GateCommand {
	return []GateCommand{
		{Gate: GateA, Open: false},
		{Gate: GateB, Open: false},
	}
}
