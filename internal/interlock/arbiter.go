package interlock

// LockoutReason records which safety inputs forced a lockout. At least one
// field is true whenever a lockout is in effect.
type LockoutReason struct {
	GateAObstructed bool
	GateBObstructed bool
}

func (r LockoutReason) String() string {
	switch {
	case r.GateAObstructed && r.GateBObstructed:
		return "gates A and B obstructed"
	case r.GateAObstructed:
		return "gate A obstructed"
	case r.GateBObstructed:
		return "gate B obstructed"
	default:
		return "no obstruction"
	}
}

// Arbiter is the highest-priority decision layer. It runs before the
// sequencer's transition logic every cycle; any obstruction unconditionally
// vetoes gate motion regardless of sequencing state.
type Arbiter struct{}

// Check evaluates the safety inputs of a snapshot. The second return value
// is true when a lockout must be applied: both gates force-closed and
// sequencing suspended until both safety sensors clear.
func (Arbiter) Check(snap SensorSnapshot) (LockoutReason, bool) {
	if !snap.SafetyA && !snap.SafetyB {
		return LockoutReason{}, false
	}
	return LockoutReason{
		GateAObstructed: snap.SafetyA,
		GateBObstructed: snap.SafetyB,
	}, true
}
