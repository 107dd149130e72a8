package interlock

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genSnapshot() gopter.Gen {
	return gen.UInt8().Map(func(bits uint8) SensorSnapshot {
		return SensorSnapshot{
			Front:   bits&1 != 0,
			Middle:  bits&2 != 0,
			Back:    bits&4 != 0,
			SafetyA: bits&8 != 0,
			SafetyB: bits&16 != 0,
			MovingA: bits&32 != 0,
			MovingB: bits&64 != 0,
		}
	})
}

// commandedLevels replays a snapshot sequence through a fresh sequencer and
// tracks the held output levels the way the actuator gateway would.
func commandedLevels(snaps []SensorSnapshot) (ok bool) {
	q := NewSequencer(0)
	var open [2]bool

	for _, snap := range snaps {
		res := q.Step(snap)
		for _, cmd := range res.Commands {
			open[cmd.Gate] = cmd.Open
		}
		if open[GateA] && open[GateB] {
			return false
		}
		if (snap.SafetyA || snap.SafetyB) && (open[GateA] || open[GateB]) {
			// Fail-closed: any obstruction closes both gates within the
			// same cycle.
			return false
		}
	}
	return true
}

// TestSequencerSafetyProperties drives the sequencer with arbitrary sensor
// histories and checks the two core invariants: the gates are never
// commanded open together, and any obstruction closes both gates within the
// cycle that reported it.
func TestSequencerSafetyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("mutual exclusion and fail-closed hold over any history", prop.ForAll(
		func(snaps []SensorSnapshot) bool {
			return commandedLevels(snaps)
		},
		gen.SliceOf(genSnapshot()),
	))

	properties.Property("lockout always recovers to Idle on a clean snapshot", prop.ForAll(
		func(snaps []SensorSnapshot) bool {
			q := NewSequencer(0)
			for _, snap := range snaps {
				q.Step(snap)
			}
			q.Step(SensorSnapshot{SafetyA: true})
			res := q.Step(SensorSnapshot{})
			return res.State == Idle && !res.Faulted
		},
		gen.SliceOf(genSnapshot()),
	))

	properties.TestingRun(t)
}
