package sampler

import (
	"errors"
	"testing"
	"time"

	"github.com/hatchway/airlock/internal/interlock"
	"github.com/hatchway/airlock/internal/linkmux"
	"github.com/hatchway/airlock/internal/timeutil"
)

func TestSampleLevelSensing(t *testing.T) {
	s := New(Policy{}, timeutil.NewMockClock(time.Unix(0, 0)))
	s.Ingest(linkmux.RawFrame{Front: true, SafetyB: true, MovingA: true})

	snap, err := s.Sample()
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	want := interlock.SensorSnapshot{Front: true, SafetyB: true, MovingA: true}
	if snap != want {
		t.Fatalf("snapshot = %+v, want %+v", snap, want)
	}
}

func TestSampleActiveLowPolarity(t *testing.T) {
	// Beam-break presence detectors idle high and drop when interrupted;
	// the safety and motion lines stay active-high.
	var policy Policy
	policy.Polarity[ChanFront] = ActiveLow
	policy.Polarity[ChanMiddle] = ActiveLow
	policy.Polarity[ChanBack] = ActiveLow

	s := New(policy, timeutil.NewMockClock(time.Unix(0, 0)))
	// All presence beams intact (raw high), middle interrupted (raw low).
	s.Ingest(linkmux.RawFrame{Front: true, Back: true})

	snap, err := s.Sample()
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if snap.Front || snap.Back {
		t.Fatalf("intact beams read as occupied: %+v", snap)
	}
	if !snap.Middle {
		t.Fatalf("interrupted beam read as empty: %+v", snap)
	}
}

func TestSampleEdgeToggle(t *testing.T) {
	s := New(Policy{EdgeToggle: true}, timeutil.NewMockClock(time.Unix(0, 0)))

	// First asserted edge flips the held value on.
	s.Ingest(linkmux.RawFrame{Front: true})
	snap, _ := s.Sample()
	if !snap.Front {
		t.Fatal("first edge did not toggle the front zone on")
	}

	// Holding the level is not another edge.
	s.Ingest(linkmux.RawFrame{Front: true})
	snap, _ = s.Sample()
	if !snap.Front {
		t.Fatal("held level cleared the toggle")
	}

	// Release then re-assert: second edge toggles it off.
	s.Ingest(linkmux.RawFrame{})
	s.Ingest(linkmux.RawFrame{Front: true})
	snap, _ = s.Sample()
	if snap.Front {
		t.Fatal("second edge did not toggle the front zone off")
	}
}

func TestSampleFailsClosedWithoutFrames(t *testing.T) {
	s := New(Policy{}, timeutil.NewMockClock(time.Unix(0, 0)))

	snap, err := s.Sample()
	if !errors.Is(err, ErrSensorFault) {
		t.Fatalf("err = %v, want ErrSensorFault", err)
	}
	if !snap.SafetyA || !snap.SafetyB {
		t.Fatalf("fault snapshot is not fail-closed: %+v", snap)
	}
}

func TestSampleFailsClosedOnStaleFrame(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	s := New(Policy{Staleness: 500 * time.Millisecond}, clock)

	s.Ingest(linkmux.RawFrame{Front: true})
	if _, err := s.Sample(); err != nil {
		t.Fatalf("fresh frame reported fault: %v", err)
	}

	clock.Advance(time.Second)
	snap, err := s.Sample()
	if !errors.Is(err, ErrSensorFault) {
		t.Fatalf("err = %v, want ErrSensorFault", err)
	}
	if !snap.SafetyA || !snap.SafetyB {
		t.Fatalf("stale snapshot is not fail-closed: %+v", snap)
	}

	// A new frame clears the fault.
	s.Ingest(linkmux.RawFrame{})
	if _, err := s.Sample(); err != nil {
		t.Fatalf("fault did not clear on a fresh frame: %v", err)
	}
}

func TestChannelByName(t *testing.T) {
	for c := Channel(0); c < NumChannels; c++ {
		got, ok := ChannelByName(c.String())
		if !ok || got != c {
			t.Fatalf("ChannelByName(%q) = %v, %t", c.String(), got, ok)
		}
	}
	if _, ok := ChannelByName("bogus"); ok {
		t.Fatal("ChannelByName accepted an unknown name")
	}
}
