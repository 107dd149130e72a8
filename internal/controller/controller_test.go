package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hatchway/airlock/internal/gates"
	"github.com/hatchway/airlock/internal/interlock"
	"github.com/hatchway/airlock/internal/linkmux"
	"github.com/hatchway/airlock/internal/monitoring"
	"github.com/hatchway/airlock/internal/sampler"
	"github.com/hatchway/airlock/internal/status"
	"github.com/hatchway/airlock/internal/timeutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

// levelActuator tracks the held gate levels like the real board would.
type levelActuator struct {
	mu       sync.Mutex
	open     [2]bool
	bothOpen bool // latched if both gates were ever open together
}

func (a *levelActuator) SetGate(gate interlock.GateID, open bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.open[gate] = open
	if a.open[interlock.GateA] && a.open[interlock.GateB] {
		a.bothOpen = true
	}
	return nil
}

func (a *levelActuator) get(gate interlock.GateID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open[gate]
}

type captureRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *captureRecorder) RecordEvent(runID string, cycle uint64, kind, state, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind)
	return nil
}

func (r *captureRecorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type captureIndicator struct {
	colors []status.Color
}

func (i *captureIndicator) SetColor(c status.Color) error {
	i.colors = append(i.colors, c)
	return nil
}

type fixture struct {
	samp *sampler.Sampler
	act  *levelActuator
	rec  *captureRecorder
	ind  *captureIndicator
	ctrl *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		samp: sampler.New(sampler.Policy{}, timeutil.NewMockClock(time.Unix(0, 0))),
		act:  &levelActuator{},
		rec:  &captureRecorder{},
		ind:  &captureIndicator{},
	}
	f.ctrl = New(Options{
		Sampler:   f.samp,
		Sequencer: interlock.NewSequencer(0),
		Gateway:   gates.NewGateway(f.act),
		Indicator: f.ind,
		Recorder:  f.rec,
		Metrics:   monitoring.NewMetrics(prometheus.NewRegistry()),
		RunID:     "test-run",
	})
	return f
}

// cycle ingests one raw frame and runs one control cycle.
func (f *fixture) cycle(frame linkmux.RawFrame) Status {
	f.samp.Ingest(frame)
	f.ctrl.RunCycle()
	return f.ctrl.Status()
}

func TestControllerFullPassage(t *testing.T) {
	f := newFixture(t)

	st := f.cycle(linkmux.RawFrame{Front: true})
	if st.State != "front_entering" || st.Color != "amber" {
		t.Fatalf("cycle 1: %+v", st)
	}
	if !f.act.get(interlock.GateA) || f.act.get(interlock.GateB) {
		t.Fatal("cycle 1: gate A should be open, B closed")
	}

	st = f.cycle(linkmux.RawFrame{Front: true, Middle: true})
	if st.State != "middle_occupied" || st.Color != "blue" {
		t.Fatalf("cycle 2: %+v", st)
	}
	if f.act.get(interlock.GateA) {
		t.Fatal("cycle 2: gate A should be closed")
	}

	st = f.cycle(linkmux.RawFrame{Middle: true})
	if st.State != "back_exiting" || st.Color != "purple" {
		t.Fatalf("cycle 3: %+v", st)
	}
	if !f.act.get(interlock.GateB) {
		t.Fatal("cycle 3: gate B should be open")
	}

	st = f.cycle(linkmux.RawFrame{})
	if st.State != "idle" || st.Color != "green" {
		t.Fatalf("cycle 4: %+v", st)
	}
	if f.act.get(interlock.GateA) || f.act.get(interlock.GateB) {
		t.Fatal("cycle 4: both gates should be closed")
	}

	if f.act.bothOpen {
		t.Fatal("both gates were open at some instant during the passage")
	}
	if st.Cycle != 4 {
		t.Fatalf("cycle counter = %d, want 4", st.Cycle)
	}
}

func TestControllerFailsClosedWithoutSensorFrames(t *testing.T) {
	f := newFixture(t)

	// No frame ever ingested: the sampler reports a fault and the loop
	// must lock out.
	f.ctrl.RunCycle()
	st := f.ctrl.Status()

	if !st.SensorFault {
		t.Fatal("sensor fault not reported")
	}
	if st.State != "safety_locked" || st.Color != "red" {
		t.Fatalf("status = %+v, want safety_locked/red", st)
	}

	kinds := f.rec.kinds()
	var sawFault, sawLockout bool
	for _, k := range kinds {
		if k == eventSensorFault {
			sawFault = true
		}
		if k == eventLockout {
			sawLockout = true
		}
	}
	if !sawFault || !sawLockout {
		t.Fatalf("recorded events %v, want sensor_fault and lockout", kinds)
	}
}

func TestControllerLockoutAndRecovery(t *testing.T) {
	f := newFixture(t)

	f.cycle(linkmux.RawFrame{Front: true}) // passage begins, A open
	st := f.cycle(linkmux.RawFrame{Front: true, SafetyA: true})
	if st.State != "safety_locked" || !st.Faulted {
		t.Fatalf("lockout cycle: %+v", st)
	}
	if f.act.get(interlock.GateA) || f.act.get(interlock.GateB) {
		t.Fatal("gates not force-closed under lockout")
	}

	st = f.cycle(linkmux.RawFrame{})
	if st.State != "idle" || st.Faulted {
		t.Fatalf("recovery cycle: %+v", st)
	}
}

func TestControllerTrappedAgentReportsAlert(t *testing.T) {
	f := newFixture(t)

	st := f.cycle(linkmux.RawFrame{Middle: true, SafetyB: true})
	if st.State != "middle_occupied" {
		t.Fatalf("state = %s, want middle_occupied", st.State)
	}
	if !st.Faulted || st.Color != "red" {
		t.Fatalf("trapped-agent fault not alerting: %+v", st)
	}
}

func TestControllerOperatorReset(t *testing.T) {
	f := newFixture(t)

	f.cycle(linkmux.RawFrame{Front: true})
	f.ctrl.RequestReset()
	st := f.cycle(linkmux.RawFrame{})

	if st.State != "idle" {
		t.Fatalf("state = %s after reset, want idle", st.State)
	}

	var sawReset bool
	for _, k := range f.rec.kinds() {
		if k == eventReset {
			sawReset = true
		}
	}
	if !sawReset {
		t.Fatal("reset event not recorded")
	}
}

func TestControllerIndicatorDrivenOnChangeOnly(t *testing.T) {
	f := newFixture(t)

	f.cycle(linkmux.RawFrame{})
	f.cycle(linkmux.RawFrame{})
	f.cycle(linkmux.RawFrame{})
	f.cycle(linkmux.RawFrame{Front: true})

	want := []status.Color{status.ColorGreen, status.ColorAmber}
	if len(f.ind.colors) != len(want) {
		t.Fatalf("indicator driven %d times (%v), want %d", len(f.ind.colors), f.ind.colors, len(want))
	}
	for i := range want {
		if f.ind.colors[i] != want[i] {
			t.Fatalf("indicator colors = %v, want %v", f.ind.colors, want)
		}
	}
}

func TestControllerRunTicks(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	f := &fixture{
		samp: sampler.New(sampler.Policy{}, clock),
		act:  &levelActuator{},
	}
	f.samp.Ingest(linkmux.RawFrame{})

	ctrl := New(Options{
		Period:    100 * time.Millisecond,
		Clock:     clock,
		Sampler:   f.samp,
		Sequencer: interlock.NewSequencer(0),
		Gateway:   gates.NewGateway(f.act),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	// Let the goroutine install its ticker before advancing time.
	deadline := time.Now().Add(2 * time.Second)
	for ctrl.Status().Cycle == 0 {
		clock.Advance(100 * time.Millisecond)
		if time.Now().After(deadline) {
			t.Fatal("control loop never ran a cycle")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}
