// Package controller runs the fixed-period control loop: sample, arbitrate,
// sequence, actuate, report, strictly in that order, once per cycle,
// single-threaded. Nothing inside a cycle blocks; gate settling is observed
// across cycles through the motion sensors.
package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hatchway/airlock/internal/gates"
	"github.com/hatchway/airlock/internal/interlock"
	"github.com/hatchway/airlock/internal/monitoring"
	"github.com/hatchway/airlock/internal/sampler"
	"github.com/hatchway/airlock/internal/status"
	"github.com/hatchway/airlock/internal/timeutil"
)

// Recorder persists diagnostics events. A nil Recorder disables recording;
// recording failures are logged and never interrupt the loop.
type Recorder interface {
	RecordEvent(runID string, cycle uint64, kind, state, detail string) error
}

// Event kinds passed to the Recorder. Kept in sync with the db package's
// event kinds without importing it, so the loop stays storage-agnostic.
const (
	eventTransition  = "transition"
	eventLockout     = "lockout"
	eventRejected    = "rejected"
	eventStuck       = "stuck"
	eventSensorFault = "sensor_fault"
	eventReset       = "reset"
)

// Options configures a Controller. Sampler, Sequencer, and Gateway are
// required; everything else is optional.
type Options struct {
	Period    time.Duration
	Clock     timeutil.Clock
	Sampler   *sampler.Sampler
	Sequencer *interlock.Sequencer
	Gateway   *gates.Gateway
	Indicator status.Indicator
	Recorder  Recorder
	Metrics   *monitoring.Metrics
	RunID     string

	// Trace enables the per-cycle textual dump of normalized sensor
	// booleans and state on the diagnostic channel. Off by default; it is
	// not part of the control contract.
	Trace bool
}

// Status is the externally observable controller state, refreshed once per
// cycle for the diagnostics API.
type Status struct {
	RunID       string                   `json:"run_id"`
	Cycle       uint64                   `json:"cycle"`
	State       string                   `json:"state"`
	Color       string                   `json:"color"`
	Faulted     bool                     `json:"faulted"`
	Stuck       bool                     `json:"stuck"`
	SensorFault bool                     `json:"sensor_fault"`
	Snapshot    interlock.SensorSnapshot `json:"snapshot"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// Controller owns the control loop. All sequencing state lives in the
// Sequencer; the controller only wires components together and publishes
// observability.
type Controller struct {
	opts  Options
	clock timeutil.Clock

	cycle          uint64
	lastState      interlock.State
	lastColor      status.Color
	colorDriven    bool
	wasFaulted     bool
	wasStuck       bool
	resetRequested atomic.Bool

	mu   sync.Mutex
	last Status
}

// New builds a controller. Panics if a required collaborator is missing;
// that is a wiring bug, not a runtime condition.
func New(opts Options) *Controller {
	if opts.Sampler == nil || opts.Sequencer == nil || opts.Gateway == nil {
		panic("controller: sampler, sequencer, and gateway are required")
	}
	if opts.Period <= 0 {
		opts.Period = 100 * time.Millisecond
	}
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Controller{
		opts:      opts,
		clock:     clock,
		lastState: opts.Sequencer.State(),
		last: Status{
			RunID: opts.RunID,
			State: opts.Sequencer.State().String(),
			Color: status.Report(opts.Sequencer.State(), false).String(),
		},
	}
}

// Status returns the most recently published controller status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// RequestReset schedules an operator-level reset, applied at the start of
// the next cycle so the single-threaded cycle ordering is preserved.
func (c *Controller) RequestReset() {
	c.resetRequested.Store(true)
}

// Run executes the control loop until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.opts.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			c.RunCycle()
		}
	}
}

// RunCycle executes exactly one control cycle. Exported so tests (and an
// event-driven timer host) can drive cycles directly.
func (c *Controller) RunCycle() {
	c.cycle++

	if c.resetRequested.CompareAndSwap(true, false) {
		c.opts.Sequencer.Reset()
		monitoring.Logf("controller: operator reset applied at cycle %d", c.cycle)
		c.record(eventReset, c.lastState.String(), "operator reset")
	}

	snap, sampleErr := c.opts.Sampler.Sample()
	if sampleErr != nil {
		monitoring.Logf("controller: %v (failing closed)", sampleErr)
		c.count(func(m *monitoring.Metrics) { m.SensorFaultsTotal.Inc() })
		c.record(eventSensorFault, c.lastState.String(), sampleErr.Error())
	}

	c.opts.Gateway.Observe(snap)
	res := c.opts.Sequencer.Step(snap)

	for _, err := range c.opts.Gateway.Apply(res.Commands) {
		if errors.Is(err, gates.ErrRejected) {
			// Correct enforcement of an invariant: logged, never escalated.
			monitoring.Logf("controller: %v", err)
			c.count(func(m *monitoring.Metrics) { m.RejectedTotal.Inc() })
			c.record(eventRejected, res.State.String(), err.Error())
			continue
		}
		// Actuation failure. The loop keeps running; the fault may clear
		// and every cycle re-asserts the desired levels.
		monitoring.Logf("controller: %v", err)
	}

	c.publish(snap, res, sampleErr != nil)
}

func (c *Controller) publish(snap interlock.SensorSnapshot, res interlock.StepResult, sensorFault bool) {
	if res.State != c.lastState {
		monitoring.Logf("controller: state %s -> %s at cycle %d", c.lastState, res.State, c.cycle)
		c.count(func(m *monitoring.Metrics) {
			m.TransitionsTotal.WithLabelValues(res.State.String()).Inc()
		})
		c.record(eventTransition, res.State.String(), "from "+c.lastState.String())
		c.lastState = res.State
	}

	if res.Faulted && !c.wasFaulted {
		monitoring.Logf("controller: safety lockout: %s", res.Lockout)
		c.count(func(m *monitoring.Metrics) { m.LockoutsTotal.Inc() })
		c.record(eventLockout, res.State.String(), res.Lockout.String())
	}
	c.wasFaulted = res.Faulted

	if res.Stuck && !c.wasStuck {
		monitoring.Logf("controller: stuck transition in %s, holding position", res.State)
		c.count(func(m *monitoring.Metrics) { m.StuckTotal.Inc() })
		c.record(eventStuck, res.State.String(), "no progress, holding position")
	}
	c.wasStuck = res.Stuck

	color := status.Report(res.State, res.Faulted)
	if c.opts.Indicator != nil && (!c.colorDriven || color != c.lastColor) {
		if err := c.opts.Indicator.SetColor(color); err != nil {
			monitoring.Logf("controller: set indicator: %v", err)
		} else {
			c.colorDriven = true
		}
	}
	c.lastColor = color

	c.count(func(m *monitoring.Metrics) {
		m.CyclesTotal.Inc()
		m.CurrentState.Set(float64(res.State))
	})

	if c.opts.Trace {
		monitoring.Logf(
			"cycle=%d state=%s color=%s front=%t middle=%t back=%t safetyA=%t safetyB=%t movingA=%t movingB=%t",
			c.cycle, res.State, color,
			snap.Front, snap.Middle, snap.Back,
			snap.SafetyA, snap.SafetyB, snap.MovingA, snap.MovingB,
		)
	}

	c.mu.Lock()
	c.last = Status{
		RunID:       c.opts.RunID,
		Cycle:       c.cycle,
		State:       res.State.String(),
		Color:       color.String(),
		Faulted:     res.Faulted,
		Stuck:       res.Stuck,
		SensorFault: sensorFault,
		Snapshot:    snap,
		UpdatedAt:   c.clock.Now(),
	}
	c.mu.Unlock()
}

func (c *Controller) count(f func(*monitoring.Metrics)) {
	if c.opts.Metrics != nil {
		f(c.opts.Metrics)
	}
}

func (c *Controller) record(kind, state, detail string) {
	if c.opts.Recorder == nil {
		return
	}
	if err := c.opts.Recorder.RecordEvent(c.opts.RunID, c.cycle, kind, state, detail); err != nil {
		monitoring.Logf("controller: record %s event: %v", kind, err)
	}
}
