package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the control loop. One
// instance is created at startup and registered once.
type Metrics struct {
	CyclesTotal       prometheus.Counter
	TransitionsTotal  *prometheus.CounterVec
	RejectedTotal     prometheus.Counter
	LockoutsTotal     prometheus.Counter
	StuckTotal        prometheus.Counter
	SensorFaultsTotal prometheus.Counter
	CurrentState      prometheus.Gauge
}

// NewMetrics builds and registers the control loop metrics on the given
// registerer. Passing nil registers on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airlock_cycles_total",
			Help: "Control cycles executed.",
		}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "airlock_transitions_total",
			Help: "Sequencer state transitions, by destination state.",
		}, []string{"state"}),
		RejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airlock_rejected_commands_total",
			Help: "Gate open commands refused by the actuator gateway.",
		}),
		LockoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airlock_lockouts_total",
			Help: "Safety lockouts entered.",
		}),
		StuckTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airlock_stuck_transitions_total",
			Help: "Stuck-transition diagnostics raised.",
		}),
		SensorFaultsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "airlock_sensor_faults_total",
			Help: "Cycles where the sensor link was unreadable or stale.",
		}),
		CurrentState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "airlock_state",
			Help: "Current sequencer state, as the state's ordinal.",
		}),
	}

	reg.MustRegister(
		m.CyclesTotal, m.TransitionsTotal, m.RejectedTotal,
		m.LockoutsTotal, m.StuckTotal, m.SensorFaultsTotal,
		m.CurrentState,
	)
	return m
}
