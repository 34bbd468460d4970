package Burgers2D

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Steps           prometheus.Counter
	Restarts        prometheus.Counter
	Refinements     prometheus.Counter
	NonConverged    prometheus.Counter
	GMRESIterations prometheus.Histogram
	ActiveCells     prometheus.Gauge
	DOFs            prometheus.Gauge
	SimTime         prometheus.Gauge
	L2Error         prometheus.Gauge
}

// NewMetrics registers the run metrics with reg, each run owns its own registry
func NewMetrics(reg prometheus.Registerer) (mt *Metrics) {
	factory := promauto.With(reg)
	mt = &Metrics{
		Steps: factory.NewCounter(prometheus.CounterOpts{
			Name: "burgers2d_steps_total",
			Help: "Total number of executed time steps, including bootstrap passes",
		}),
		Restarts: factory.NewCounter(prometheus.CounterOpts{
			Name: "burgers2d_restarts_total",
			Help: "Number of pre-refinement restarts from t = 0",
		}),
		Refinements: factory.NewCounter(prometheus.CounterOpts{
			Name: "burgers2d_refinements_total",
			Help: "Number of mesh refinement and solution transfer passes",
		}),
		NonConverged: factory.NewCounter(prometheus.CounterOpts{
			Name: "burgers2d_gmres_nonconverged_total",
			Help: "Number of linear solves that stopped at the iteration cap",
		}),
		GMRESIterations: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "burgers2d_gmres_iterations",
			Help:    "GMRES iterations per time step",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}),
		ActiveCells: factory.NewGauge(prometheus.GaugeOpts{
			Name: "burgers2d_active_cells",
			Help: "Current number of active cells",
		}),
		DOFs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "burgers2d_dofs",
			Help: "Current number of degrees of freedom",
		}),
		SimTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "burgers2d_simulation_time",
			Help: "Current simulation time",
		}),
		L2Error: factory.NewGauge(prometheus.GaugeOpts{
			Name: "burgers2d_l2_error",
			Help: "L2 error against the reference solution at the last step",
		}),
	}
	return
}
