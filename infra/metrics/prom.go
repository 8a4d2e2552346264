package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/gridsim/bevflow/core/metrics"
)

// PromSink exposes pipeline events as Prometheus metrics.
type PromSink struct {
	stages    *prometheus.CounterVec
	stageTime *prometheus.HistogramVec
	profiles  *prometheus.CounterVec
	solves    *prometheus.CounterVec
	objective prometheus.Gauge
}

// NewPromSink registers the pipeline metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer. A nil
// registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	stages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_stage_runs_total",
		Help: "Completed pipeline stages",
	}, []string{"stage", "ok"})
	stageTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Wall time per pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	profiles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_profiles_generated_total",
		Help: "Profiles produced per stage and group",
	}, []string{"stage", "group"})
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_runs_total",
		Help: "Energy system solves by feasibility",
	}, []string{"feasible"})
	objective := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solver_objective_cost",
		Help: "Objective value of the last successful solve",
	})

	s := &PromSink{stages: stages, stageTime: stageTime, profiles: profiles, solves: solves, objective: objective}
	for _, c := range []prometheus.Collector{stages, stageTime, profiles, solves, objective} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return s, nil
}

// RecordStage counts the stage run and observes its duration.
func (s *PromSink) RecordStage(ev coremetrics.StageEvent) error {
	s.stages.WithLabelValues(ev.Stage, strconv.FormatBool(ev.Err == nil)).Inc()
	s.stageTime.WithLabelValues(ev.Stage).Observe(ev.Duration.Seconds())
	if ev.Profiles > 0 {
		s.profiles.WithLabelValues(ev.Stage, ev.Group).Add(float64(ev.Profiles))
	}
	return nil
}

// RecordSolve counts the solve and updates the objective gauge.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(strconv.FormatBool(ev.Feasible)).Inc()
	if ev.Feasible {
		s.objective.Set(ev.Objective)
	}
	return nil
}

// RecordResultPoints is a no-op for Prometheus; per-step series belong in a
// time-series store, not in scrape metrics.
func (s *PromSink) RecordResultPoints([]coremetrics.ResultPoint) error { return nil }
