// Package metrics defines the sink interface the pipeline reports to.
package metrics

import "time"

// StageEvent records one completed pipeline stage.
type StageEvent struct {
	Stage    string // mobility, consumption, charging, solve, export
	Group    string // user group when applicable
	Profiles int    // profiles produced by the stage
	Duration time.Duration
	Err      error
}

// SolveEvent records the outcome of an energy-system solve.
type SolveEvent struct {
	Scenario  string
	Periods   int
	Objective float64
	Feasible  bool
	Duration  time.Duration
	Time      time.Time
}

// ResultPoint is one solved time step of one component flow.
type ResultPoint struct {
	Scenario  string
	Component string
	PowerKW   float64
	Time      time.Time
}

// Sink receives pipeline observability events. Implementations must be safe
// for concurrent use.
type Sink interface {
	RecordStage(StageEvent) error
	RecordSolve(SolveEvent) error
	RecordResultPoints([]ResultPoint) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordStage(StageEvent) error           { return nil }
func (NopSink) RecordSolve(SolveEvent) error           { return nil }
func (NopSink) RecordResultPoints([]ResultPoint) error { return nil }

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":9090"
	}
}
