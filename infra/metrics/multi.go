package metrics

import (
	"errors"

	coremetrics "github.com/gridsim/bevflow/core/metrics"
)

// MultiSink fans events out to several sinks, collecting all errors.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordStage(ev coremetrics.StageEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordStage(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordSolve(ev coremetrics.SolveEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordSolve(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordResultPoints(points []coremetrics.ResultPoint) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordResultPoints(points); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
