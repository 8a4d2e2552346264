// Package plugins holds named factories for the pluggable pieces of the
// pipeline so alternative implementations can be registered without touching
// the orchestration code.
package plugins

import (
	"fmt"

	"github.com/gridsim/bevflow/core/charging"
	coremetrics "github.com/gridsim/bevflow/core/metrics"
)

// StrategyFactory builds a charging strategy from a raw parameter map.
type StrategyFactory func(conf map[string]any) (charging.Strategy, error)

// SinkFactory builds a metrics sink from the metrics configuration.
type SinkFactory func(cfg coremetrics.Config) (coremetrics.Sink, error)

var (
	Strategies = map[string]StrategyFactory{}
	Sinks      = map[string]SinkFactory{}
)

func RegisterStrategy(name string, f StrategyFactory) { Strategies[name] = f }
func RegisterSink(name string, f SinkFactory)         { Sinks[name] = f }

// Strategy resolves a registered charging strategy by name.
func Strategy(name string, conf map[string]any) (charging.Strategy, error) {
	f, ok := Strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown charging strategy %q", name)
	}
	return f(conf)
}

// Sink resolves a registered metrics sink by name.
func Sink(name string, cfg coremetrics.Config) (coremetrics.Sink, error) {
	f, ok := Sinks[name]
	if !ok {
		return nil, fmt.Errorf("unknown metrics sink %q", name)
	}
	return f(cfg)
}
