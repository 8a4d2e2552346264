package plugins

import (
	"github.com/gridsim/bevflow/core/charging"
	coremetrics "github.com/gridsim/bevflow/core/metrics"
	inframetrics "github.com/gridsim/bevflow/infra/metrics"
)

func init() {
	RegisterStrategy("immediate", func(_ map[string]any) (charging.Strategy, error) {
		return charging.New("immediate")
	})
	RegisterStrategy("balanced", func(_ map[string]any) (charging.Strategy, error) {
		return charging.New("balanced")
	})

	RegisterSink("prometheus", func(_ coremetrics.Config) (coremetrics.Sink, error) {
		return inframetrics.NewPromSink()
	})
	RegisterSink("influx", func(cfg coremetrics.Config) (coremetrics.Sink, error) {
		return inframetrics.NewInfluxSinkWithFallback(cfg), nil
	})
	RegisterSink("nop", func(_ coremetrics.Config) (coremetrics.Sink, error) {
		return coremetrics.NopSink{}, nil
	})
}
