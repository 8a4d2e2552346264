package plugins

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridsim/bevflow/core/charging"
	coremetrics "github.com/gridsim/bevflow/core/metrics"
)

func TestBuiltinStrategies(t *testing.T) {
	for _, name := range []string{"immediate", "balanced"} {
		s, err := Strategy(name, nil)
		require.NoError(t, err, name)
		require.NotNil(t, s, name)
	}
}

func TestUnknownStrategy(t *testing.T) {
	_, err := Strategy("greedy", nil)
	require.ErrorContains(t, err, "unknown charging strategy")
}

func TestRegisterStrategy(t *testing.T) {
	RegisterStrategy("test-noop", func(conf map[string]any) (charging.Strategy, error) {
		return charging.New("immediate")
	})
	defer delete(Strategies, "test-noop")

	s, err := Strategy("test-noop", map[string]any{"ignored": true})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestBuiltinSinks(t *testing.T) {
	s, err := Sink("nop", coremetrics.Config{})
	require.NoError(t, err)
	require.IsType(t, coremetrics.NopSink{}, s)

	_, err = Sink("graphite", coremetrics.Config{})
	require.ErrorContains(t, err, "unknown metrics sink")
}
