package energy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridsim/bevflow/core/model"
)

func TestSolveLongHorizonInDailyBlocks(t *testing.T) {
	h := hourly(t, 216) // nine days, solved as nine blocks
	loss := h.Series()
	for d := 0; d < 9; d++ {
		loss.Values[d*24+12] = 1
	}

	sys := NewSystem(h)
	sys.AddBus("electricity")
	sys.AddSource(Source{Label: "grid", Bus: "electricity", Flow: Flow{NominalKW: 30, CostPerKWh: 10}})
	sys.AddSink(Sink{Label: "demand", Bus: "electricity", Flow: Flow{Fix: ones(h), NominalKW: 1}})
	sys.AddStorage(Storage{
		Label: "battery", Bus: "electricity",
		CapacityKWh: 10, MinLevel: 0, MaxLevel: 1, InitialLevel: 0.5,
		Balanced: true, LossKWh: loss,
	})

	res, err := sys.Solve()
	require.NoError(t, err)
	// 216 kWh of demand plus 9 kWh of losses, all imported at 10/kWh.
	require.InDelta(t, 2250, res.Objective, 1e-4)

	level := res.Levels["battery"]
	require.Equal(t, h.Periods, level.Len())
	for d := 0; d < 9; d++ {
		require.InDelta(t, 5, level.Values[d*24+23], 1e-6, "day %d ends at the initial level", d)
	}

	grid := res.Flows["grid"]
	require.Equal(t, h.Periods, grid.Len())
	require.InDelta(t, 225, grid.Sum(), 1e-4)
}

func TestSolveWeekAtQuarterHourResolution(t *testing.T) {
	if testing.Short() {
		t.Skip("multi-day solve")
	}

	ref := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	h, err := model.NewHorizon(ref, 168, 15)
	require.NoError(t, err)
	require.Equal(t, 672, h.Periods)

	atHome := h.Series()
	loss := h.Series()
	for i := range atHome.Values {
		hour := (i / 4) % 24
		if hour < 8 || hour >= 17 {
			atHome.Values[i] = 1
		} else if hour == 8 || hour == 16 {
			loss.Values[i] = 0.5 // commute legs
		}
	}
	demand := ones(h)

	sys := NewSystem(h)
	sys.AddBus("electricity")
	sys.AddBus("mobility")
	sys.AddSource(Source{Label: "grid", Bus: "electricity", Flow: Flow{NominalKW: 30, CostPerKWh: 30}})
	sys.AddSink(Sink{Label: "demand", Bus: "electricity", Flow: Flow{Fix: demand, NominalKW: 0.5}})
	sys.AddSink(Sink{Label: "excess", Bus: "electricity", Flow: Flow{CostPerKWh: -7.9}})
	sys.AddConverter(Converter{
		Label: "wallbox", FromBus: "electricity", ToBus: "mobility",
		Efficiency: 1, MaxKW: 11, Max: atHome,
	})
	sys.AddStorage(Storage{
		Label: "bev", Bus: "mobility",
		CapacityKWh: 45, MinLevel: 0.4, MaxLevel: 0.95, InitialLevel: 0.95,
		Balanced: true, LossKWh: loss,
	})

	res, err := sys.Solve()
	require.NoError(t, err)

	wallbox := res.Flows["wallbox"]
	require.Equal(t, 672, wallbox.Len())
	// 28 kWh of commuting over the week has to come back through the wallbox.
	require.InDelta(t, 28, wallbox.EnergyKWh(), 1e-4)

	level := res.Levels["bev"]
	require.InDelta(t, 0.95*45, level.Values[level.Len()-1], 1e-4, "week ends at the initial level")
}
