package charging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridsim/bevflow/core/model"
)

func series(vals ...float64) *model.TimeSeries {
	ref := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	ts := model.NewTimeSeries(ref, time.Hour, len(vals))
	copy(ts.Values, vals)
	return ts
}

func TestBatteryCharge(t *testing.T) {
	b := Battery{CapacityKWh: 10, Soc: 0.5, ChargeRateKW: 4}

	// Rate limit applies before headroom.
	got := b.Charge(11, time.Hour)
	require.Equal(t, 4.0, got)
	require.InDelta(t, 0.9, b.Soc, 1e-9)

	// Only 1 kWh headroom left: power is cut to fit.
	got = b.Charge(4, time.Hour)
	require.InDelta(t, 1.0, got, 1e-9)
	require.InDelta(t, 1.0, b.Soc, 1e-9)

	require.Zero(t, b.Charge(4, time.Hour))
}

func TestBatteryDrain(t *testing.T) {
	b := Battery{CapacityKWh: 10, Soc: 0.3}
	require.Zero(t, b.Drain(2))
	require.InDelta(t, 0.1, b.Soc, 1e-9)

	unmet := b.Drain(5)
	require.InDelta(t, 4.0, unmet, 1e-9)
	require.Zero(t, b.Soc)
}

func TestImmediateChargesAtFullPower(t *testing.T) {
	in := Input{
		Consumption: series(0, 4, 0, 0),
		Charger:     series(11, 0, 11, 11),
		Battery:     Battery{CapacityKWh: 40, Soc: 0.5, ChargeRateKW: 11},
	}
	res, err := Immediate{}.Plan(in)
	require.NoError(t, err)

	power, soc := res.PowerKW, res.SoC
	// Unplugged while driving.
	require.Zero(t, power.Values[1])
	// Plugged again: full power until the battery fills up.
	require.Equal(t, 11.0, power.Values[2])
	require.Zero(t, res.UnmetKWh)
	require.GreaterOrEqual(t, soc.Values[3], soc.Values[2])
	for _, v := range soc.Values {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
}

func TestBalancedSpreadsLoad(t *testing.T) {
	// 8 plugged hours, 20 kWh missing: balanced should draw 2.5 kW flat
	// where immediate would start at 11 kW.
	charger := series(11, 11, 11, 11, 11, 11, 11, 11)
	cons := series(0, 0, 0, 0, 0, 0, 0, 0)
	b := Battery{CapacityKWh: 40, Soc: 0.5, ChargeRateKW: 11}

	bal, err := Balanced{}.Plan(Input{Consumption: cons, Charger: charger, Battery: b})
	require.NoError(t, err)
	imm, err := Immediate{}.Plan(Input{Consumption: cons, Charger: charger, Battery: b})
	require.NoError(t, err)

	require.InDelta(t, 2.5, bal.PowerKW.Values[0], 1e-9)
	require.InDelta(t, 2.5, bal.PowerKW.Values[7], 1e-9)
	require.Equal(t, 11.0, imm.PowerKW.Values[0])

	// Both end up with the same energy delivered.
	require.InDelta(t, imm.PowerKW.Sum(), bal.PowerKW.Sum(), 1e-9)
}

func TestBalancedRespectsChargerRating(t *testing.T) {
	// One plugged hour at a 3.7 kW charger cannot cover 20 kWh.
	charger := series(3.7, 0)
	cons := series(0, 0)
	b := Battery{CapacityKWh: 40, Soc: 0.5, ChargeRateKW: 11}

	res, err := Balanced{}.Plan(Input{Consumption: cons, Charger: charger, Battery: b})
	require.NoError(t, err)
	require.InDelta(t, 3.7, res.PowerKW.Values[0], 1e-9)
}

func TestPlanReportsUnmetDemand(t *testing.T) {
	// A 5 kWh battery cannot cover an 8 kWh trip.
	in := Input{
		Consumption: series(0, 8, 0, 0),
		Charger:     series(11, 0, 11, 11),
		Battery:     Battery{CapacityKWh: 5, Soc: 1, ChargeRateKW: 11},
	}
	res, err := Immediate{}.Plan(in)
	require.NoError(t, err)
	require.InDelta(t, 3.0, res.UnmetKWh, 1e-9)
	require.Zero(t, res.SoC.Values[1])
}

func TestFindWindows(t *testing.T) {
	ws := findWindows(series(0, 11, 11, 0, 22, 22))
	require.Equal(t, []window{{start: 1, end: 3}, {start: 4, end: 6}}, ws)
	require.Nil(t, windowAt(ws, 0))
	require.Equal(t, &ws[1], windowAt(ws, 5))
}

func TestNewStrategy(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	require.Equal(t, "immediate", s.Name())

	_, err = New("psychic")
	require.Error(t, err)
}

func TestApply(t *testing.T) {
	ref := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	mkProfile := func(kind model.ProfileKind, name string, series map[string]*model.TimeSeries) *model.Profile {
		return &model.Profile{Name: name, Kind: kind, Group: "commuter", CreatedAt: ref, Series: series}
	}
	cons := mkProfile(model.KindConsumption, "cons", map[string]*model.TimeSeries{
		model.SeriesConsumptionKWh: series(0, 2, 0, 0),
	})
	avail := mkProfile(model.KindAvailability, "avail", map[string]*model.TimeSeries{
		model.SeriesChargerKW: series(11, 0, 11, 11),
	})

	p, err := Apply(Immediate{}, cons, avail, Battery{CapacityKWh: 40, Soc: 0.9, ChargeRateKW: 11})
	require.NoError(t, err)
	require.Equal(t, model.KindCharging, p.Kind)
	require.Equal(t, "immediate", p.Meta["strategy"])
	require.NotContains(t, p.Meta, "unmet_kwh", "demand fully covered")
	_, err = p.Get(model.SeriesSoC)
	require.NoError(t, err)

	undersized, err := Apply(Immediate{}, cons, avail, Battery{CapacityKWh: 1, Soc: 1, ChargeRateKW: 11})
	require.NoError(t, err)
	require.Equal(t, "1.000", undersized.Meta["unmet_kwh"])

	_, err = Apply(Immediate{}, avail, cons, Battery{CapacityKWh: 40})
	require.Error(t, err)
}
