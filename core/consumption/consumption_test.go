package consumption

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridsim/bevflow/core/model"
)

func flatAmbient(h model.Horizon, tempC float64) *model.TimeSeries {
	out := h.Series()
	for i := range out.Values {
		out.Values[i] = tempC
	}
	return out
}

func drivingProfile(t *testing.T, h model.Horizon) *model.Profile {
	t.Helper()
	km := h.Series()
	locations := make([]model.Location, h.Periods)
	for i := range locations {
		locations[i] = model.LocHome
	}
	// One 30 km commute split over two steps in the morning.
	km.Values[32] = 15
	km.Values[33] = 15
	locations[32] = model.LocDriving
	locations[33] = model.LocDriving
	for i := 34; i < h.Periods; i++ {
		locations[i] = model.LocWorkplace
	}
	p := &model.Profile{
		Name:      "BEV_commuter_fixture",
		Kind:      model.KindDriving,
		Group:     "commuter",
		CreatedAt: time.Now().UTC(),
		Locations: locations,
		Series:    map[string]*model.TimeSeries{model.SeriesKm: km},
	}
	require.NoError(t, p.Validate())
	return p
}

func testSpec(t *testing.T) model.VehicleSpec {
	t.Helper()
	spec, err := NewCatalog().Model("Volkswagen", "ID.3", 2020)
	require.NoError(t, err)
	return spec
}

func TestRunProducesPlausibleConsumption(t *testing.T) {
	ref := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	h, err := model.NewHorizon(ref, 24, 15)
	require.NoError(t, err)

	sim, err := NewSimulator(testSpec(t), flatAmbient(h, 20), DefaultSettings())
	require.NoError(t, err)

	p, err := sim.Run(drivingProfile(t, h))
	require.NoError(t, err)
	require.Equal(t, model.KindConsumption, p.Kind)
	require.Equal(t, "BEV_commuter_fixture", p.Source)
	require.Equal(t, "Volkswagen ID.3 2020", p.Meta["vehicle"])

	cons, err := p.Get(model.SeriesConsumptionKWh)
	require.NoError(t, err)
	// A 30 km mixed commute should land between 8 and 35 kWh/100km.
	perHundred := cons.Sum() / 30 * 100
	require.Greater(t, perHundred, 8.0)
	require.Less(t, perHundred, 35.0)

	// No consumption while parked.
	require.Zero(t, cons.Values[0])
	require.Zero(t, cons.Values[40])
}

func TestRunColdWeatherCostsMore(t *testing.T) {
	ref := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	h, err := model.NewHorizon(ref, 24, 15)
	require.NoError(t, err)
	driving := drivingProfile(t, h)

	mild, err := NewSimulator(testSpec(t), flatAmbient(h, 20), DefaultSettings())
	require.NoError(t, err)
	cold, err := NewSimulator(testSpec(t), flatAmbient(h, -10), DefaultSettings())
	require.NoError(t, err)

	pMild, err := mild.Run(driving)
	require.NoError(t, err)
	pCold, err := cold.Run(driving)
	require.NoError(t, err)

	require.Greater(t,
		pCold.Series[model.SeriesConsumptionKWh].Sum(),
		pMild.Series[model.SeriesConsumptionKWh].Sum())
}

func TestRunRejectsWrongKind(t *testing.T) {
	ref := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	h, err := model.NewHorizon(ref, 24, 15)
	require.NoError(t, err)
	sim, err := NewSimulator(testSpec(t), flatAmbient(h, 10), DefaultSettings())
	require.NoError(t, err)

	p := drivingProfile(t, h)
	p.Kind = model.KindCharging
	_, err = sim.Run(p)
	require.Error(t, err)
}

func TestSyntheticAmbientCycle(t *testing.T) {
	ref := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	h, err := model.NewHorizon(ref, 24, 60)
	require.NoError(t, err)

	ts := SyntheticAmbient(h, 2, 4)
	// Coldest at 05:00, warmest twelve hours later.
	require.InDelta(t, -2, ts.Values[5], 1e-9)
	require.InDelta(t, 6, ts.Values[17], 1e-9)
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	require.NotEmpty(t, c.Keys())

	_, err := c.Model("Acme", "Roadster", 2030)
	require.Error(t, err)

	spec, err := c.Model("Nissan", "Leaf", 2018)
	require.NoError(t, err)
	require.Equal(t, 40.0, spec.BatteryKWh)
}

func TestLoadCatalogAppliesFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := `
- manufacturer: Acme
  model: Roadster
  year: 2030
  battery_kwh: 90
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)

	spec, err := c.Model("Acme", "Roadster", 2030)
	require.NoError(t, err)
	require.Equal(t, 90.0, spec.BatteryKWh)
	// Unset fields come from the fallback parameters.
	require.Equal(t, 1800.0, spec.MassKg)
	require.Equal(t, 0.90, spec.DrivetrainEff)
}
