package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridsim/bevflow/core/model"
)

func intp(v int) *int { return &v }

func TestMergeKeepsBaseWhenUnset(t *testing.T) {
	base := DayRule{MaxTrips: intp(3), EarliestDepartureHour: intp(6)}
	r := ForGroup("commuter", nil, base)
	require.Equal(t, 3, *r.Weekday.MaxTrips)
	require.Equal(t, 6, *r.Weekend.EarliestDepartureHour)
}

func TestMergeOverridesExplicitZero(t *testing.T) {
	base := DayRule{MaxTrips: intp(3)}
	overrides := map[string]GroupOverride{
		"retiree": {Weekend: DayRule{MaxTrips: intp(0)}},
	}
	r := ForGroup("retiree", overrides, base)
	require.Equal(t, 3, *r.Weekday.MaxTrips)
	require.Equal(t, 0, *r.Weekend.MaxTrips)
}

func TestMergeDestinations(t *testing.T) {
	base := DayRule{Destinations: []model.Location{model.LocWorkplace, model.LocShopping}}
	overrides := map[string]GroupOverride{
		"commuter": {Weekday: DayRule{Destinations: []model.Location{model.LocWorkplace}}},
	}
	r := ForGroup("commuter", overrides, base)
	require.Equal(t, []model.Location{model.LocWorkplace}, r.Weekday.Destinations)
	require.Equal(t, base.Destinations, r.Weekend.Destinations)
}

func TestResolveDefaults(t *testing.T) {
	l := DayRule{}.Resolve()
	require.Equal(t, 5, l.MaxTrips)
	require.Equal(t, 5, l.EarliestHour)
	require.Equal(t, 23, l.LatestHour)
	require.Equal(t, 30, l.MinStayMinutes)
	require.Equal(t, model.Destinations, l.Destinations)
}

func TestLimitsAllows(t *testing.T) {
	l := DayRule{Destinations: []model.Location{model.LocWorkplace}}.Resolve()
	require.True(t, l.Allows(model.LocWorkplace))
	require.False(t, l.Allows(model.LocLeisure))
	// Returning home is always permitted.
	require.True(t, l.Allows(model.LocHome))
}

func TestBuildAndGet(t *testing.T) {
	table := Build([]string{"commuter", "retiree"}, nil, DayRule{})
	_, err := Get(table, "commuter")
	require.NoError(t, err)
	_, err = Get(table, "student")
	require.Error(t, err)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	data := `
base:
  max_trips: 4
  earliest_departure_hour: 6
groups:
  commuter:
    weekday:
      destinations: [workplace]
    weekend:
      max_trips: 2
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, *f.Base.MaxTrips)

	r := ForGroup("commuter", f.Groups, f.Base)
	require.Equal(t, []model.Location{model.LocWorkplace}, r.Weekday.Destinations)
	require.Equal(t, 2, *r.Weekend.MaxTrips)
	require.Equal(t, 6, *r.Weekend.EarliestDepartureHour)
}

func TestDecodeJSON(t *testing.T) {
	data := `{"base":{"max_trips":1},"groups":{}}`
	f, err := Decode(strings.NewReader(data), "json")
	require.NoError(t, err)
	require.Equal(t, 1, *f.Base.MaxTrips)

	_, err = Decode(strings.NewReader(data), "toml")
	require.Error(t, err)
}

func TestWriteMergedTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "merged.yaml")
	f := File{Base: DayRule{MaxTrips: intp(3)}}
	require.NoError(t, Write(path, []string{"commuter"}, f))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "commuter")
}
