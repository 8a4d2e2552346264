package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testProfile(t *testing.T) *Profile {
	t.Helper()
	ref := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	km := NewTimeSeries(ref, time.Hour, 4)
	km.Values[1] = 12
	return &Profile{
		Name:      "BEV_commuter_test",
		Kind:      KindDriving,
		Group:     "commuter",
		CreatedAt: time.Now().UTC(),
		Locations: []Location{LocHome, LocDriving, LocWorkplace, LocWorkplace},
		Series:    map[string]*TimeSeries{SeriesKm: km},
	}
}

func TestProfileValidate(t *testing.T) {
	p := testProfile(t)
	require.NoError(t, p.Validate())

	p.Kind = "unknown"
	require.Error(t, p.Validate())

	p = testProfile(t)
	p.Locations = p.Locations[:2]
	require.Error(t, p.Validate())

	p = testProfile(t)
	ref := p.Series[SeriesKm].Start
	p.Series["other"] = NewTimeSeries(ref, 30*time.Minute, 4)
	require.Error(t, p.Validate())
}

func TestProfileAtLocation(t *testing.T) {
	p := testProfile(t)
	at, err := p.AtLocation(LocWorkplace)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 1, 1}, at.Values)

	p.Locations = nil
	_, err = p.AtLocation(LocHome)
	require.Error(t, err)
}

func TestProfileGet(t *testing.T) {
	p := testProfile(t)
	_, err := p.Get(SeriesKm)
	require.NoError(t, err)
	_, err = p.Get(SeriesSoC)
	require.Error(t, err)
}

func TestLoadSeriesCSV(t *testing.T) {
	ref := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	h, err := NewHorizon(ref, 3, 60)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ambient.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,value\n0,1.5\n1,2.5\n2,-3\n"), 0o644))

	ts, err := LoadSeriesCSV(path, h)
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 2.5, -3}, ts.Values)
}

func TestLoadSeriesCSVTooShort(t *testing.T) {
	ref := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	h, err := NewHorizon(ref, 4, 60)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "short.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,value\n0,1\n"), 0o644))

	_, err = LoadSeriesCSV(path, h)
	require.Error(t, err)
}
