package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridsim/bevflow/core/energy"
	"github.com/gridsim/bevflow/core/model"
)

var testStart = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

func series(values ...float64) *model.TimeSeries {
	ts := model.NewTimeSeries(testStart, time.Hour, len(values))
	copy(ts.Values, values)
	return ts
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteProfile(t *testing.T) {
	p := &model.Profile{
		Name: "p1",
		Kind: model.KindDriving,
		Locations: []model.Location{
			model.LocHome, model.LocDriving, model.LocWorkplace,
		},
		Series: map[string]*model.TimeSeries{
			model.SeriesKm: series(0, 12.5, 0),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProfile(&buf, p))

	rows := parseCSV(t, buf.Bytes())
	require.Len(t, rows, 4)
	require.Equal(t, []string{"time", model.SeriesKm, "location"}, rows[0])
	require.Equal(t, "2022-01-03T00:00:00Z", rows[1][0])
	require.Equal(t, "12.5", rows[2][1])
	require.Equal(t, "driving", rows[2][2])
}

func TestWriteProfileNoSeries(t *testing.T) {
	var buf bytes.Buffer
	err := WriteProfile(&buf, &model.Profile{Name: "empty"})
	require.Error(t, err)
}

func TestExportProfile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	p := &model.Profile{
		Name:   "p1",
		Kind:   model.KindConsumption,
		Series: map[string]*model.TimeSeries{model.SeriesConsumptionKWh: series(1, 2)},
	}

	path, err := ExportProfile(dir, p)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "p1.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, parseCSV(t, data), 3)
}

func TestWriteResult(t *testing.T) {
	res := &energy.Result{
		Objective: 42,
		Flows: map[string]*model.TimeSeries{
			"grid-supply": series(2, 0),
			"wallbox":     series(11, 0),
		},
		Levels: map[string]*model.TimeSeries{
			"bev-storage": series(40, 38),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, res))

	rows := parseCSV(t, buf.Bytes())
	require.Equal(t, []string{"time", "grid-supply_kw", "wallbox_kw", "bev-storage_kwh"}, rows[0])
	require.Equal(t, "11", rows[1][2])
	require.Equal(t, "38", rows[2][3])
}

func TestWriteResultNoFlows(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteResult(&buf, &energy.Result{}))
}

func TestExportResult(t *testing.T) {
	dir := t.TempDir()
	res := &energy.Result{Flows: map[string]*model.TimeSeries{"grid-supply": series(1)}}

	path, err := ExportResult(dir, "household_p1", res)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "household_p1.csv"), path)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestWriteScenarioInputSkipsNilColumns(t *testing.T) {
	in := ScenarioInput{
		AtHome:         series(1, 0),
		ConsumptionKWh: series(0, 2.5),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteScenarioInput(&buf, in))

	rows := parseCSV(t, buf.Bytes())
	require.Equal(t, []string{"time", "bev_at_home", "consumption_kwh"}, rows[0])
	require.Equal(t, []string{"2022-01-03T01:00:00Z", "0", "2.5"}, rows[2])
}

func TestWriteScenarioInputEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteScenarioInput(&buf, ScenarioInput{}))
}
