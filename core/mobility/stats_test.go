package mobility

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridsim/bevflow/core/model"
)

func writeStatsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		TripsPerDayFile: "day_type,trips,weight\n" +
			"weekday,2,0.6\nweekday,3,0.4\nweekend,1,1\n",
		DepartureDestinationFile: "day_type,hour,destination,weight\n" +
			"weekday,8,workplace,0.7\nweekday,17,home,0.3\nweekend,10,shopping,1\n",
		DistanceDurationFile: "destination,km_min,km_max,minutes_min,minutes_max,weight\n" +
			"workplace,10,25,20,45,0.8\nshopping,2,6,10,20,0.2\n",
	}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
	}
	return dir
}

func TestLoadStats(t *testing.T) {
	s, err := LoadStats(writeStatsDir(t))
	require.NoError(t, err)
	require.Len(t, s.TripsPerDay["weekday"], 2)
	require.Len(t, s.Departures["weekend"], 1)
	require.Equal(t, model.LocWorkplace, s.Departures["weekday"][0].Destination)
	require.Len(t, s.Distances, 2)
	require.Equal(t, 25.0, s.Distances[0].KmMax)
}

func TestLoadStatsMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadStats(dir)
	require.Error(t, err)
}

func TestStatsValidate(t *testing.T) {
	s := testStats()
	require.NoError(t, s.Validate())

	s.TripsPerDay["weekend"] = nil
	require.Error(t, s.Validate())

	s = testStats()
	s.Distances[0].KmMax = 1 // below KmMin
	require.Error(t, s.Validate())
}
