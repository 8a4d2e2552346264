package consumption

import (
	"math"

	"github.com/gridsim/bevflow/core/model"
)

// SyntheticAmbient builds a temperature series with a daily sine cycle
// around a seasonal mean. The coldest point of the day is placed at 05:00.
func SyntheticAmbient(h model.Horizon, meanC, dailyAmplitudeC float64) *model.TimeSeries {
	out := h.Series()
	for i := range out.Values {
		t := out.TimeAt(i)
		hour := float64(t.Hour()) + float64(t.Minute())/60
		phase := (hour - 5) / 24 * 2 * math.Pi
		out.Values[i] = meanC - dailyAmplitudeC*math.Cos(phase)
	}
	return out
}

// LoadAmbientCSV reads a single-column temperature CSV (header plus one value
// per step) aligned to the horizon.
func LoadAmbientCSV(path string, h model.Horizon) (*model.TimeSeries, error) {
	return model.LoadSeriesCSV(path, h)
}
