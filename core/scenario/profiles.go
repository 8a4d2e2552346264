package scenario

import (
	"math"

	"github.com/gridsim/bevflow/core/model"
)

// SyntheticPV returns a normalised generation profile: a daylight bell
// between 06:00 and 20:00 peaking at noon, zero at night.
func SyntheticPV(h model.Horizon) *model.TimeSeries {
	out := h.Series()
	for i := range out.Values {
		t := out.TimeAt(i)
		hour := float64(t.Hour()) + float64(t.Minute())/60
		if hour < 6 || hour > 20 {
			continue
		}
		out.Values[i] = math.Pow(math.Sin((hour-6)/14*math.Pi), 2)
	}
	return out
}

// SyntheticDemand returns a normalised household load profile: a constant
// base with morning and evening peaks. Values are multiples of the base
// load, so a Fix flow with NominalKW equal to the base reproduces kW.
func SyntheticDemand(h model.Horizon) *model.TimeSeries {
	out := h.Series()
	for i := range out.Values {
		t := out.TimeAt(i)
		hour := float64(t.Hour()) + float64(t.Minute())/60
		v := 1.0
		// Morning peak around 07:30, evening peak around 19:00.
		v += 1.5 * math.Exp(-math.Pow(hour-7.5, 2)/2)
		v += 2.5 * math.Exp(-math.Pow(hour-19, 2)/4)
		out.Values[i] = v
	}
	return out
}
