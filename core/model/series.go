package model

import (
	"fmt"
	"time"
)

// TimeSeries is an equidistant series of float values starting at Start with
// one value per Step.
type TimeSeries struct {
	Start  time.Time `json:"start"`
	Step   time.Duration `json:"step"`
	Values []float64 `json:"values"`
}

// NewTimeSeries allocates a zeroed series with n steps.
func NewTimeSeries(start time.Time, step time.Duration, n int) *TimeSeries {
	return &TimeSeries{Start: start, Step: step, Values: make([]float64, n)}
}

// Len returns the number of steps.
func (s *TimeSeries) Len() int { return len(s.Values) }

// TimeAt returns the timestamp of step i.
func (s *TimeSeries) TimeAt(i int) time.Time {
	return s.Start.Add(time.Duration(i) * s.Step)
}

// StepHours returns the step width in hours, the unit used to convert kW
// series into kWh.
func (s *TimeSeries) StepHours() float64 { return s.Step.Hours() }

// Sum returns the sum of all values.
func (s *TimeSeries) Sum() float64 {
	var t float64
	for _, v := range s.Values {
		t += v
	}
	return t
}

// EnergyKWh interprets the series as power in kW and returns the total energy.
func (s *TimeSeries) EnergyKWh() float64 { return s.Sum() * s.StepHours() }

// Scale returns a copy with every value multiplied by f.
func (s *TimeSeries) Scale(f float64) *TimeSeries {
	out := NewTimeSeries(s.Start, s.Step, s.Len())
	for i, v := range s.Values {
		out.Values[i] = v * f
	}
	return out
}

// Clone returns a deep copy of the series.
// Slice returns a view of steps [from, to) with the start shifted
// accordingly. The values share the underlying array.
func (s *TimeSeries) Slice(from, to int) *TimeSeries {
	return &TimeSeries{
		Start:  s.Start.Add(time.Duration(from) * s.Step),
		Step:   s.Step,
		Values: s.Values[from:to],
	}
}

func (s *TimeSeries) Clone() *TimeSeries {
	out := NewTimeSeries(s.Start, s.Step, s.Len())
	copy(out.Values, s.Values)
	return out
}

// CheckAligned verifies that o shares start, step and length with s.
func (s *TimeSeries) CheckAligned(o *TimeSeries) error {
	if o == nil {
		return fmt.Errorf("series is nil")
	}
	if !s.Start.Equal(o.Start) || s.Step != o.Step || s.Len() != o.Len() {
		return fmt.Errorf("series not aligned: %v/%v/%d vs %v/%v/%d",
			s.Start, s.Step, s.Len(), o.Start, o.Step, o.Len())
	}
	return nil
}

// Horizon describes the simulated time window shared by all profiles of a
// scenario.
type Horizon struct {
	Reference time.Time     // first timestamp of the window
	Step      time.Duration // resolution, e.g. 15 minutes
	Periods   int           // number of steps
}

// NewHorizon builds a horizon from a total duration in hours and a step in
// minutes, the way scenario configs express it.
func NewHorizon(reference time.Time, totalHours int, stepMinutes int) (Horizon, error) {
	if totalHours <= 0 {
		return Horizon{}, fmt.Errorf("total hours must be positive")
	}
	if stepMinutes <= 0 || 60%stepMinutes != 0 && stepMinutes%60 != 0 {
		return Horizon{}, fmt.Errorf("unsupported step of %d minutes", stepMinutes)
	}
	step := time.Duration(stepMinutes) * time.Minute
	periods := int((time.Duration(totalHours) * time.Hour) / step)
	if periods == 0 {
		return Horizon{}, fmt.Errorf("step longer than horizon")
	}
	return Horizon{Reference: reference, Step: step, Periods: periods}, nil
}

// Series allocates an empty series matching the horizon.
func (h Horizon) Series() *TimeSeries {
	return NewTimeSeries(h.Reference, h.Step, h.Periods)
}

// StepsPerDay returns how many steps fit into 24 hours.
func (h Horizon) StepsPerDay() int { return int((24 * time.Hour) / h.Step) }

// End returns the timestamp just after the last step.
func (h Horizon) End() time.Time {
	return h.Reference.Add(time.Duration(h.Periods) * h.Step)
}
