package energy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/gridsim/bevflow/core/model"
)

// Result holds the optimal dispatch of a solved system.
type Result struct {
	// Objective is the total dispatch cost over the horizon.
	Objective float64
	// Flows holds one kW series per component. Storages contribute
	// "<label>_charge" and "<label>_discharge" entries.
	Flows map[string]*model.TimeSeries
	// Levels holds the storage energy content in kWh.
	Levels map[string]*model.TimeSeries
}

// SoC returns a storage level normalised by its capacity.
func (r *Result) SoC(st Storage) (*model.TimeSeries, error) {
	level, ok := r.Levels[st.Label]
	if !ok {
		return nil, fmt.Errorf("no level series for storage %q", st.Label)
	}
	return level.Scale(1 / st.CapacityKWh), nil
}

// directSolveLimit is the largest horizon solved as a single LP. Beyond it
// the dense simplex grows too fast, so Solve falls back to chaining daily
// blocks.
const directSolveLimit = 192

// Solve runs the dispatch optimization and extracts per-component series.
// An infeasible or failed solve returns ErrInfeasible; results are never
// silently clamped. Horizons longer than directSolveLimit are solved one day
// at a time with storage levels carried across the blocks; balanced storages
// return to their initial level every day, which is also how the synthetic
// PV and demand profiles repeat.
func (s *System) Solve() (*Result, error) {
	block := s.Horizon.StepsPerDay()
	if s.Horizon.Periods <= directSolveLimit || block < 2 {
		return s.solveWhole()
	}

	res := &Result{
		Flows:  make(map[string]*model.TimeSeries),
		Levels: make(map[string]*model.TimeSeries),
	}
	levels := make(map[string]float64)
	for from := 0; from < s.Horizon.Periods; from += block {
		to := from + block
		if to > s.Horizon.Periods {
			to = s.Horizon.Periods
		}
		sub, err := s.window(from, to, levels).solveWhole()
		if err != nil {
			return nil, fmt.Errorf("steps %d-%d: %w", from, to, err)
		}
		res.Objective += sub.Objective
		for label, ts := range sub.Flows {
			s.paste(res.Flows, label, from, ts)
		}
		for label, ts := range sub.Levels {
			s.paste(res.Levels, label, from, ts)
		}
		for _, st := range s.Storages {
			lv, ok := sub.Levels[st.Label]
			if !ok || lv.Len() == 0 {
				continue
			}
			frac := lv.Values[lv.Len()-1] / st.CapacityKWh
			// Numerical dust must not push the next block out of bounds.
			frac = math.Min(math.Max(frac, st.MinLevel), st.MaxLevel)
			levels[st.Label] = frac
		}
	}
	return res, nil
}

// window copies the system restricted to steps [from, to), overriding the
// storage start levels with the carried fractions.
func (s *System) window(from, to int, levels map[string]float64) *System {
	h := model.Horizon{
		Reference: s.Horizon.Reference.Add(time.Duration(from) * s.Horizon.Step),
		Step:      s.Horizon.Step,
		Periods:   to - from,
	}
	cut := func(ts *model.TimeSeries) *model.TimeSeries {
		if ts == nil {
			return nil
		}
		return ts.Slice(from, to)
	}
	w := NewSystem(h)
	w.Buses = s.Buses
	for _, src := range s.Sources {
		src.Flow.Fix = cut(src.Flow.Fix)
		src.Flow.Max = cut(src.Flow.Max)
		w.Sources = append(w.Sources, src)
	}
	for _, sk := range s.Sinks {
		sk.Flow.Fix = cut(sk.Flow.Fix)
		sk.Flow.Max = cut(sk.Flow.Max)
		w.Sinks = append(w.Sinks, sk)
	}
	for _, st := range s.Storages {
		st.LossKWh = cut(st.LossKWh)
		if frac, ok := levels[st.Label]; ok {
			st.InitialLevel = frac
		}
		w.Storages = append(w.Storages, st)
	}
	for _, c := range s.Converters {
		c.Max = cut(c.Max)
		w.Converters = append(w.Converters, c)
	}
	return w
}

func (s *System) paste(dst map[string]*model.TimeSeries, label string, from int, src *model.TimeSeries) {
	full, ok := dst[label]
	if !ok {
		full = s.Horizon.Series()
		dst[label] = full
	}
	copy(full.Values[from:], src.Values)
}

func (s *System) solveWhole() (*Result, error) {
	p, err := s.build()
	if err != nil {
		return nil, err
	}
	sol, opt, err := lpSolve(p)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) || errors.Is(err, lp.ErrUnbounded) {
			return nil, fmt.Errorf("%w: %v", ErrInfeasible, err)
		}
		return nil, fmt.Errorf("solve energy system: %w", err)
	}

	res := &Result{
		Objective: opt,
		Flows:     make(map[string]*model.TimeSeries),
		Levels:    make(map[string]*model.TimeSeries),
	}
	series := func(key string) *model.TimeSeries {
		ts, ok := res.Flows[key]
		if !ok {
			ts = s.Horizon.Series()
			res.Flows[key] = ts
		}
		return ts
	}

	for i, v := range p.vars {
		val := sol[i]
		// Numerical dust from the simplex.
		if val < 0 && val > -1e-6 {
			val = 0
		}
		switch v.kind {
		case varSource, varSink, varConverter:
			series(v.label).Values[v.step] = val
		case varCharge:
			series(v.label + "_charge").Values[v.step] = val
		case varDischarge:
			series(v.label + "_discharge").Values[v.step] = val
		case varLevel:
			level, ok := res.Levels[v.label]
			if !ok {
				level = s.Horizon.Series()
				res.Levels[v.label] = level
			}
			level.Values[v.step] = val
		}
	}

	// Fixed flows were substituted during the build; reconstruct them so
	// results cover every component.
	for _, src := range s.Sources {
		if src.Flow.Fix != nil {
			res.Flows[src.Label] = src.Flow.Fix.Scale(src.Flow.NominalKW)
		}
	}
	for _, sk := range s.Sinks {
		if sk.Flow.Fix != nil {
			res.Flows[sk.Label] = sk.Flow.Fix.Scale(sk.Flow.NominalKW)
		}
	}
	return res, nil
}
