package scenarios

import (
	"errors"
	"fmt"

	"github.com/gridsim/bevflow/core/energy"
	"github.com/gridsim/bevflow/core/model"
	"github.com/gridsim/bevflow/core/scenario"
)

// Outcome summarises a solved case.
type Outcome struct {
	Feasible  bool
	Objective float64
	Result    *energy.Result
}

// Run builds the household system from the definition and solves it.
func Run(sc Scenario) (Outcome, error) {
	ref, err := sc.reference()
	if err != nil {
		return Outcome{}, err
	}
	hours := sc.Hours
	if hours == 0 {
		hours = 24
	}
	step := sc.StepMinutes
	if step == 0 {
		step = 60
	}
	h, err := model.NewHorizon(ref, hours, step)
	if err != nil {
		return Outcome{}, err
	}

	bev := buildBEV(sc.BEV, h)
	sys, err := scenario.Build(sc.System.ToConfig(), h, bev)
	if err != nil {
		return Outcome{}, fmt.Errorf("build %s: %w", sc.Name, err)
	}
	res, err := sys.Solve()
	if err != nil {
		if errors.Is(err, energy.ErrInfeasible) {
			return Outcome{Feasible: false}, nil
		}
		return Outcome{}, fmt.Errorf("solve %s: %w", sc.Name, err)
	}
	return Outcome{Feasible: true, Objective: res.Objective, Result: res}, nil
}

// Check compares an outcome against the scenario expectations.
func Check(sc Scenario, out Outcome) error {
	if out.Feasible != sc.Expected.Feasible {
		return fmt.Errorf("%s: feasible=%v, want %v", sc.Name, out.Feasible, sc.Expected.Feasible)
	}
	if !out.Feasible {
		return nil
	}
	if m := sc.Expected.MaxObjective; m != 0 && out.Objective > m {
		return fmt.Errorf("%s: objective %.2f above bound %.2f", sc.Name, out.Objective, m)
	}
	if m := sc.Expected.MinObjective; m != 0 && out.Objective < m {
		return fmt.Errorf("%s: objective %.2f below bound %.2f", sc.Name, out.Objective, m)
	}
	return nil
}

func buildBEV(def BEVDef, h model.Horizon) scenario.BEVInput {
	atHome := h.Series()
	cons := h.Series()
	for i := 0; i < h.Periods; i++ {
		hour := atHome.TimeAt(i).Hour()
		home := len(def.HomeWindows) == 0
		for _, w := range def.HomeWindows {
			if hour >= w.StartHour && hour < w.EndHour {
				home = true
				break
			}
		}
		if home {
			atHome.Values[i] = 1
		} else {
			cons.Values[i] = def.AwayConsumptionKWh
		}
	}
	return scenario.BEVInput{AtHome: atHome, ConsumptionKWh: cons}
}
