// Package charging applies a charging strategy to consumption and
// availability profiles, producing charging power and state-of-charge series.
package charging

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gridsim/bevflow/core/model"
)

// Strategy decides how much power to draw during a plugged window.
type Strategy interface {
	Name() string
	// Plan simulates the strategy over the horizon. in.Charger holds the
	// charger rating per step, in.Consumption the driving demand in kWh.
	Plan(in Input) (Result, error)
}

// Result is the simulated outcome of a strategy run.
type Result struct {
	// PowerKW is the charging power drawn per step.
	PowerKW *model.TimeSeries
	// SoC is the battery state of charge after each step.
	SoC *model.TimeSeries
	// UnmetKWh is driving demand the battery could not cover. Zero for a
	// battery sized to the mobility pattern.
	UnmetKWh float64
}

// Input bundles everything a strategy needs.
type Input struct {
	Consumption *model.TimeSeries // kWh per step
	Charger     *model.TimeSeries // charger rating in kW per step
	Battery     Battery           // initial state, copied per run
}

// New returns the strategy registered under name.
func New(name string) (Strategy, error) {
	switch name {
	case "immediate", "":
		return Immediate{}, nil
	case "balanced":
		return Balanced{}, nil
	default:
		return nil, fmt.Errorf("unknown charging strategy %q", name)
	}
}

// Immediate charges at full available power whenever plugged until the
// battery is full ("dumb" charging).
type Immediate struct{}

func (Immediate) Name() string { return "immediate" }

func (Immediate) Plan(in Input) (Result, error) {
	return simulate(in, func(b *Battery, step int, _ []window) float64 {
		return in.Charger.Values[step]
	})
}

// Balanced spreads the energy needed to reach full charge evenly over each
// plugged window, reducing peak power.
type Balanced struct{}

func (Balanced) Name() string { return "balanced" }

func (Balanced) Plan(in Input) (Result, error) {
	windows := findWindows(in.Charger)
	return simulate(in, func(b *Battery, step int, ws []window) float64 {
		w := windowAt(ws, step)
		if w == nil {
			return 0
		}
		remainingSteps := w.end - step
		if remainingSteps <= 0 {
			return 0
		}
		hoursLeft := float64(remainingSteps) * in.Charger.StepHours()
		need := (1 - b.Soc) * b.CapacityKWh
		if need <= 0 {
			return 0
		}
		return need / hoursLeft
	}, windows...)
}

// window is a maximal run of plugged steps.
type window struct{ start, end int }

func findWindows(charger *model.TimeSeries) []window {
	var ws []window
	open := -1
	for i, v := range charger.Values {
		if v > 0 && open < 0 {
			open = i
		}
		if v <= 0 && open >= 0 {
			ws = append(ws, window{start: open, end: i})
			open = -1
		}
	}
	if open >= 0 {
		ws = append(ws, window{start: open, end: charger.Len()})
	}
	return ws
}

func windowAt(ws []window, step int) *window {
	for i := range ws {
		if step >= ws[i].start && step < ws[i].end {
			return &ws[i]
		}
	}
	return nil
}

// simulate walks the horizon applying consumption and the strategy's power
// request through the battery model.
func simulate(in Input, request func(*Battery, int, []window) float64, ws ...window) (Result, error) {
	if err := in.Consumption.CheckAligned(in.Charger); err != nil {
		return Result{}, err
	}
	if in.Battery.CapacityKWh <= 0 {
		return Result{}, fmt.Errorf("battery capacity must be positive")
	}
	b := in.Battery
	res := Result{
		PowerKW: model.NewTimeSeries(in.Consumption.Start, in.Consumption.Step, in.Consumption.Len()),
		SoC:     model.NewTimeSeries(in.Consumption.Start, in.Consumption.Step, in.Consumption.Len()),
	}
	step := in.Consumption.Step
	for i := range in.Consumption.Values {
		res.UnmetKWh += b.Drain(in.Consumption.Values[i])
		req := request(&b, i, ws)
		if max := in.Charger.Values[i]; req > max {
			req = max
		}
		res.PowerKW.Values[i] = b.Charge(req, step)
		res.SoC.Values[i] = b.Soc
	}
	return res, nil
}

// Apply runs the strategy over a consumption/availability pair and builds the
// charging profile.
func Apply(strategy Strategy, cons, avail *model.Profile, battery Battery) (*model.Profile, error) {
	if cons.Kind != model.KindConsumption {
		return nil, fmt.Errorf("profile %s is %s, want consumption", cons.Name, cons.Kind)
	}
	if avail.Kind != model.KindAvailability {
		return nil, fmt.Errorf("profile %s is %s, want availability", avail.Name, avail.Kind)
	}
	demand, err := cons.Get(model.SeriesConsumptionKWh)
	if err != nil {
		return nil, err
	}
	charger, err := avail.Get(model.SeriesChargerKW)
	if err != nil {
		return nil, err
	}
	res, err := strategy.Plan(Input{Consumption: demand, Charger: charger, Battery: battery})
	if err != nil {
		return nil, err
	}

	p := &model.Profile{
		Name:      cons.Name + "_" + strategy.Name(),
		Kind:      model.KindCharging,
		Group:     cons.Group,
		Source:    cons.Name,
		CreatedAt: time.Now().UTC(),
		Meta: map[string]string{
			"strategy":    strategy.Name(),
			"battery_kwh": strconv.FormatFloat(battery.CapacityKWh, 'f', 1, 64),
		},
		Locations: append([]model.Location(nil), cons.Locations...),
		Series: map[string]*model.TimeSeries{
			model.SeriesChargingKW: res.PowerKW,
			model.SeriesSoC:        res.SoC,
		},
	}
	if res.UnmetKWh > 0 {
		p.Meta["unmet_kwh"] = strconv.FormatFloat(res.UnmetKWh, 'f', 3, 64)
	}
	return p, p.Validate()
}
