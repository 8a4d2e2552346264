// Package energy models a small energy system as buses connected by flows
// and translates it into a linear program minimizing dispatch cost over the
// horizon.
package energy

import (
	"fmt"

	"github.com/gridsim/bevflow/core/model"
)

// Flow describes how a component exchanges power with a bus.
//
// Exactly one of the following shapes applies:
//   - Fix set: the flow is fixed to Fix[t]*NominalKW and not optimized.
//   - Max set: the flow is bounded by Max[t]*NominalKW per step.
//   - NominalKW > 0: the flow is bounded by NominalKW at every step.
//   - otherwise: the flow is unbounded above (slack).
type Flow struct {
	Fix       *model.TimeSeries
	Max       *model.TimeSeries
	NominalKW float64
	// CostPerKWh weighs the flow in the objective. Negative values model
	// remuneration such as feed-in tariffs.
	CostPerKWh float64
}

// Source injects power into a bus.
type Source struct {
	Label string
	Bus   string
	Flow  Flow
}

// Sink withdraws power from a bus.
type Sink struct {
	Label string
	Bus   string
	Flow  Flow
}

// Storage buffers energy on a bus. Levels are tracked in kWh between
// MinLevel and MaxLevel fractions of the capacity. LossKWh is withdrawn from
// the level every step regardless of dispatch, which is how driving
// consumption of a vehicle battery enters the model.
type Storage struct {
	Label        string
	Bus          string
	CapacityKWh  float64
	MinLevel     float64
	MaxLevel     float64
	InitialLevel float64
	ChargeKW     float64 // 0 = unbounded
	DischargeKW  float64 // 0 = unbounded
	ChargeEff    float64 // default 1
	DischargeEff float64 // default 1
	// Balanced forces the final level back to the initial level, so the
	// optimizer cannot profit from emptying the store at the horizon end.
	Balanced bool
	LossKWh  *model.TimeSeries
}

// Converter moves power between buses with an efficiency.
type Converter struct {
	Label      string
	FromBus    string
	ToBus      string
	Efficiency float64
	MaxKW      float64 // 0 = unbounded
	// Max caps the input flow per step at Max[t]*MaxKW, for converters
	// that are only available part of the time.
	Max        *model.TimeSeries
	CostPerKWh float64
}

// System is the component graph over a common horizon.
type System struct {
	Horizon    model.Horizon
	Buses      []string
	Sources    []Source
	Sinks      []Sink
	Storages   []Storage
	Converters []Converter
}

// NewSystem creates an empty system for the horizon.
func NewSystem(h model.Horizon) *System {
	return &System{Horizon: h}
}

// AddBus declares a bus label.
func (s *System) AddBus(label string) { s.Buses = append(s.Buses, label) }

// AddSource adds a source component.
func (s *System) AddSource(src Source) { s.Sources = append(s.Sources, src) }

// AddSink adds a sink component.
func (s *System) AddSink(sk Sink) { s.Sinks = append(s.Sinks, sk) }

// AddStorage adds a storage component.
func (s *System) AddStorage(st Storage) { s.Storages = append(s.Storages, st) }

// AddConverter adds a converter component.
func (s *System) AddConverter(c Converter) { s.Converters = append(s.Converters, c) }

func (s *System) hasBus(label string) bool {
	for _, b := range s.Buses {
		if b == label {
			return true
		}
	}
	return false
}

func (s *System) checkFlow(owner string, f Flow) error {
	if f.Fix != nil && f.Max != nil {
		return fmt.Errorf("%s: flow cannot have both fix and max profiles", owner)
	}
	for _, series := range []*model.TimeSeries{f.Fix, f.Max} {
		if series == nil {
			continue
		}
		if series.Len() != s.Horizon.Periods {
			return fmt.Errorf("%s: profile length %d does not match horizon %d",
				owner, series.Len(), s.Horizon.Periods)
		}
	}
	if (f.Fix != nil || f.Max != nil) && f.NominalKW <= 0 {
		return fmt.Errorf("%s: profiled flows need a positive nominal value", owner)
	}
	return nil
}

// Validate checks wiring and profile alignment.
func (s *System) Validate() error {
	if s.Horizon.Periods <= 0 {
		return fmt.Errorf("system horizon has no periods")
	}
	if len(s.Buses) == 0 {
		return fmt.Errorf("system has no buses")
	}
	seen := make(map[string]bool)
	for _, b := range s.Buses {
		if seen[b] {
			return fmt.Errorf("duplicate bus %q", b)
		}
		seen[b] = true
	}
	labels := make(map[string]bool)
	register := func(label string) error {
		if label == "" {
			return fmt.Errorf("component without label")
		}
		if labels[label] {
			return fmt.Errorf("duplicate component label %q", label)
		}
		labels[label] = true
		return nil
	}
	for _, src := range s.Sources {
		if err := register(src.Label); err != nil {
			return err
		}
		if !s.hasBus(src.Bus) {
			return fmt.Errorf("source %s references unknown bus %q", src.Label, src.Bus)
		}
		if err := s.checkFlow("source "+src.Label, src.Flow); err != nil {
			return err
		}
	}
	for _, sk := range s.Sinks {
		if err := register(sk.Label); err != nil {
			return err
		}
		if !s.hasBus(sk.Bus) {
			return fmt.Errorf("sink %s references unknown bus %q", sk.Label, sk.Bus)
		}
		if err := s.checkFlow("sink "+sk.Label, sk.Flow); err != nil {
			return err
		}
	}
	for _, st := range s.Storages {
		if err := register(st.Label); err != nil {
			return err
		}
		if !s.hasBus(st.Bus) {
			return fmt.Errorf("storage %s references unknown bus %q", st.Label, st.Bus)
		}
		if st.CapacityKWh <= 0 {
			return fmt.Errorf("storage %s: capacity must be positive", st.Label)
		}
		if st.MinLevel < 0 || st.MaxLevel > 1 || st.MinLevel > st.MaxLevel {
			return fmt.Errorf("storage %s: level bounds [%v,%v] invalid", st.Label, st.MinLevel, st.MaxLevel)
		}
		if st.InitialLevel < st.MinLevel || st.InitialLevel > st.MaxLevel {
			return fmt.Errorf("storage %s: initial level %v outside [%v,%v]",
				st.Label, st.InitialLevel, st.MinLevel, st.MaxLevel)
		}
		if st.LossKWh != nil && st.LossKWh.Len() != s.Horizon.Periods {
			return fmt.Errorf("storage %s: loss profile length %d does not match horizon %d",
				st.Label, st.LossKWh.Len(), s.Horizon.Periods)
		}
	}
	for _, c := range s.Converters {
		if err := register(c.Label); err != nil {
			return err
		}
		if !s.hasBus(c.FromBus) || !s.hasBus(c.ToBus) {
			return fmt.Errorf("converter %s references unknown bus", c.Label)
		}
		if c.Efficiency <= 0 || c.Efficiency > 1 {
			return fmt.Errorf("converter %s: efficiency must be in (0,1]", c.Label)
		}
		if c.Max != nil {
			if c.Max.Len() != s.Horizon.Periods {
				return fmt.Errorf("converter %s: max profile length %d does not match horizon %d",
					c.Label, c.Max.Len(), s.Horizon.Periods)
			}
			if c.MaxKW <= 0 {
				return fmt.Errorf("converter %s: profiled max needs a positive nominal value", c.Label)
			}
		}
	}
	return nil
}
