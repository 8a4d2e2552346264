// Package scenario assembles the household dispatch case: a PV-equipped home
// with grid connection and a BEV charged at a wallbox, expressed as an energy
// system over the scenario horizon.
package scenario

import (
	"fmt"

	"github.com/gridsim/bevflow/core/energy"
	"github.com/gridsim/bevflow/core/model"
)

// Bus and component labels of the household system.
const (
	BusElectricity = "electricity"
	BusMobility    = "mobility"
	LabelPV        = "pv"
	LabelGrid      = "grid-supply"
	LabelWallbox   = "wallbox"
	LabelDemand    = "demand"
	LabelExcess    = "excess"
	LabelBEV       = "bev-storage"
)

// GridConfig holds connection limits and tariffs.
type GridConfig struct {
	MaxKW            float64 `json:"max_kw"`
	ImportCostPerKWh float64 `json:"import_cost_per_kwh"`
	FeedInCostPerKWh float64 `json:"feed_in_cost_per_kwh"`
}

// BatteryConfig parameterises the BEV storage.
type BatteryConfig struct {
	CapacityKWh  float64 `json:"capacity_kwh"`
	MinLevel     float64 `json:"min_level"`
	MaxLevel     float64 `json:"max_level"`
	InitialLevel float64 `json:"initial_level"`
	// Balanced forces the final level back to the initial one, so driving
	// losses show up in the objective instead of draining the store for
	// free. Defaults to true; set to false explicitly to let the level
	// drift.
	Balanced *bool `json:"balanced"`
}

// IsBalanced resolves the default.
func (b BatteryConfig) IsBalanced() bool {
	return b.Balanced == nil || *b.Balanced
}

// Config describes the household case. Defaults reproduce a single-family
// home with a 30 kW grid connection and an 11 kW wallbox.
type Config struct {
	PVPeakKW         float64       `json:"pv_peak_kw"`
	PVProfileCSV     string        `json:"pv_profile_csv"`
	DemandBaseKW     float64       `json:"demand_base_kw"`
	DemandProfileCSV string        `json:"demand_profile_csv"`
	WallboxKW        float64       `json:"wallbox_kw"`
	Grid             GridConfig    `json:"grid"`
	Battery          BatteryConfig `json:"battery"`
}

// SetDefaults applies the case-study constants.
func (c *Config) SetDefaults() {
	if c.PVPeakKW == 0 {
		c.PVPeakKW = 10
	}
	if c.DemandBaseKW == 0 {
		c.DemandBaseKW = 0.5
	}
	if c.WallboxKW == 0 {
		c.WallboxKW = 11
	}
	if c.Grid.MaxKW == 0 {
		c.Grid.MaxKW = 30
	}
	if c.Grid.ImportCostPerKWh == 0 {
		c.Grid.ImportCostPerKWh = 30
	}
	if c.Grid.FeedInCostPerKWh == 0 {
		c.Grid.FeedInCostPerKWh = -7.9
	}
	if c.Battery.CapacityKWh == 0 {
		c.Battery.CapacityKWh = 45
	}
	if c.Battery.MinLevel == 0 {
		c.Battery.MinLevel = 0.4
	}
	if c.Battery.MaxLevel == 0 {
		c.Battery.MaxLevel = 0.95
	}
	if c.Battery.InitialLevel == 0 {
		c.Battery.InitialLevel = 0.95
	}
}

// Validate checks the scenario parameters.
func (c Config) Validate() error {
	if c.Grid.MaxKW <= 0 {
		return fmt.Errorf("grid limit must be positive")
	}
	if c.WallboxKW <= 0 {
		return fmt.Errorf("wallbox power must be positive")
	}
	if c.Battery.CapacityKWh <= 0 {
		return fmt.Errorf("battery capacity must be positive")
	}
	return nil
}

// BEVInput carries the generated vehicle series the scenario depends on.
type BEVInput struct {
	// AtHome is a 0/1 series marking steps the vehicle is plugged in at
	// the wallbox.
	AtHome *model.TimeSeries
	// ConsumptionKWh is the driving demand withdrawn from the battery.
	ConsumptionKWh *model.TimeSeries
}

// FromProfile extracts the BEV input from a consumption profile carrying a
// location chain.
func FromProfile(p *model.Profile) (BEVInput, error) {
	cons, err := p.Get(model.SeriesConsumptionKWh)
	if err != nil {
		return BEVInput{}, err
	}
	atHome, err := p.AtLocation(model.LocHome)
	if err != nil {
		return BEVInput{}, err
	}
	return BEVInput{AtHome: atHome, ConsumptionKWh: cons}, nil
}

// resolveProfiles loads the normalised PV and demand shapes, falling back to
// the synthetic ones when no CSV is configured.
func resolveProfiles(cfg Config, h model.Horizon) (pv, demand *model.TimeSeries, err error) {
	pv = SyntheticPV(h)
	if cfg.PVProfileCSV != "" {
		if pv, err = model.LoadSeriesCSV(cfg.PVProfileCSV, h); err != nil {
			return nil, nil, fmt.Errorf("pv profile: %w", err)
		}
	}
	demand = SyntheticDemand(h)
	if cfg.DemandProfileCSV != "" {
		if demand, err = model.LoadSeriesCSV(cfg.DemandProfileCSV, h); err != nil {
			return nil, nil, fmt.Errorf("demand profile: %w", err)
		}
	}
	return pv, demand, nil
}

// InputSeries returns the resolved PV and household demand in kW, scaled to
// the configured peaks. It mirrors exactly what Build feeds into the system.
func InputSeries(cfg Config, h model.Horizon) (pv, demand *model.TimeSeries, err error) {
	pv, demand, err = resolveProfiles(cfg, h)
	if err != nil {
		return nil, nil, err
	}
	return pv.Scale(cfg.PVPeakKW), demand.Scale(cfg.DemandBaseKW), nil
}

// Build wires the two-bus system: PV, grid supply, household demand and
// feed-in on the electricity bus, the BEV storage on the mobility bus, and
// the wallbox converting between the two. The wallbox is only available
// while the vehicle is at home, and the driving consumption enters the
// storage as a fixed loss.
func Build(cfg Config, h model.Horizon, bev BEVInput) (*energy.System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if bev.AtHome == nil || bev.ConsumptionKWh == nil {
		return nil, fmt.Errorf("scenario requires at-home and consumption series")
	}

	pv, demand, err := resolveProfiles(cfg, h)
	if err != nil {
		return nil, err
	}

	sys := energy.NewSystem(h)
	sys.AddBus(BusElectricity)
	sys.AddBus(BusMobility)

	sys.AddSource(energy.Source{
		Label: LabelPV,
		Bus:   BusElectricity,
		Flow:  energy.Flow{Fix: pv, NominalKW: cfg.PVPeakKW},
	})
	sys.AddSource(energy.Source{
		Label: LabelGrid,
		Bus:   BusElectricity,
		Flow:  energy.Flow{NominalKW: cfg.Grid.MaxKW, CostPerKWh: cfg.Grid.ImportCostPerKWh},
	})
	sys.AddSink(energy.Sink{
		Label: LabelDemand,
		Bus:   BusElectricity,
		Flow:  energy.Flow{Fix: demand, NominalKW: cfg.DemandBaseKW},
	})
	sys.AddSink(energy.Sink{
		Label: LabelExcess,
		Bus:   BusElectricity,
		Flow:  energy.Flow{CostPerKWh: cfg.Grid.FeedInCostPerKWh},
	})
	sys.AddConverter(energy.Converter{
		Label:      LabelWallbox,
		FromBus:    BusElectricity,
		ToBus:      BusMobility,
		Efficiency: 1,
		MaxKW:      cfg.WallboxKW,
		Max:        bev.AtHome,
	})
	sys.AddStorage(energy.Storage{
		Label:        LabelBEV,
		Bus:          BusMobility,
		CapacityKWh:  cfg.Battery.CapacityKWh,
		MinLevel:     cfg.Battery.MinLevel,
		MaxLevel:     cfg.Battery.MaxLevel,
		InitialLevel: cfg.Battery.InitialLevel,
		Balanced:     cfg.Battery.IsBalanced(),
		LossKWh:      bev.ConsumptionKWh,
	})
	return sys, nil
}
