// Package scenarios runs YAML-described household cases against the solver
// so expected dispatch outcomes can be pinned down outside the unit tests.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gridsim/bevflow/core/scenario"
)

// WindowDef marks a daily at-home interval in whole hours.
type WindowDef struct {
	StartHour int `yaml:"start_hour"`
	EndHour   int `yaml:"end_hour"`
}

// BEVDef describes the vehicle pattern driving the case.
type BEVDef struct {
	HomeWindows []WindowDef `yaml:"home_windows"`
	// AwayConsumptionKWh is withdrawn from the battery per step while the
	// vehicle is away.
	AwayConsumptionKWh float64 `yaml:"away_consumption_kwh"`
}

// SystemDef mirrors the household parameters.
type SystemDef struct {
	PVPeakKW         float64 `yaml:"pv_peak_kw"`
	DemandBaseKW     float64 `yaml:"demand_base_kw"`
	WallboxKW        float64 `yaml:"wallbox_kw"`
	GridMaxKW        float64 `yaml:"grid_max_kw"`
	ImportCostPerKWh float64 `yaml:"import_cost_per_kwh"`
	FeedInCostPerKWh float64 `yaml:"feed_in_cost_per_kwh"`
	BatteryKWh       float64 `yaml:"battery_kwh"`
	BatteryMinLevel  float64 `yaml:"battery_min_level"`
	BatteryMaxLevel  float64 `yaml:"battery_max_level"`
	BatteryInitial   float64 `yaml:"battery_initial"`
	Balanced         *bool   `yaml:"balanced"`
}

// ToConfig converts the definition, filling unset fields with the defaults.
func (s SystemDef) ToConfig() scenario.Config {
	cfg := scenario.Config{
		PVPeakKW:     s.PVPeakKW,
		DemandBaseKW: s.DemandBaseKW,
		WallboxKW:    s.WallboxKW,
		Grid: scenario.GridConfig{
			MaxKW:            s.GridMaxKW,
			ImportCostPerKWh: s.ImportCostPerKWh,
			FeedInCostPerKWh: s.FeedInCostPerKWh,
		},
		Battery: scenario.BatteryConfig{
			CapacityKWh:  s.BatteryKWh,
			MinLevel:     s.BatteryMinLevel,
			MaxLevel:     s.BatteryMaxLevel,
			InitialLevel: s.BatteryInitial,
			Balanced:     s.Balanced,
		},
	}
	cfg.SetDefaults()
	return cfg
}

// Expected pins the scenario outcome.
type Expected struct {
	Feasible bool `yaml:"feasible"`
	// MaxObjective bounds the dispatch cost from above; zero disables the
	// check.
	MaxObjective float64 `yaml:"max_objective"`
	// MinObjective bounds the cost from below; zero disables the check.
	MinObjective float64 `yaml:"min_objective"`
}

// Scenario is one solver case.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Reference   string    `yaml:"reference"`
	Hours       int       `yaml:"hours"`
	StepMinutes int       `yaml:"step_minutes"`
	System      SystemDef `yaml:"system"`
	BEV         BEVDef    `yaml:"bev"`
	Expected    Expected  `yaml:"expected"`
}

func (s Scenario) reference() (time.Time, error) {
	if s.Reference == "" {
		return time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", s.Reference)
}

// Load reads a scenario list from a YAML file.
func Load(path string) ([]Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []Scenario
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse scenarios %s: %w", path, err)
	}
	return out, nil
}
