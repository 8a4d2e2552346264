package config

import (
	"fmt"
	"time"

	"github.com/gridsim/bevflow/core/availability"
	"github.com/gridsim/bevflow/core/model"
)

// HorizonConfig defines the simulated time window.
type HorizonConfig struct {
	// ReferenceDate is the first day of the window, format 2006-01-02.
	ReferenceDate string `json:"reference_date"`
	TotalHours    int    `json:"total_hours"`
	StepMinutes   int    `json:"step_minutes"`
	// Seed makes runs reproducible; 0 derives one from the clock.
	Seed uint64 `json:"seed"`
}

// SetDefaults applies one week at 15-minute resolution.
func (c *HorizonConfig) SetDefaults() {
	if c.ReferenceDate == "" {
		c.ReferenceDate = "2022-01-01"
	}
	if c.TotalHours == 0 {
		c.TotalHours = 168
	}
	if c.StepMinutes == 0 {
		c.StepMinutes = 15
	}
}

// Validate checks the window parameters.
func (c HorizonConfig) Validate() error {
	_, err := c.Horizon()
	return err
}

// Horizon builds the model horizon.
func (c HorizonConfig) Horizon() (model.Horizon, error) {
	ref, err := time.Parse("2006-01-02", c.ReferenceDate)
	if err != nil {
		return model.Horizon{}, fmt.Errorf("reference date: %w", err)
	}
	return model.NewHorizon(ref.UTC(), c.TotalHours, c.StepMinutes)
}

// MobilityConfig selects groups and statistical inputs.
type MobilityConfig struct {
	Groups           []string `json:"groups"`
	StatsDir         string   `json:"stats_dir"`
	RulesPath        string   `json:"rules_path"`
	ProfilesPerGroup int      `json:"profiles_per_group"`
}

// SetDefaults applies one commuter profile.
func (c *MobilityConfig) SetDefaults() {
	if len(c.Groups) == 0 {
		c.Groups = []string{"commuter"}
	}
	if c.StatsDir == "" {
		c.StatsDir = "stats"
	}
	if c.ProfilesPerGroup == 0 {
		c.ProfilesPerGroup = 1
	}
}

// Validate checks mandatory fields.
func (c MobilityConfig) Validate() error {
	if c.ProfilesPerGroup < 1 {
		return fmt.Errorf("profiles_per_group must be at least 1")
	}
	return nil
}

// VehicleRef selects a catalog entry.
type VehicleRef struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
}

// ConsumptionConfig selects vehicles and the ambient model.
type ConsumptionConfig struct {
	Vehicles    []VehicleRef `json:"vehicles"`
	CatalogPath string       `json:"catalog_path"`
	// AmbientCSV overrides the synthetic temperature profile.
	AmbientCSV       string  `json:"ambient_csv"`
	AmbientMeanC     float64 `json:"ambient_mean_c"`
	AmbientAmplitudeC float64 `json:"ambient_amplitude_c"`
	CabinTempC       float64 `json:"cabin_temp_c"`
	Passengers       float64 `json:"passengers"`
}

// SetDefaults applies a winter week in a compact BEV.
func (c *ConsumptionConfig) SetDefaults() {
	if len(c.Vehicles) == 0 {
		c.Vehicles = []VehicleRef{{Manufacturer: "Volkswagen", Model: "ID.3", Year: 2020}}
	}
	if c.AmbientMeanC == 0 {
		c.AmbientMeanC = 2
	}
	if c.AmbientAmplitudeC == 0 {
		c.AmbientAmplitudeC = 4
	}
	if c.CabinTempC == 0 {
		c.CabinTempC = 21
	}
	if c.Passengers == 0 {
		c.Passengers = 1.5
	}
}

// Validate checks the vehicle references.
func (c ConsumptionConfig) Validate() error {
	for _, v := range c.Vehicles {
		if v.Manufacturer == "" || v.Model == "" || v.Year == 0 {
			return fmt.Errorf("vehicle reference needs manufacturer, model and year")
		}
	}
	return nil
}

// ChargingConfig selects strategy and infrastructure.
type ChargingConfig struct {
	Strategy string `json:"strategy"`
	// InitialSoC is the battery state at the horizon start.
	InitialSoC float64 `json:"initial_soc"`
	// Points maps locations to charger ratings and access probability.
	Points map[model.Location]availability.Point `json:"points"`
}

// SetDefaults applies immediate charging from a nearly full battery.
func (c *ChargingConfig) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = "immediate"
	}
	if c.InitialSoC == 0 {
		c.InitialSoC = 0.95
	}
	if c.Points == nil {
		c.Points = availability.DefaultPoints()
	}
}

// Validate checks the strategy parameters.
func (c ChargingConfig) Validate() error {
	if c.InitialSoC < 0 || c.InitialSoC > 1 {
		return fmt.Errorf("initial_soc must be in [0,1]")
	}
	switch c.Strategy {
	case "immediate", "balanced":
		return nil
	default:
		return fmt.Errorf("unknown charging strategy %q", c.Strategy)
	}
}

// DatabaseConfig locates the profile store.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// SetDefaults stores profiles under ./db.
func (c *DatabaseConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "db"
	}
}

// ResultsConfig locates exported CSV files.
type ResultsConfig struct {
	Dir string `json:"dir"`
	// ScenarioName labels solver results and published setpoints.
	ScenarioName string `json:"scenario_name"`
}

// SetDefaults writes results under ./results.
func (c *ResultsConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "results"
	}
	if c.ScenarioName == "" {
		c.ScenarioName = "household"
	}
}
