package model

import "fmt"

// VehicleSpec holds the physical parameters of a BEV model used by the
// consumption simulation.
type VehicleSpec struct {
	Manufacturer      string  `json:"manufacturer" yaml:"manufacturer"`
	Model             string  `json:"model" yaml:"model"`
	Year              int     `json:"year" yaml:"year"`
	MassKg            float64 `json:"mass_kg" yaml:"mass_kg"`
	DragCoeff         float64 `json:"drag_coeff" yaml:"drag_coeff"`
	FrontalAreaM2     float64 `json:"frontal_area_m2" yaml:"frontal_area_m2"`
	RollingResistance float64 `json:"rolling_resistance" yaml:"rolling_resistance"`
	BatteryKWh        float64 `json:"battery_kwh" yaml:"battery_kwh"`
	DrivetrainEff     float64 `json:"drivetrain_eff" yaml:"drivetrain_eff"`
	RegenEff          float64 `json:"regen_eff" yaml:"regen_eff"`
	AuxKW             float64 `json:"aux_kw" yaml:"aux_kw"`
	MaxACChargeKW     float64 `json:"max_ac_charge_kw" yaml:"max_ac_charge_kw"`
	CabinAreaM2       float64 `json:"cabin_area_m2" yaml:"cabin_area_m2"`
}

// Key returns the manufacturer/model/year identifier used by the vehicle catalog.
func (v VehicleSpec) Key() string {
	return fmt.Sprintf("%s %s %d", v.Manufacturer, v.Model, v.Year)
}

// Validate checks that the parameters required by the consumption model are
// usable.
func (v VehicleSpec) Validate() error {
	if v.BatteryKWh <= 0 {
		return fmt.Errorf("battery capacity must be positive")
	}
	if v.MassKg <= 0 {
		return fmt.Errorf("vehicle mass must be positive")
	}
	if v.DrivetrainEff <= 0 || v.DrivetrainEff > 1 {
		return fmt.Errorf("drivetrain efficiency must be in (0,1]")
	}
	if v.RegenEff < 0 || v.RegenEff > 1 {
		return fmt.Errorf("regen efficiency must be in [0,1]")
	}
	return nil
}
