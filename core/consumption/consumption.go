package consumption

import (
	"fmt"
	"math"
	"time"

	"github.com/gridsim/bevflow/core/model"
)

const (
	gravity    = 9.81  // m/s^2
	airDensity = 1.225 // kg/m^3
	// accelEventsPerKm approximates stop-and-go losses of a mixed driving
	// cycle as full decelerations from cruise speed per km.
	accelEventsPerKm = 0.45
	// passengerHeatW is the sensible heat one passenger adds to the cabin.
	passengerHeatW = 70.0
	jouleToKWh     = 1.0 / 3.6e6
)

// Settings tune the cabin and passenger model.
type Settings struct {
	CabinTempC        float64 // target cabin temperature
	HeatTransferCoefW float64 // cabin heat transfer coefficient in W/(m^2 K)
	Passengers        float64 // average occupancy, may be fractional
	HVACCopHeat       float64 // heating coefficient of performance
	HVACCopCool       float64 // cooling coefficient of performance
}

// DefaultSettings mirror a mid-European compact-car setup.
func DefaultSettings() Settings {
	return Settings{
		CabinTempC:        21,
		HeatTransferCoefW: 20,
		Passengers:        1.5,
		HVACCopHeat:       2.5,
		HVACCopCool:       2.0,
	}
}

// Simulator derives consumption profiles from driving profiles.
type Simulator struct {
	Spec     model.VehicleSpec
	Ambient  *model.TimeSeries // ambient temperature in degrees Celsius
	Settings Settings
}

// NewSimulator validates the inputs and returns a simulator.
func NewSimulator(spec model.VehicleSpec, ambient *model.TimeSeries, st Settings) (*Simulator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if ambient == nil {
		return nil, fmt.Errorf("ambient temperature series is required")
	}
	return &Simulator{Spec: spec, Ambient: ambient, Settings: st}, nil
}

// Run converts one driving profile into a consumption profile. The resulting
// profile carries the per-step consumption in kWh and the location chain of
// its source so downstream stages can derive plug-in state.
func (s *Simulator) Run(driving *model.Profile) (*model.Profile, error) {
	if driving.Kind != model.KindDriving {
		return nil, fmt.Errorf("profile %s is %s, want driving", driving.Name, driving.Kind)
	}
	km, err := driving.Get(model.SeriesKm)
	if err != nil {
		return nil, err
	}
	if err := km.CheckAligned(s.Ambient); err != nil {
		return nil, fmt.Errorf("ambient series: %w", err)
	}

	out := model.NewTimeSeries(km.Start, km.Step, km.Len())
	stepHours := km.StepHours()
	for i, d := range km.Values {
		if d <= 0 {
			continue
		}
		speedKmh := d / stepHours
		out.Values[i] = s.stepKWh(d, speedKmh, s.Ambient.Values[i], stepHours)
	}

	p := &model.Profile{
		Name:      driving.Name + "_" + s.Spec.Model + "_consumption",
		Kind:      model.KindConsumption,
		Group:     driving.Group,
		Source:    driving.Name,
		CreatedAt: time.Now().UTC(),
		Meta: map[string]string{
			"vehicle":          s.Spec.Key(),
			"battery_kwh":      fmt.Sprintf("%.1f", s.Spec.BatteryKWh),
			"max_ac_charge_kw": fmt.Sprintf("%.1f", s.Spec.MaxACChargeKW),
		},
		Locations: append([]model.Location(nil), driving.Locations...),
		Series:    map[string]*model.TimeSeries{model.SeriesConsumptionKWh: out},
	}
	return p, p.Validate()
}

// stepKWh computes the energy drawn from the battery for one driving step.
func (s *Simulator) stepKWh(km, speedKmh, ambientC, stepHours float64) float64 {
	v := speedKmh / 3.6 // m/s
	spec := s.Spec

	// Resistive forces over the driven distance.
	rolling := spec.MassKg * gravity * spec.RollingResistance
	drag := 0.5 * airDensity * spec.DragCoeff * spec.FrontalAreaM2 * v * v
	distanceM := km * 1000
	tractionJ := (rolling + drag) * distanceM

	// Stop-and-go: kinetic energy dissipated per acceleration event, less
	// what regenerative braking recovers.
	kineticJ := 0.5 * spec.MassKg * v * v
	tractionJ += accelEventsPerKm * km * kineticJ * (1 - spec.RegenEff)

	kwh := tractionJ * jouleToKWh / spec.DrivetrainEff

	// Cabin conditioning and auxiliaries while the vehicle moves.
	dT := s.Settings.CabinTempC - ambientC
	hvacW := s.Settings.HeatTransferCoefW * spec.CabinAreaM2 * math.Abs(dT)
	hvacW -= s.Settings.Passengers * passengerHeatW
	if hvacW < 0 {
		hvacW = 0
	}
	cop := s.Settings.HVACCopHeat
	if dT < 0 {
		cop = s.Settings.HVACCopCool
	}
	if cop > 0 {
		hvacW /= cop
	}
	kwh += (hvacW/1000 + spec.AuxKW) * stepHours

	return kwh
}
