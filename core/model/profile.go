package model

import (
	"fmt"
	"time"
)

// ProfileKind identifies the pipeline stage a profile was produced by.
type ProfileKind string

const (
	KindDriving      ProfileKind = "driving"
	KindConsumption  ProfileKind = "consumption"
	KindAvailability ProfileKind = "availability"
	KindCharging     ProfileKind = "charging"
)

// Location is the whereabouts of a vehicle during one step.
type Location string

const (
	LocHome      Location = "home"
	LocWorkplace Location = "workplace"
	LocShopping  Location = "shopping"
	LocLeisure   Location = "leisure"
	LocErrands   Location = "errands"
	LocDriving   Location = "driving"
)

// Destinations lists every location a trip may end at.
var Destinations = []Location{LocHome, LocWorkplace, LocShopping, LocLeisure, LocErrands}

// Well-known series names stored inside profiles.
const (
	SeriesKm            = "km"
	SeriesConsumptionKWh = "consumption_kwh"
	SeriesChargerKW     = "charger_kw"
	SeriesChargingKW    = "charging_kw"
	SeriesSoC           = "soc"
	SeriesAtHome        = "at_home"
)

// Profile is one generated time-series bundle. Driving profiles carry the
// location chain; derived profiles reference their source by name.
type Profile struct {
	Name      string                 `json:"name"`
	Kind      ProfileKind            `json:"kind"`
	Group     string                 `json:"group,omitempty"`
	Source    string                 `json:"source,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	Meta      map[string]string      `json:"meta,omitempty"`
	Locations []Location             `json:"locations,omitempty"`
	Series    map[string]*TimeSeries `json:"series"`
}

// Validate checks internal consistency of the profile.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is empty")
	}
	switch p.Kind {
	case KindDriving, KindConsumption, KindAvailability, KindCharging:
	default:
		return fmt.Errorf("unknown profile kind %q", p.Kind)
	}
	var ref *TimeSeries
	for name, s := range p.Series {
		if s == nil {
			return fmt.Errorf("series %q is nil", name)
		}
		if ref == nil {
			ref = s
			continue
		}
		if err := ref.CheckAligned(s); err != nil {
			return fmt.Errorf("series %q: %w", name, err)
		}
	}
	if len(p.Locations) > 0 && ref != nil && len(p.Locations) != ref.Len() {
		return fmt.Errorf("location chain length %d does not match series length %d",
			len(p.Locations), ref.Len())
	}
	return nil
}

// Get returns the named series or an error when missing.
func (p *Profile) Get(name string) (*TimeSeries, error) {
	s, ok := p.Series[name]
	if !ok {
		return nil, fmt.Errorf("profile %s has no %q series", p.Name, name)
	}
	return s, nil
}

// AtLocation returns a 0/1 series marking steps spent at loc.
func (p *Profile) AtLocation(loc Location) (*TimeSeries, error) {
	if len(p.Locations) == 0 {
		return nil, fmt.Errorf("profile %s carries no location chain", p.Name)
	}
	var ref *TimeSeries
	for _, s := range p.Series {
		ref = s
		break
	}
	if ref == nil {
		return nil, fmt.Errorf("profile %s has no series", p.Name)
	}
	out := NewTimeSeries(ref.Start, ref.Step, len(p.Locations))
	for i, l := range p.Locations {
		if l == loc {
			out.Values[i] = 1
		}
	}
	return out, nil
}
