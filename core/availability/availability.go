// Package availability maps the location chain of a profile to charging
// opportunities: which steps have a charger within reach and at what power.
package availability

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gridsim/bevflow/core/model"
)

// Point describes the charging infrastructure of a location type.
type Point struct {
	// PowerKW is the charger rating at this location, 0 meaning none.
	PowerKW float64 `json:"power_kw" yaml:"power_kw"`
	// Probability that a vehicle of this profile has access to the
	// charger at all, sampled once per profile.
	Probability float64 `json:"probability" yaml:"probability"`
}

// DefaultPoints is a typical German residential setup: a wallbox at home,
// decent odds of a workplace charger, occasional public charging.
func DefaultPoints() map[model.Location]Point {
	return map[model.Location]Point{
		model.LocHome:      {PowerKW: 11, Probability: 0.9},
		model.LocWorkplace: {PowerKW: 11, Probability: 0.5},
		model.LocShopping:  {PowerKW: 22, Probability: 0.25},
		model.LocLeisure:   {PowerKW: 22, Probability: 0.1},
		model.LocErrands:   {PowerKW: 0, Probability: 0},
	}
}

// Mapper derives availability profiles. Charger access per location is
// decided once per profile with the configured probability, so a vehicle
// without a home wallbox stays without one for the whole horizon.
type Mapper struct {
	Points map[model.Location]Point

	rng *rand.Rand
}

// NewMapper creates a seeded mapper.
func NewMapper(points map[model.Location]Point, seed uint64) *Mapper {
	if points == nil {
		points = DefaultPoints()
	}
	return &Mapper{Points: points, rng: rand.New(rand.NewPCG(seed, seed<<1|1))}
}

// Derive produces the availability profile for a driving or consumption
// profile carrying a location chain.
func (m *Mapper) Derive(src *model.Profile) (*model.Profile, error) {
	if len(src.Locations) == 0 {
		return nil, fmt.Errorf("profile %s carries no location chain", src.Name)
	}
	var ref *model.TimeSeries
	for _, s := range src.Series {
		ref = s
		break
	}
	if ref == nil {
		return nil, fmt.Errorf("profile %s has no series", src.Name)
	}

	access := make(map[model.Location]float64, len(m.Points))
	for loc, pt := range m.Points {
		if pt.PowerKW > 0 && m.rng.Float64() < pt.Probability {
			access[loc] = pt.PowerKW
		}
	}

	charger := model.NewTimeSeries(ref.Start, ref.Step, ref.Len())
	for i, loc := range src.Locations {
		if loc == model.LocDriving {
			continue
		}
		charger.Values[i] = access[loc]
	}

	p := &model.Profile{
		Name:      src.Name + "_availability",
		Kind:      model.KindAvailability,
		Group:     src.Group,
		Source:    src.Name,
		CreatedAt: time.Now().UTC(),
		Locations: append([]model.Location(nil), src.Locations...),
		Series:    map[string]*model.TimeSeries{model.SeriesChargerKW: charger},
	}
	for loc, kw := range access {
		if p.Meta == nil {
			p.Meta = make(map[string]string)
		}
		p.Meta["charger_"+string(loc)] = fmt.Sprintf("%.1f", kw)
	}
	return p, p.Validate()
}
