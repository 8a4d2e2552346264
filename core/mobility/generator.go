package mobility

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gridsim/bevflow/core/model"
	"github.com/gridsim/bevflow/core/rules"
)

// Generator samples driving profiles from the statistical tables under the
// constraints of a group rule. A generator is seeded explicitly so runs are
// reproducible.
type Generator struct {
	Stats   *Stats
	Rule    rules.Rule
	Horizon model.Horizon

	src rand.Source
	rng *rand.Rand
}

// NewGenerator creates a seeded generator.
func NewGenerator(stats *Stats, rule rules.Rule, horizon model.Horizon, seed uint64) (*Generator, error) {
	if stats == nil {
		return nil, fmt.Errorf("stats must not be nil")
	}
	if err := stats.Validate(); err != nil {
		return nil, err
	}
	if horizon.Periods <= 0 {
		return nil, fmt.Errorf("horizon has no periods")
	}
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Generator{
		Stats:   stats,
		Rule:    rule,
		Horizon: horizon,
		src:     src,
		rng:     rand.New(src),
	}, nil
}

// trip is one sampled journey.
type trip struct {
	departStep int
	steps      int
	km         float64
	dest       model.Location
}

// Generate produces a driving profile for the group: a location chain plus a
// km-per-step series covering the whole horizon.
func (g *Generator) Generate(group string) (*model.Profile, error) {
	h := g.Horizon
	km := h.Series()
	locations := make([]model.Location, h.Periods)
	for i := range locations {
		locations[i] = model.LocHome
	}

	stepsPerDay := h.StepsPerDay()
	if stepsPerDay == 0 {
		return nil, fmt.Errorf("step longer than one day")
	}
	days := (h.Periods + stepsPerDay - 1) / stepsPerDay

	for day := 0; day < days; day++ {
		date := h.Reference.Add(time.Duration(day) * 24 * time.Hour)
		weekend := date.Weekday() == time.Saturday || date.Weekday() == time.Sunday
		limits := g.Rule.ForDay(weekend).Resolve()
		trips := g.sampleDay(day, weekend, limits)
		g.applyTrips(trips, locations, km)
	}

	p := &model.Profile{
		Name:      fmt.Sprintf("BEV_%s_%s", group, shortID()),
		Kind:      model.KindDriving,
		Group:     group,
		CreatedAt: time.Now().UTC(),
		Locations: locations,
		Series:    map[string]*model.TimeSeries{model.SeriesKm: km},
	}
	return p, p.Validate()
}

func shortID() string { return uuid.NewString()[:8] }

// sampleDay draws a trip chain for one day. The last trip of a day always
// returns home.
func (g *Generator) sampleDay(day int, weekend bool, limits rules.Limits) []trip {
	dayType := "weekday"
	if weekend {
		dayType = "weekend"
	}
	n := g.sampleTripCount(dayType)
	if n > limits.MaxTrips {
		n = limits.MaxTrips
	}
	if n <= 0 {
		return nil
	}

	type depart struct {
		hour int
		dest model.Location
	}
	var picks []depart
	for attempt := 0; attempt < n*8 && len(picks) < n; attempt++ {
		hour, dest := g.sampleDeparture(dayType)
		if hour < limits.EarliestHour || hour >= limits.LatestHour {
			continue
		}
		if !limits.Allows(dest) {
			continue
		}
		picks = append(picks, depart{hour: hour, dest: dest})
	}
	if len(picks) == 0 {
		return nil
	}
	sort.Slice(picks, func(i, j int) bool { return picks[i].hour < picks[j].hour })
	// Close the chain: the day ends at home.
	picks[len(picks)-1].dest = model.LocHome

	stepsPerHour := int(time.Hour / g.Horizon.Step)
	if stepsPerHour == 0 {
		stepsPerHour = 1
	}
	minStaySteps := int(math.Ceil(float64(limits.MinStayMinutes) / g.Horizon.Step.Minutes()))
	dayStart := day * g.Horizon.StepsPerDay()

	var out []trip
	cursor := dayStart
	for _, p := range picks {
		dist, minutes := g.sampleDistance(p.dest)
		steps := int(math.Ceil(minutes / g.Horizon.Step.Minutes()))
		if steps < 1 {
			steps = 1
		}
		depart := dayStart + p.hour*stepsPerHour + g.rng.IntN(stepsPerHour)
		if depart < cursor+minStaySteps {
			depart = cursor + minStaySteps
		}
		if depart+steps > dayStart+g.Horizon.StepsPerDay() || depart+steps > g.Horizon.Periods {
			// Trip would not finish inside the day or horizon.
			continue
		}
		out = append(out, trip{departStep: depart, steps: steps, km: dist, dest: p.dest})
		cursor = depart + steps
	}
	return out
}

// applyTrips stamps the trips into the location chain and km series. Each
// trip marks its steps as driving and spreads its distance across them; from
// arrival onwards the chain holds the destination until the next trip.
func (g *Generator) applyTrips(trips []trip, locations []model.Location, km *model.TimeSeries) {
	for _, t := range trips {
		perStep := t.km / float64(t.steps)
		for s := t.departStep; s < t.departStep+t.steps && s < len(locations); s++ {
			locations[s] = model.LocDriving
			km.Values[s] += perStep
		}
		for s := t.departStep + t.steps; s < len(locations); s++ {
			locations[s] = t.dest
		}
	}
}

func (g *Generator) sampleTripCount(dayType string) int {
	entries := g.Stats.TripsPerDay[dayType]
	if len(entries) == 0 {
		return 0
	}
	w := make([]float64, len(entries))
	for i, e := range entries {
		w[i] = e.Weight
	}
	idx := int(distuv.NewCategorical(w, g.src).Rand())
	return entries[idx].Trips
}

func (g *Generator) sampleDeparture(dayType string) (int, model.Location) {
	entries := g.Stats.Departures[dayType]
	w := make([]float64, len(entries))
	for i, e := range entries {
		w[i] = e.Weight
	}
	idx := int(distuv.NewCategorical(w, g.src).Rand())
	return entries[idx].Hour, entries[idx].Destination
}

// sampleDistance draws a km/duration pair for a trip ending at dest. Buckets
// of other destinations are used when the table has none for dest.
func (g *Generator) sampleDistance(dest model.Location) (float64, float64) {
	var candidates []DistanceStat
	for _, d := range g.Stats.Distances {
		if d.Destination == dest {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		candidates = g.Stats.Distances
	}
	w := make([]float64, len(candidates))
	for i, d := range candidates {
		w[i] = d.Weight
	}
	idx := int(distuv.NewCategorical(w, g.src).Rand())
	b := candidates[idx]
	km := b.KmMin
	if b.KmMax > b.KmMin {
		km = distuv.Uniform{Min: b.KmMin, Max: b.KmMax, Src: g.src}.Rand()
	}
	minutes := b.MinutesMin
	if b.MinutesMax > b.MinutesMin {
		minutes = distuv.Uniform{Min: b.MinutesMin, Max: b.MinutesMax, Src: g.src}.Rand()
	}
	return km, minutes
}
