// Package rules defines the behavioural constraints applied to the mobility
// simulation of a user group. A group's rule set is derived by overlaying
// group-specific weekday and weekend entries on a shared base rule.
package rules

import (
	"fmt"

	"github.com/gridsim/bevflow/core/model"
)

// DayRule constrains trip generation for one day type. Zero values mean
// "inherit from the base rule"; explicit zero limits are expressed with the
// pointer fields.
type DayRule struct {
	// MaxTrips caps the number of trips sampled for a day. nil keeps the
	// base value, 0 forbids trips entirely.
	MaxTrips *int `json:"max_trips,omitempty" yaml:"max_trips,omitempty"`
	// EarliestDepartureHour is the first hour of day a trip may start.
	EarliestDepartureHour *int `json:"earliest_departure_hour,omitempty" yaml:"earliest_departure_hour,omitempty"`
	// LatestArrivalHour is the hour by which the last trip must be over.
	LatestArrivalHour *int `json:"latest_arrival_hour,omitempty" yaml:"latest_arrival_hour,omitempty"`
	// MinStayMinutes is the minimum dwell time between two trips.
	MinStayMinutes *int `json:"min_stay_minutes,omitempty" yaml:"min_stay_minutes,omitempty"`
	// Destinations restricts where trips may end. Empty keeps the base set.
	Destinations []model.Location `json:"destinations,omitempty" yaml:"destinations,omitempty"`
}

// Rule is the effective rule set of a group, split by day type.
type Rule struct {
	Weekday DayRule `json:"weekday" yaml:"weekday"`
	Weekend DayRule `json:"weekend" yaml:"weekend"`
}

// GroupOverride carries the per-group deviations from the base day rule.
type GroupOverride struct {
	Weekday DayRule `json:"weekday" yaml:"weekday"`
	Weekend DayRule `json:"weekend" yaml:"weekend"`
}

// ForDay returns the rule matching weekend.
func (r Rule) ForDay(weekend bool) DayRule {
	if weekend {
		return r.Weekend
	}
	return r.Weekday
}

// merge overlays override fields onto base.
func merge(base, override DayRule) DayRule {
	out := base
	if override.MaxTrips != nil {
		out.MaxTrips = override.MaxTrips
	}
	if override.EarliestDepartureHour != nil {
		out.EarliestDepartureHour = override.EarliestDepartureHour
	}
	if override.LatestArrivalHour != nil {
		out.LatestArrivalHour = override.LatestArrivalHour
	}
	if override.MinStayMinutes != nil {
		out.MinStayMinutes = override.MinStayMinutes
	}
	if len(override.Destinations) > 0 {
		out.Destinations = override.Destinations
	}
	return out
}

// ForGroup combines the base day rule with the overrides of one group, for
// weekdays and weekends separately.
func ForGroup(group string, overrides map[string]GroupOverride, base DayRule) Rule {
	o := overrides[group]
	return Rule{
		Weekday: merge(base, o.Weekday),
		Weekend: merge(base, o.Weekend),
	}
}

// Build produces the full rule table for the listed groups.
func Build(groups []string, overrides map[string]GroupOverride, base DayRule) map[string]Rule {
	out := make(map[string]Rule, len(groups))
	for _, g := range groups {
		out[g] = ForGroup(g, overrides, base)
	}
	return out
}

// Get fetches one group's rule from a table.
func Get(table map[string]Rule, group string) (Rule, error) {
	r, ok := table[group]
	if !ok {
		return Rule{}, fmt.Errorf("no rules for group %q", group)
	}
	return r, nil
}

// Limits resolved from a DayRule with defaults applied.
type Limits struct {
	MaxTrips       int
	EarliestHour   int
	LatestHour     int
	MinStayMinutes int
	Destinations   []model.Location
}

// Resolve fills unset fields with permissive defaults.
func (d DayRule) Resolve() Limits {
	l := Limits{
		MaxTrips:       5,
		EarliestHour:   5,
		LatestHour:     23,
		MinStayMinutes: 30,
		Destinations:   model.Destinations,
	}
	if d.MaxTrips != nil {
		l.MaxTrips = *d.MaxTrips
	}
	if d.EarliestDepartureHour != nil {
		l.EarliestHour = *d.EarliestDepartureHour
	}
	if d.LatestArrivalHour != nil {
		l.LatestHour = *d.LatestArrivalHour
	}
	if d.MinStayMinutes != nil {
		l.MinStayMinutes = *d.MinStayMinutes
	}
	if len(d.Destinations) > 0 {
		l.Destinations = d.Destinations
	}
	return l
}

// Allows reports whether the rule permits trips ending at loc.
func (l Limits) Allows(loc model.Location) bool {
	if loc == model.LocHome {
		return true
	}
	for _, d := range l.Destinations {
		if d == loc {
			return true
		}
	}
	return false
}
