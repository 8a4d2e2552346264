// Package mobility generates stochastic driving profiles for user groups from
// statistical input tables and group rules.
package mobility

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gridsim/bevflow/core/model"
)

// Standard file names of the statistical inputs inside a stats directory.
const (
	TripsPerDayFile          = "trips_per_day.csv"
	DepartureDestinationFile = "departure_destination.csv"
	DistanceDurationFile     = "distance_duration.csv"
)

// TripCountStat is one weighted entry of the trips-per-day distribution.
type TripCountStat struct {
	Trips  int
	Weight float64
}

// DepartureStat is one weighted (hour, destination) pair.
type DepartureStat struct {
	Hour        int
	Destination model.Location
	Weight      float64
}

// DistanceStat is a weighted distance/duration bucket for trips ending at a
// destination.
type DistanceStat struct {
	Destination model.Location
	KmMin       float64
	KmMax       float64
	MinutesMin  float64
	MinutesMax  float64
	Weight      float64
}

// Stats bundles all statistical inputs, keyed by day type ("weekday",
// "weekend") where applicable.
type Stats struct {
	TripsPerDay map[string][]TripCountStat
	Departures  map[string][]DepartureStat
	Distances   []DistanceStat
}

// LoadStats reads the three statistic tables from dir.
func LoadStats(dir string) (*Stats, error) {
	s := &Stats{
		TripsPerDay: make(map[string][]TripCountStat),
		Departures:  make(map[string][]DepartureStat),
	}
	if err := readCSV(filepath.Join(dir, TripsPerDayFile), 3, func(rec []string) error {
		trips, err := strconv.Atoi(rec[1])
		if err != nil {
			return fmt.Errorf("trips: %w", err)
		}
		w, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return fmt.Errorf("weight: %w", err)
		}
		day := strings.ToLower(rec[0])
		s.TripsPerDay[day] = append(s.TripsPerDay[day], TripCountStat{Trips: trips, Weight: w})
		return nil
	}); err != nil {
		return nil, err
	}
	if err := readCSV(filepath.Join(dir, DepartureDestinationFile), 4, func(rec []string) error {
		hour, err := strconv.Atoi(rec[1])
		if err != nil {
			return fmt.Errorf("hour: %w", err)
		}
		w, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return fmt.Errorf("weight: %w", err)
		}
		day := strings.ToLower(rec[0])
		s.Departures[day] = append(s.Departures[day], DepartureStat{
			Hour:        hour,
			Destination: model.Location(strings.ToLower(rec[2])),
			Weight:      w,
		})
		return nil
	}); err != nil {
		return nil, err
	}
	if err := readCSV(filepath.Join(dir, DistanceDurationFile), 6, func(rec []string) error {
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return fmt.Errorf("column %d: %w", i+1, err)
			}
			vals[i] = v
		}
		s.Distances = append(s.Distances, DistanceStat{
			Destination: model.Location(strings.ToLower(rec[0])),
			KmMin:       vals[0],
			KmMax:       vals[1],
			MinutesMin:  vals[2],
			MinutesMax:  vals[3],
			Weight:      vals[4],
		})
		return nil
	}); err != nil {
		return nil, err
	}
	return s, s.Validate()
}

// Validate ensures the tables cover both day types and carry positive weight.
func (s *Stats) Validate() error {
	for _, day := range []string{"weekday", "weekend"} {
		if sumTripWeights(s.TripsPerDay[day]) <= 0 {
			return fmt.Errorf("trips-per-day table has no weight for %s", day)
		}
		var w float64
		for _, d := range s.Departures[day] {
			w += d.Weight
		}
		if w <= 0 {
			return fmt.Errorf("departure table has no weight for %s", day)
		}
	}
	var w float64
	for _, d := range s.Distances {
		if d.KmMax < d.KmMin || d.MinutesMax < d.MinutesMin {
			return fmt.Errorf("distance bucket for %s has inverted bounds", d.Destination)
		}
		w += d.Weight
	}
	if w <= 0 {
		return fmt.Errorf("distance table has no weight")
	}
	return nil
}

func sumTripWeights(st []TripCountStat) float64 {
	var w float64
	for _, e := range st {
		w += e.Weight
	}
	return w
}

func readCSV(path string, fields int, row func([]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header := true
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		line++
		if header {
			header = false
			continue
		}
		if len(rec) < fields {
			return fmt.Errorf("%s line %d: expected %d fields, got %d", path, line, fields, len(rec))
		}
		if err := row(rec); err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}
}
