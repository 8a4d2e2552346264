// Package export writes generated profiles and solver results to CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gridsim/bevflow/core/energy"
	"github.com/gridsim/bevflow/core/model"
)

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// WriteProfile writes a profile as a time-indexed CSV with one column per
// series, plus the location chain when present.
func WriteProfile(w io.Writer, p *model.Profile) error {
	names := make([]string, 0, len(p.Series))
	for n := range p.Series {
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return fmt.Errorf("profile %s has no series", p.Name)
	}
	ref := p.Series[names[0]]

	cw := csv.NewWriter(w)
	header := append([]string{"time"}, names...)
	if len(p.Locations) > 0 {
		header = append(header, "location")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < ref.Len(); i++ {
		rec := make([]string, 0, len(header))
		rec = append(rec, ref.TimeAt(i).Format(time.RFC3339))
		for _, n := range names {
			rec = append(rec, formatFloat(p.Series[n].Values[i]))
		}
		if len(p.Locations) > 0 {
			rec = append(rec, string(p.Locations[i]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportProfile writes the profile to <dir>/<name>.csv.
func ExportProfile(dir string, p *model.Profile) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, p.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := WriteProfile(f, p); err != nil {
		return "", fmt.Errorf("export %s: %w", p.Name, err)
	}
	return path, nil
}

// WriteResult writes the solved dispatch: one column per flow plus storage
// levels.
func WriteResult(w io.Writer, res *energy.Result) error {
	flowNames := make([]string, 0, len(res.Flows))
	for n := range res.Flows {
		flowNames = append(flowNames, n)
	}
	sort.Strings(flowNames)
	levelNames := make([]string, 0, len(res.Levels))
	for n := range res.Levels {
		levelNames = append(levelNames, n)
	}
	sort.Strings(levelNames)
	if len(flowNames) == 0 {
		return fmt.Errorf("result has no flows")
	}
	ref := res.Flows[flowNames[0]]

	cw := csv.NewWriter(w)
	header := []string{"time"}
	for _, n := range flowNames {
		header = append(header, n+"_kw")
	}
	for _, n := range levelNames {
		header = append(header, n+"_kwh")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < ref.Len(); i++ {
		rec := []string{ref.TimeAt(i).Format(time.RFC3339)}
		for _, n := range flowNames {
			rec = append(rec, formatFloat(res.Flows[n].Values[i]))
		}
		for _, n := range levelNames {
			rec = append(rec, formatFloat(res.Levels[n].Values[i]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportResult writes the result to <dir>/<name>.csv.
func ExportResult(dir, name string, res *energy.Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := WriteResult(f, res); err != nil {
		return "", fmt.Errorf("export result %s: %w", name, err)
	}
	return path, nil
}

// ScenarioInput is the combined time-series table a scenario run consumes,
// written for inspection alongside the results.
type ScenarioInput struct {
	AtHome         *model.TimeSeries
	PVKW           *model.TimeSeries
	LoadKW         *model.TimeSeries
	ConsumptionKWh *model.TimeSeries
	ChargingKW     *model.TimeSeries
}

// WriteScenarioInput writes the combined input table.
func WriteScenarioInput(w io.Writer, in ScenarioInput) error {
	cols := []struct {
		name string
		ts   *model.TimeSeries
	}{
		{"bev_at_home", in.AtHome},
		{"pv_kw", in.PVKW},
		{"load_kw", in.LoadKW},
		{"consumption_kwh", in.ConsumptionKWh},
		{"charging_power_kw", in.ChargingKW},
	}
	var ref *model.TimeSeries
	header := []string{"time"}
	for _, c := range cols {
		if c.ts == nil {
			continue
		}
		header = append(header, c.name)
		if ref == nil {
			ref = c.ts
		}
	}
	if ref == nil {
		return fmt.Errorf("scenario input has no series")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < ref.Len(); i++ {
		rec := []string{ref.TimeAt(i).Format(time.RFC3339)}
		for _, c := range cols {
			if c.ts == nil {
				continue
			}
			rec = append(rec, formatFloat(c.ts.Values[i]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
