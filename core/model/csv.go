package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// LoadSeriesCSV reads a CSV with a header row and one value per step (last
// column) into a series aligned to the horizon. The file must cover the full
// horizon; surplus rows are ignored.
func LoadSeriesCSV(path string, h Horizon) (*TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	out := h.Series()
	idx := 0
	header := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if header {
			header = false
			continue
		}
		if idx >= h.Periods {
			break
		}
		v, err := strconv.ParseFloat(rec[len(rec)-1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, idx+1, err)
		}
		out.Values[idx] = v
		idx++
	}
	if idx < h.Periods {
		return nil, fmt.Errorf("%s covers %d of %d steps", path, idx, h.Periods)
	}
	return out, nil
}
