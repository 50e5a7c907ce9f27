package input

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/marineops/ballastgate/internal/hydro"
)

// LoadHydroTable reads the hydrostatic curve CSV (columns draft, tpc, mtc,
// lcf) and builds the interpolation table.
func LoadHydroTable(path string) (*hydro.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("input: open hydro table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("input: parse hydro table %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("input: hydro table %s has no data rows", path)
	}

	cols := headerIndex(records[0])
	for _, required := range []string{"draft", "tpc", "mtc", "lcf"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("input: hydro table %s missing column %q", path, required)
		}
	}

	samples := make([]hydro.Sample, 0, len(records)-1)
	for line, rec := range records[1:] {
		num := func(col string) (float64, error) {
			i := cols[col]
			if i >= len(rec) {
				return 0, fmt.Errorf("input: hydro table %s row %d: missing %s", path, line+2, col)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return 0, fmt.Errorf("input: hydro table %s row %d: bad %s %q", path, line+2, col, rec[i])
			}
			return v, nil
		}

		var s hydro.Sample
		if s.Draft, err = num("draft"); err != nil {
			return nil, err
		}
		if s.TPC, err = num("tpc"); err != nil {
			return nil, err
		}
		if s.MTC, err = num("mtc"); err != nil {
			return nil, err
		}
		if s.LCF, err = num("lcf"); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	table, err := hydro.NewTable(samples)
	if err != nil {
		return nil, fmt.Errorf("input: hydro table %s: %w", path, err)
	}
	return table, nil
}
