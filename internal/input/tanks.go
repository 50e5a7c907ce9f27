package input

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/marineops/ballastgate/pkg/types"
)

// Tank table CSV columns. Either lcg or frame must be present; when both
// are, lcg wins. current, rate, and priority are optional.
const (
	colID       = "id"
	colLCG      = "lcg"
	colFrame    = "frame"
	colCurrent  = "current"
	colMin      = "min"
	colMax      = "max"
	colMode     = "mode"
	colRate     = "rate"
	colPriority = "priority"
)

// LoadTankTable reads the static tank metadata CSV. Frame-station positions
// are converted to midship offsets with the profile's midship constant.
func LoadTankTable(path string, profile Profile) ([]types.Tank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("input: open tank table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("input: parse tank table %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("input: tank table %s has no data rows", path)
	}

	cols := headerIndex(records[0])
	for _, required := range []string{colID, colMin, colMax, colMode} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("input: tank table %s missing column %q", path, required)
		}
	}
	_, hasLCG := cols[colLCG]
	_, hasFrame := cols[colFrame]
	if !hasLCG && !hasFrame {
		return nil, fmt.Errorf("input: tank table %s needs an %q or %q column", path, colLCG, colFrame)
	}

	tanks := make([]types.Tank, 0, len(records)-1)
	seen := make(map[types.TankID]bool)
	for line, rec := range records[1:] {
		get := func(col string) string {
			if i, ok := cols[col]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		num := func(col string, def float64) (float64, error) {
			s := get(col)
			if s == "" {
				return def, nil
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, fmt.Errorf("input: tank table %s row %d: bad %s %q", path, line+2, col, s)
			}
			return v, nil
		}

		t := types.Tank{ID: types.TankID(get(colID))}
		if seen[t.ID] {
			return nil, fmt.Errorf("input: tank table %s: duplicate tank %q", path, t.ID)
		}
		seen[t.ID] = true

		if t.Min, err = num(colMin, 0); err != nil {
			return nil, err
		}
		if t.Max, err = num(colMax, 0); err != nil {
			return nil, err
		}
		if t.Current, err = num(colCurrent, t.Min); err != nil {
			return nil, err
		}
		if t.PumpRate, err = num(colRate, 0); err != nil {
			return nil, err
		}
		if t.Priority, err = num(colPriority, 1); err != nil {
			return nil, err
		}

		if lcg := get(colLCG); lcg != "" {
			if t.LCG, err = num(colLCG, 0); err != nil {
				return nil, err
			}
		} else {
			frame, err := num(colFrame, 0)
			if err != nil {
				return nil, err
			}
			t.LCG = types.FrameOffset(profile.MidshipConstant, frame)
		}

		mode := types.TankMode(strings.ToUpper(get(colMode)))
		t.Mode = mode
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("input: tank table %s row %d: %w", path, line+2, err)
		}
		tanks = append(tanks, t)
	}
	return tanks, nil
}

// ApplySoundings returns a copy of the tank table with current contents
// replaced by the sounding snapshot. Every sounding must name a known tank;
// tanks without a sounding keep the table's current value. A sounding that
// breaks the min <= current <= max invariant is rejected, not repaired.
func ApplySoundings(tanks []types.Tank, soundings map[types.TankID]float64) ([]types.Tank, error) {
	byID := make(map[types.TankID]int, len(tanks))
	out := make([]types.Tank, len(tanks))
	copy(out, tanks)
	for i, t := range tanks {
		byID[t.ID] = i
	}

	for id, tons := range soundings {
		i, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("input: sounding for unknown tank %q", id)
		}
		out[i].Current = tons
		if err := out[i].Validate(); err != nil {
			return nil, fmt.Errorf("input: sounding for tank %q: %w", id, err)
		}
	}
	return out, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}
