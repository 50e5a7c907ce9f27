package input

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/marineops/ballastgate/pkg/types"
)

// LoadSoundings reads one tank sounding snapshot CSV (columns tank, tons).
func LoadSoundings(path string) (map[types.TankID]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("input: open soundings: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("input: parse soundings %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("input: soundings %s has no data rows", path)
	}

	cols := headerIndex(records[0])
	for _, required := range []string{"tank", "tons"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("input: soundings %s missing column %q", path, required)
		}
	}

	out := make(map[types.TankID]float64, len(records)-1)
	for line, rec := range records[1:] {
		id := types.TankID(strings.TrimSpace(rec[cols["tank"]]))
		if id == "" {
			return nil, fmt.Errorf("input: soundings %s row %d: empty tank name", path, line+2)
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("input: soundings %s row %d: duplicate tank %q", path, line+2, id)
		}
		tons, err := strconv.ParseFloat(strings.TrimSpace(rec[cols["tons"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("input: soundings %s row %d: bad tons %q", path, line+2, rec[cols["tons"]])
		}
		out[id] = tons
	}
	return out, nil
}

// LatestSoundings returns the newest snapshot file in a directory. Snapshot
// filenames embed their timestamp (soundings_20260825T1200.csv), so "newest"
// is the lexically greatest matching name.
func LatestSoundings(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("input: scan soundings dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".csv") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("input: no sounding snapshots in %s", dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

// ResolveSoundings loads soundings from a path that may be either one
// snapshot file or a directory of timestamped snapshots.
func ResolveSoundings(path string) (map[types.TankID]float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input: soundings path: %w", err)
	}
	if info.IsDir() {
		latest, err := LatestSoundings(path)
		if err != nil {
			return nil, err
		}
		return LoadSoundings(latest)
	}
	return LoadSoundings(path)
}
