package mcrt

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ColumnImportOptions selects which optional trailing columns a column-text
// snapshot file carries. Column order is fixed and matches the field order
// below (metallicity, temperature, velocity, magnetic field, mix params).
type ColumnImportOptions struct {
	HoldsNumber            bool // 4th column is M (mass) when false, number when true
	ImportMetallicity      bool
	ImportTemperature      bool
	ImportVelocity         bool // 3 trailing columns, m/s
	ImportMagneticField    bool // 3 trailing columns, T
	ImportVariableMixParams int // number of trailing parameter columns (0 disables)
}

// LoadColumnSnapshot parses a UTF-8, whitespace-separated column-text
// Voronoi-mesh snapshot: x, y, z (pc), then rho or M (Msun/pc^3 or Msun),
// then the optional columns enabled by opts in fixed order. Lines
// beginning with '#' are header/unit-comment lines and are skipped;
// absent unit headers imply the defaults above, so headers are advisory.
func LoadColumnSnapshot(path string, opts ColumnImportOptions) (*InMemorySnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mcrt: opening snapshot file %q: %w", path, err)
	}
	defer f.Close()

	expectedCols := 4
	if opts.ImportMetallicity {
		expectedCols++
	}
	if opts.ImportTemperature {
		expectedCols++
	}
	if opts.ImportVelocity {
		expectedCols += 3
	}
	if opts.ImportMagneticField {
		expectedCols += 3
	}
	expectedCols += opts.ImportVariableMixParams

	var positions []Point3
	var values []Real
	var metals []Real
	var temps []Real
	var vels []Vector3
	var bfields []Vector3
	var params [][]Real

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != expectedCols {
			return nil, fmt.Errorf("mcrt: %s:%d: expected %d columns, got %d", path, lineNo, expectedCols, len(fields))
		}
		nums := make([]Real, len(fields))
		for i, tok := range fields {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("mcrt: %s:%d: column %d: %w", path, lineNo, i+1, err)
			}
			nums[i] = v
		}

		cursor := 0
		positions = append(positions, Point3{nums[0], nums[1], nums[2]})
		cursor += 3
		values = append(values, nums[cursor])
		cursor++
		if opts.ImportMetallicity {
			metals = append(metals, nums[cursor])
			cursor++
		}
		if opts.ImportTemperature {
			temps = append(temps, nums[cursor])
			cursor++
		}
		if opts.ImportVelocity {
			vels = append(vels, Vector3{nums[cursor], nums[cursor+1], nums[cursor+2]})
			cursor += 3
		}
		if opts.ImportMagneticField {
			bfields = append(bfields, Vector3{nums[cursor], nums[cursor+1], nums[cursor+2]})
			cursor += 3
		}
		if opts.ImportVariableMixParams > 0 {
			p := make([]Real, opts.ImportVariableMixParams)
			copy(p, nums[cursor:cursor+opts.ImportVariableMixParams])
			params = append(params, p)
			cursor += opts.ImportVariableMixParams
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("mcrt: reading %s: %w", path, err)
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("mcrt: %s contains no data rows", path)
	}

	snap, err := NewInMemorySnapshot(SnapshotVoronoiMesh, opts.HoldsNumber, positions, values)
	if err != nil {
		return nil, err
	}
	if len(metals) > 0 {
		if err := snap.SetMetallicity(metals); err != nil {
			return nil, err
		}
	}
	if len(temps) > 0 {
		if err := snap.SetTemperature(temps); err != nil {
			return nil, err
		}
	}
	if len(vels) > 0 {
		if err := snap.SetVelocity(vels); err != nil {
			return nil, err
		}
	}
	if len(bfields) > 0 {
		if err := snap.SetMagneticField(bfields); err != nil {
			return nil, err
		}
	}
	if len(params) > 0 {
		if err := snap.SetParams(params); err != nil {
			return nil, err
		}
	}
	return snap, nil
}
