package mcrt

import (
	"fmt"
	"sort"
)

// SEDFamily interpolates a precomputed table on axes (lambda, logU, Z) to
// return specific luminosity and to build cumulative spectral
// distributions.
//
// Out-of-range axis values clamp to the table's bounds rather than
// erroring or returning zero: a cell whose logU or Z lands a hair outside
// the tabulated grid due to upstream rounding should not abort an
// otherwise valid run.
type SEDFamily struct {
	name string // "continuum" or "line"; the two families never share an instance

	lambdas []Real // strictly increasing, microns
	logUs   []Real // strictly increasing
	Zs      []Real // strictly increasing

	// table[iLambda][iLogU][iZ] = specific luminosity per unit ionising
	// luminosity, W/micron per W of IonisingLum.
	table [][][]Real
}

// NewSEDFamily validates and constructs a table-interpolated SED family.
func NewSEDFamily(name string, lambdas, logUs, Zs []Real, table [][][]Real) (*SEDFamily, error) {
	if len(lambdas) < 2 || len(logUs) < 2 || len(Zs) < 2 {
		return nil, fmt.Errorf("mcrt: SED family %q needs at least 2 points on each axis", name)
	}
	if !strictlyIncreasing(lambdas) || !strictlyIncreasing(logUs) || !strictlyIncreasing(Zs) {
		return nil, fmt.Errorf("mcrt: SED family %q axes must be strictly increasing", name)
	}
	if len(table) != len(lambdas) {
		return nil, fmt.Errorf("mcrt: SED family %q table lambda dimension mismatch", name)
	}
	for _, plane := range table {
		if len(plane) != len(logUs) {
			return nil, fmt.Errorf("mcrt: SED family %q table logU dimension mismatch", name)
		}
		for _, row := range plane {
			if len(row) != len(Zs) {
				return nil, fmt.Errorf("mcrt: SED family %q table Z dimension mismatch", name)
			}
		}
	}
	return &SEDFamily{name: name, lambdas: lambdas, logUs: logUs, Zs: Zs, table: table}, nil
}

// Name reports which SED family this is ("continuum" or "line").
func (f *SEDFamily) Name() string { return f.name }

func strictlyIncreasing(xs []Real) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return false
		}
	}
	return true
}

// bracket finds i such that xs[i] <= x <= xs[i+1], clamping x into range,
// and returns the interpolation fraction t in [0,1].
func bracket(xs []Real, x Real) (i int, t Real) {
	if x <= xs[0] {
		return 0, 0
	}
	if x >= xs[len(xs)-1] {
		return len(xs) - 2, 1
	}
	i = sort.Search(len(xs), func(k int) bool { return xs[k] > x }) - 1
	if i < 0 {
		i = 0
	}
	if i > len(xs)-2 {
		i = len(xs) - 2
	}
	t = (x - xs[i]) / (xs[i+1] - xs[i])
	return i, t
}

func lerp(a, b, t Real) Real { return a + (b-a)*t }

// tableAt returns the trilinearly-interpolated table value at (lambda, logU, Z),
// clamping each axis to its tabulated range.
func (f *SEDFamily) tableAt(lambda, logU, Z Real) Real {
	il, tl := bracket(f.lambdas, lambda)
	iu, tu := bracket(f.logUs, logU)
	iz, tz := bracket(f.Zs, Z)

	c000 := f.table[il][iu][iz]
	c100 := f.table[il+1][iu][iz]
	c010 := f.table[il][iu+1][iz]
	c110 := f.table[il+1][iu+1][iz]
	c001 := f.table[il][iu][iz+1]
	c101 := f.table[il+1][iu][iz+1]
	c011 := f.table[il][iu+1][iz+1]
	c111 := f.table[il+1][iu+1][iz+1]

	c00 := lerp(c000, c100, tl)
	c10 := lerp(c010, c110, tl)
	c01 := lerp(c001, c101, tl)
	c11 := lerp(c011, c111, tl)

	c0 := lerp(c00, c10, tu)
	c1 := lerp(c01, c11, tu)

	return lerp(c0, c1, tz)
}

// SEDParams is the per-cell/per-subsource parameter vector consumed by an
// SEDFamily.
type SEDParams struct {
	LogU        Real
	Z           Real
	IonisingLum Real // W
	Emission    bool
}

// SpecificLuminosity returns the specific luminosity (W/micron) at
// wavelength lambda (microns) for the given parameters. When Emission is
// false the family returns exactly 0 irrespective of lambda.
func (f *SEDFamily) SpecificLuminosity(p SEDParams, lambda Real) Real {
	if !p.Emission || p.IonisingLum <= 0 {
		return 0
	}
	return f.tableAt(lambda, p.LogU, p.Z) * p.IonisingLum
}

// CumulativeDistribution builds a cumulative spectral distribution over
// [lambdaMin, lambdaMax] by sampling the table on a fixed-resolution grid,
// for use by an imported source's per-subsource spectral sampler. It
// returns nil when the source does not emit.
func (f *SEDFamily) CumulativeDistribution(p SEDParams, lambdaMin, lambdaMax Real, nBins int) (*CDF, error) {
	if lambdaMin <= 0 || lambdaMax <= lambdaMin {
		return nil, fmt.Errorf("mcrt: invalid wavelength range [%.6g, %.6g]", lambdaMin, lambdaMax)
	}
	if nBins < 2 {
		nBins = 2
	}
	if !p.Emission || p.IonisingLum <= 0 {
		return nil, nil
	}
	grid := make([]Real, nBins+1)
	vals := make([]Real, nBins+1)
	step := (lambdaMax - lambdaMin) / Real(nBins)
	for i := 0; i <= nBins; i++ {
		lambda := lambdaMin + Real(i)*step
		grid[i] = lambda
		vals[i] = f.SpecificLuminosity(p, lambda)
	}
	return newCDF(grid, vals)
}
