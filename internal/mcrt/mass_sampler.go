package mcrt

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// massSampler draws a site index proportional to mass in O(log n) from a
// cumulative mass table, built once and reused across an emission
// segment's launches.
type massSampler struct {
	cum   []Real // cumulative sum, cum[i] = sum(masses[0..i])
	total Real
}

func newMassSampler(masses []Real) (*massSampler, error) {
	if len(masses) == 0 {
		return nil, fmt.Errorf("mcrt: cannot build a mass sampler over zero sites")
	}
	cum := make([]Real, len(masses))
	copy(cum, masses)
	floats.CumSum(cum, cum)
	total := cum[len(cum)-1]
	if total <= 0 {
		return nil, fmt.Errorf("mcrt: mass sampler requires positive total mass, got %.6g", total)
	}
	return &massSampler{cum: cum, total: total}, nil
}

// Sample draws a site index given a uniform random u in [0,1).
func (m *massSampler) Sample(u Real) int {
	target := u * m.total
	i := sort.Search(len(m.cum), func(k int) bool { return m.cum[k] > target })
	if i >= len(m.cum) {
		i = len(m.cum) - 1
	}
	return i
}

// Total returns the total mass represented by the sampler.
func (m *massSampler) Total() Real { return m.total }
