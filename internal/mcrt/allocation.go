package mcrt

import (
	"fmt"
	"math"
)

// launchMap is the per-emission-segment split of N packets across a set
// of sources (or, applied recursively, across a source's subsources).
// Both SourceSystem and ImportedSource build one via computeLaunchMap;
// subsource partitioning reuses the same biased formula one level down.
type launchMap struct {
	L   Real    // total bolometric luminosity, sum of per-entry L
	Lv  []Real  // Lv[s] = L_s / L
	Wv  []Real  // biased weight share, sums to 1
	Iv  []int   // prefix sum of allocated counts; len(Iv) == len(Lv)+1
	Lpp Real    // L / N
}

// computeLaunchMap builds the biased allocation Wv = (1-bias)*wL/sum(wL)
// + bias*w/sum(w) and its integer prefix-sum table Iv. luminosities and
// weights must have equal, non-zero length.
func computeLaunchMap(luminosities, weights []Real, bias Real, n int) (*launchMap, error) {
	if len(luminosities) != len(weights) {
		return nil, fmt.Errorf("mcrt: luminosities/weights length mismatch: %d vs %d", len(luminosities), len(weights))
	}
	if len(luminosities) == 0 {
		return nil, fmt.Errorf("mcrt: cannot build a launch map over zero entries")
	}
	if bias < 0 || bias > 1 {
		return nil, fmt.Errorf("mcrt: sourceBias must be in [0,1], got %.6g", bias)
	}
	if n < 0 {
		return nil, fmt.Errorf("mcrt: packet count must be >= 0, got %d", n)
	}

	k := len(luminosities)
	lm := &launchMap{Lv: make([]Real, k), Wv: make([]Real, k), Iv: make([]int, k+1)}

	totalL := Real(0)
	for _, l := range luminosities {
		totalL += l
	}
	lm.L = totalL

	if totalL > 0 {
		for i, l := range luminosities {
			lm.Lv[i] = l / totalL
		}
	}
	// Lv stays all-zero when totalL == 0; such packets launch inactive.

	totalW := Real(0)
	for _, w := range weights {
		totalW += w
	}
	effWeights := weights
	if totalW == 0 {
		// All-zero weights fall back to uniform weights.
		effWeights = make([]Real, k)
		for i := range effWeights {
			effWeights[i] = 1
		}
		totalW = Real(k)
	}

	totalWL := Real(0)
	for i, w := range effWeights {
		totalWL += w * luminosities[i]
	}

	for i, w := range effWeights {
		var lumShare Real
		if totalWL > 0 {
			lumShare = (w * luminosities[i]) / totalWL
		}
		uniformShare := w / totalW
		lm.Wv[i] = (1-bias)*lumShare + bias*uniformShare
	}
	wvTotal := Real(0)
	for _, w := range lm.Wv {
		wvTotal += w
	}
	if wvTotal <= 0 {
		// bias 0 with every luminosity 0 zeroes every share; fall back to
		// a uniform split so the prefix table still covers [0, n).
		for i := range lm.Wv {
			lm.Wv[i] = 1 / Real(k)
		}
	}
	normalizeToUnit(lm.Wv)

	counts := largestRemainderAllocation(lm.Wv, n)
	sum := 0
	for i, c := range counts {
		lm.Iv[i] = sum
		sum += c
	}
	lm.Iv[k] = n

	if n > 0 && totalL > 0 {
		lm.Lpp = totalL / Real(n)
	}
	return lm, nil
}

// normalizeToUnit rescales xs in place so it sums to 1 within 1 ulp,
// guarding against both zero and tiny nonzero totals.
func normalizeToUnit(xs []Real) {
	sum := Real(0)
	for _, x := range xs {
		sum += x
	}
	if sum <= 0 {
		return
	}
	for i := range xs {
		xs[i] /= sum
	}
}

// largestRemainderAllocation rounds raw shares x_s = w_s*n to integer
// counts summing exactly to n via the largest-remainder method: floor
// each share, then hand the remainder to the sources with the largest
// fractional part, ties broken by ascending index.
func largestRemainderAllocation(shares []Real, n int) []int {
	k := len(shares)
	counts := make([]int, k)
	fracs := make([]Real, k)
	assigned := 0
	for i, w := range shares {
		x := w * Real(n)
		f := math.Floor(x)
		counts[i] = int(f)
		fracs[i] = x - f
		assigned += counts[i]
	}
	remainder := n - assigned
	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	// Stable sort descending by fractional part, ties by ascending index
	// (insertion sort is fine: k is the source/subsource count, always
	// small relative to N).
	for i := 1; i < k; i++ {
		j := i
		for j > 0 && fracs[order[j]] > fracs[order[j-1]] {
			order[j], order[j-1] = order[j-1], order[j]
			j--
		}
	}
	for i := 0; i < remainder && i < k; i++ {
		counts[order[i]]++
	}
	return counts
}
