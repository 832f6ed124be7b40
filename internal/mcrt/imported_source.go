package mcrt

import (
	"fmt"
	"math"
	"math/rand"
)

const importedSourceCDFBins = 64

// ImportedSource is a Source backed by a Snapshot of many emitting
// subsources (e.g. star-forming regions), each driven by an SEDFamily
// keyed by that subsource's parameter vector. It iterates subsources in
// index order; for the current subsource it lazily builds a spectral CDF,
// releasing it once the (per-thread) cursor advances past that subsource
// (see threadcache.go).
type ImportedSource struct {
	id       string
	snapshot Snapshot
	sed      *SEDFamily
	weight   Real
	lambdaMin, lambdaMax Real

	subLuminosity []Real // bolometric luminosity per subsource
	subWeight     []Real // emission weight per subsource (mass-proportional)
	jitterHalf    Real   // half-width for interior-position sampling around a site
	lm            *launchMap
}

// NewImportedSource validates and constructs an ImportedSource. weight is
// this source's own emission weight; subsource weights default to mass
// (via snapshot.ValueAt), so faint massive regions still get coverage.
func NewImportedSource(id string, snapshot Snapshot, sed *SEDFamily, weight, lambdaMin, lambdaMax Real) (*ImportedSource, error) {
	if snapshot == nil || sed == nil {
		return nil, fmt.Errorf("mcrt: source %q requires a non-nil snapshot and SED family", id)
	}
	if weight <= 0 {
		return nil, fmt.Errorf("mcrt: source %q emission weight must be > 0, got %.6g", id, weight)
	}
	if lambdaMax <= lambdaMin || lambdaMin <= 0 {
		return nil, fmt.Errorf("mcrt: source %q has invalid wavelength range [%.6g, %.6g]", id, lambdaMin, lambdaMax)
	}
	n := snapshot.Count()
	subLum := make([]Real, n)
	subWeight := make([]Real, n)
	for i := 0; i < n; i++ {
		params := snapshotSEDParams(snapshot, i)
		subLum[i] = bolometricLuminosity(sed, params, lambdaMin, lambdaMax, importedSourceCDFBins)
		subWeight[i] = snapshot.ValueAt(i)
		if subWeight[i] <= 0 {
			subWeight[i] = 0
		}
	}
	min, max := snapshot.Bounds()
	volume := (max.X - min.X) * (max.Y - min.Y) * (max.Z - min.Z)
	jitterHalf := Real(0)
	if volume > 0 {
		jitterHalf = math.Cbrt(volume/Real(n)) * 0.5
	}
	return &ImportedSource{
		id: id, snapshot: snapshot, sed: sed, weight: weight,
		lambdaMin: lambdaMin, lambdaMax: lambdaMax,
		subLuminosity: subLum, subWeight: subWeight,
		jitterHalf: jitterHalf,
	}, nil
}

// snapshotSEDParams interprets a snapshot site's variable-mix parameter
// vector as SED parameters, in the fixed column order
// [logU, Z, IonisingLum, EmissionBool].
func snapshotSEDParams(snapshot Snapshot, i int) SEDParams {
	raw := snapshot.ParamsAt(i)
	if len(raw) < 4 {
		return SEDParams{}
	}
	return SEDParams{LogU: raw[0], Z: raw[1], IonisingLum: raw[2], Emission: raw[3] != 0}
}

// bolometricLuminosity numerically integrates specific luminosity over
// [lambdaMin, lambdaMax] on a fixed-resolution grid, the same trapezoid
// idiom used by CDF construction, applied here to get a scalar L_s for
// the allocation formula rather than a sampling distribution.
func bolometricLuminosity(sed *SEDFamily, p SEDParams, lambdaMin, lambdaMax Real, nBins int) Real {
	if !p.Emission || p.IonisingLum <= 0 {
		return 0
	}
	step := (lambdaMax - lambdaMin) / Real(nBins)
	total := Real(0)
	prev := sed.SpecificLuminosity(p, lambdaMin)
	for i := 1; i <= nBins; i++ {
		lambda := lambdaMin + Real(i)*step
		cur := sed.SpecificLuminosity(p, lambda)
		total += 0.5 * (prev + cur) * step
		prev = cur
	}
	return total
}

func (s *ImportedSource) ID() string                 { return s.id }
func (s *ImportedSource) Weight() Real                { return s.weight }
func (s *ImportedSource) Dimension() int              { return 3 }
func (s *ImportedSource) WavelengthRange() (Real, Real) { return s.lambdaMin, s.lambdaMax }

func (s *ImportedSource) Luminosity() Real {
	total := Real(0)
	for _, l := range s.subLuminosity {
		total += l
	}
	return total
}

// PrepareForLaunch partitions this source's assigned index range across
// its subsources using the same biased allocation formula SourceSystem
// applies one level up. An internal bias of 0.5 is used for subsource
// partitioning: subsources have no independently configured bias, so the
// split lands halfway between coverage proportional to mass times
// luminosity and purely mass-proportional coverage.
func (s *ImportedSource) PrepareForLaunch(firstIndex, count int) error {
	lm, err := computeLaunchMap(s.subLuminosity, s.subWeight, 0.5, count)
	if err != nil {
		return fmt.Errorf("mcrt: source %q: %w", s.id, err)
	}
	s.lm = lm
	return nil
}

func (s *ImportedSource) Launch(pp *PhotonPacket, localIndex int, rng *rand.Rand, scratch *ThreadScratch) error {
	if s.lm == nil {
		return fmt.Errorf("mcrt: source %q launched before PrepareForLaunch", s.id)
	}
	j, ok := searchLaunchMap(s.lm.Iv, localIndex)
	if !ok {
		return fmt.Errorf("mcrt: source %q: localIndex %d out of range", s.id, localIndex)
	}

	pp.Reset()
	site := s.snapshot.PositionAt(j)
	// Emit from inside the subsource's cell, not the site point itself:
	// a box jitter sized to the mean cell volume stands in for the exact
	// (unbuilt) Voronoi cell interior.
	pp.Position = site.Add(Vector3{
		(rng.Float64()*2 - 1) * s.jitterHalf,
		(rng.Float64()*2 - 1) * s.jitterHalf,
		(rng.Float64()*2 - 1) * s.jitterHalf,
	})
	pp.Direction = sampleIsotropicDirection(rng)
	pp.EmitterVelocity, _ = s.snapshot.VelocityAt(j)
	pp.SourceID = s.id

	cache := scratch.subsourceCacheFor(s)
	if cache.index != j {
		params := snapshotSEDParams(s.snapshot, j)
		cdf, err := s.sed.CumulativeDistribution(params, s.lambdaMin, s.lambdaMax, importedSourceCDFBins)
		if err != nil {
			return fmt.Errorf("mcrt: source %q subsource %d: %w", s.id, j, err)
		}
		cache.advance(j, cdf)
	}

	if cache.spectrum == nil {
		// EmissionBool was false for this subsource: it was allocated a
		// share only because of the uniform-by-weight term. It still
		// contributes a packet, at zero weight.
		pp.Wavelength = s.lambdaMin
		pp.Weight = 0
		return nil
	}
	pp.Wavelength = cache.spectrum.Sample(rng.Float64())
	pp.Weight = 1 // scaled to Lv[s]/Wv[s] by SourceSystem after this call
	if s.lm.Lv[j] <= 0 || s.lm.Wv[j] <= 0 {
		pp.Weight = 0
	} else {
		pp.Weight *= s.lm.Lv[j] / s.lm.Wv[j]
	}
	return nil
}

// searchLaunchMap finds s such that iv[s] <= h < iv[s+1] via binary
// search over the prefix-sum table.
func searchLaunchMap(iv []int, h int) (int, bool) {
	if h < 0 || h >= iv[len(iv)-1] {
		return 0, false
	}
	lo, hi := 0, len(iv)-2
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if iv[mid] <= h {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, true
}
