package mcrt

import (
	"fmt"
	"math/rand"
)

// SourceSystem aggregates the primary sources of one simulation and owns
// the top-level launch map. It is the single entry point the launch
// driver (launch.go) uses per emission segment.
type SourceSystem struct {
	sources []Source
	bias    Real
	seed    uint64
	lm      *launchMap
}

// NewSourceSystem validates and constructs a SourceSystem. bias is the
// global sourceBias, shared by every source at this level (subsources use
// their own internal bias, see imported_source.go). The per-history RNG
// seed defaults to defaultLaunchSeed; override it with SetSeed for a
// config-supplied value; reproducibility only needs the seed fixed, not
// fixed to anything in particular.
func NewSourceSystem(sources []Source, bias Real) (*SourceSystem, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("mcrt: a source system requires at least one source")
	}
	if bias < 0 || bias > 1 {
		return nil, fmt.Errorf("mcrt: sourceBias must be in [0,1], got %.6g", bias)
	}
	return &SourceSystem{sources: sources, bias: bias, seed: defaultLaunchSeed}, nil
}

// Seed returns the fixed seed LaunchSegment mixes with each history index.
func (ss *SourceSystem) Seed() uint64 { return ss.seed }

// SetSeed overrides the per-history RNG seed (e.g. from a run config's
// launchSeed). A zero seed is rejected in favor of the default, so an
// unset config field can't silently collapse every history index's RNG
// onto the all-zero splitmix64 state.
func (ss *SourceSystem) SetSeed(seed uint64) {
	if seed == 0 {
		seed = defaultLaunchSeed
	}
	ss.seed = seed
}

func (ss *SourceSystem) Luminosity() Real {
	total := Real(0)
	for _, s := range ss.sources {
		total += s.Luminosity()
	}
	return total
}

// Dimension is the maximum spatial dimension over all sources: a mixed
// point+imported run is 3-dimensional overall.
func (ss *SourceSystem) Dimension() int {
	d := 0
	for _, s := range ss.sources {
		if sd := s.Dimension(); sd > d {
			d = sd
		}
	}
	return d
}

// WavelengthRange is the union of every source's wavelength range.
func (ss *SourceSystem) WavelengthRange() (Real, Real) {
	lo, hi := Real(0), Real(0)
	first := true
	for _, s := range ss.sources {
		a, b := s.WavelengthRange()
		if first {
			lo, hi, first = a, b, false
			continue
		}
		if a < lo {
			lo = a
		}
		if b > hi {
			hi = b
		}
	}
	return lo, hi
}

// PrepareForLaunch builds the top-level launch map for N packets and
// propagates each source's assigned range down via its own
// PrepareForLaunch. It runs once, serially, before any concurrent Launch
// call.
func (ss *SourceSystem) PrepareForLaunch(n int) error {
	lums := make([]Real, len(ss.sources))
	weights := make([]Real, len(ss.sources))
	for i, s := range ss.sources {
		lums[i] = s.Luminosity()
		weights[i] = s.Weight()
	}
	lm, err := computeLaunchMap(lums, weights, ss.bias, n)
	if err != nil {
		return fmt.Errorf("mcrt: top-level launch map: %w", err)
	}
	ss.lm = lm
	for i, s := range ss.sources {
		count := lm.Iv[i+1] - lm.Iv[i]
		if err := s.PrepareForLaunch(lm.Iv[i], count); err != nil {
			return fmt.Errorf("mcrt: preparing source %q: %w", s.ID(), err)
		}
	}
	return nil
}

// Launch routes history index h to its owning source and fills pp,
// scaling the source-local unit weight by Lv[s]/Wv[s] to compensate for
// the biased allocation. rng must already be seeded deterministically
// from h; scratch is the calling goroutine's private cache.
func (ss *SourceSystem) Launch(pp *PhotonPacket, h int, rng *rand.Rand, scratch *ThreadScratch) error {
	if ss.lm == nil {
		return fmt.Errorf("mcrt: Launch called before PrepareForLaunch")
	}
	s, ok := searchLaunchMap(ss.lm.Iv, h)
	if !ok {
		return fmt.Errorf("mcrt: history index %d out of range [0,%d)", h, ss.lm.Iv[len(ss.lm.Iv)-1])
	}
	localIndex := h - ss.lm.Iv[s]
	src := ss.sources[s]
	if err := src.Launch(pp, localIndex, rng, scratch); err != nil {
		return fmt.Errorf("mcrt: source %q: %w", src.ID(), err)
	}
	if ss.lm.Lv[s] <= 0 || ss.lm.Wv[s] <= 0 {
		pp.Deactivate(h, s, src.ID())
		return nil
	}
	pp.Weight *= ss.lm.Lv[s] / ss.lm.Wv[s]
	pp.HistoryIndex = h
	pp.SourceIndex = s
	pp.SourceID = src.ID()
	return nil
}
