package mcrt

import "fmt"

// MixFamily maps a per-cell parameter vector to a Mix instance, enabling
// spatially varying opacity.
//
// A MixFamily must tolerate being queried before any Snapshot exists:
// during configuration validation a caller may ask for DefaultMix before
// ImportedMedium has attached a snapshot at all. The family answers from
// its declared parameter arity rather than lazily constructing a snapshot.
type MixFamily interface {
	// Mix returns the material mix for a given parameter vector. The
	// vector's length must equal ParamArity().
	Mix(params []Real) (Mix, error)
	// ParamArity is the expected length of a parameter vector.
	ParamArity() int
	// DefaultMix returns a mix usable when no snapshot/parameter vector
	// is available yet.
	DefaultMix() Mix
}

// GrainMixFamily scales a reference opacity power law by a single scalar
// metallicity-like parameter.
type GrainMixFamily struct {
	// Reference mix at parameter value 1 (e.g. solar metallicity).
	refKappaAbs0, refKappaSca0 Real
	slopeAbs, slopeSca         Real
	massPerParticle            Real
}

// NewGrainMixFamily validates and constructs a GrainMixFamily. The single
// parameter scales the reference opacities linearly (e.g. metallicity).
func NewGrainMixFamily(refKappaAbs0, refKappaSca0, slopeAbs, slopeSca, massPerParticle Real) (*GrainMixFamily, error) {
	if refKappaAbs0 < 0 || refKappaSca0 < 0 {
		return nil, fmt.Errorf("mcrt: reference opacities must be >= 0, got abs=%.6g sca=%.6g", refKappaAbs0, refKappaSca0)
	}
	if massPerParticle <= 0 {
		return nil, fmt.Errorf("mcrt: massPerParticle must be > 0, got %.6g", massPerParticle)
	}
	return &GrainMixFamily{
		refKappaAbs0:    refKappaAbs0,
		refKappaSca0:    refKappaSca0,
		slopeAbs:        slopeAbs,
		slopeSca:        slopeSca,
		massPerParticle: massPerParticle,
	}, nil
}

func (f *GrainMixFamily) ParamArity() int { return 1 }

func (f *GrainMixFamily) Mix(params []Real) (Mix, error) {
	if len(params) != f.ParamArity() {
		return nil, fmt.Errorf("mcrt: GrainMixFamily expects %d parameter(s), got %d", f.ParamArity(), len(params))
	}
	scale := params[0]
	if scale < 0 {
		scale = 0
	}
	return &PowerLawMix{
		kappaAbs0: f.refKappaAbs0 * scale,
		kappaSca0: f.refKappaSca0 * scale,
		slopeAbs:  f.slopeAbs,
		slopeSca:  f.slopeSca,
		massPerP:  f.massPerParticle,
	}, nil
}

// DefaultMix evaluates f.Mix at an all-zero parameter vector of length
// ParamArity(), giving a zero-opacity mix with the family's own mass per
// particle. It needs no snapshot; the package's placeholder mix is
// returned only if that evaluation fails.
func (f *GrainMixFamily) DefaultMix() Mix {
	m, err := f.Mix(make([]Real, f.ParamArity()))
	if err != nil {
		return defaultMix
	}
	return m
}
