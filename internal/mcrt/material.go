package mcrt

import (
	"fmt"
	"math"
)

// Mix is a material mix: it maps wavelength to per-unit-mass opacity and
// exposes the mass represented by a single particle of the mix.
type Mix interface {
	// OpacityAbs returns the absorption cross-section per unit mass at
	// wavelength lambda (micron), in pc^2/Msun.
	OpacityAbs(lambda Real) Real
	// OpacitySca returns the scattering cross-section per unit mass at
	// wavelength lambda (micron), in pc^2/Msun.
	OpacitySca(lambda Real) Real
	// MassPerParticle returns the mass (Msun) represented by one particle
	// of this mix; used for number<->mass density conversions.
	MassPerParticle() Real
}

// PowerLawMix is a simple analytic grain mix whose opacity follows a
// power law in wavelength.
type PowerLawMix struct {
	kappaAbs0 Real // absorption opacity at 1 micron
	kappaSca0 Real // scattering opacity at 1 micron
	slopeAbs  Real // power-law exponent for absorption
	slopeSca  Real // power-law exponent for scattering
	massPerP  Real
}

// NewPowerLawMix validates and constructs a PowerLawMix.
func NewPowerLawMix(kappaAbs0, kappaSca0, slopeAbs, slopeSca, massPerParticle Real) (*PowerLawMix, error) {
	if kappaAbs0 < 0 || kappaSca0 < 0 {
		return nil, fmt.Errorf("mcrt: opacities must be >= 0, got abs=%.6g sca=%.6g", kappaAbs0, kappaSca0)
	}
	if massPerParticle <= 0 {
		return nil, fmt.Errorf("mcrt: massPerParticle must be > 0, got %.6g", massPerParticle)
	}
	return &PowerLawMix{
		kappaAbs0: kappaAbs0,
		kappaSca0: kappaSca0,
		slopeAbs:  slopeAbs,
		slopeSca:  slopeSca,
		massPerP:  massPerParticle,
	}, nil
}

func (m *PowerLawMix) OpacityAbs(lambda Real) Real {
	if lambda <= 0 {
		return 0
	}
	return m.kappaAbs0 * math.Pow(lambda, m.slopeAbs)
}

func (m *PowerLawMix) OpacitySca(lambda Real) Real {
	if lambda <= 0 {
		return 0
	}
	return m.kappaSca0 * math.Pow(lambda, m.slopeSca)
}

func (m *PowerLawMix) MassPerParticle() Real { return m.massPerP }

// defaultMix is a zero-opacity placeholder mix, returned by
// GrainMixFamily.DefaultMix only when evaluating the family at its
// all-zero parameter vector fails.
var defaultMix = &PowerLawMix{kappaAbs0: 0, kappaSca0: 0, slopeAbs: 0, slopeSca: 0, massPerP: 1}
