package mcrt

import (
	"fmt"
	"math"
	"math/rand"
)

// MediumKind distinguishes the density policy applied to a Snapshot:
// dust gets a temperature cutoff, gas does not.
type MediumKind int

const (
	MediumDust MediumKind = iota
	MediumGas
)

// ImportedMedium wraps a Snapshot and a fixed Mix or MixFamily to expose
// density/mass/optical-depth queries to the propagation engine. It
// exclusively owns its Snapshot.
type ImportedMedium struct {
	snapshot Snapshot
	kind     MediumKind

	massFraction   Real
	maxTemperature Real // used only when kind == MediumDust
	useMetallicity bool

	mix       Mix       // non-nil when hasVariableMix() is false
	mixFamily MixFamily // non-nil when hasVariableMix() is true

	effectiveMass []Real
	totalMass     Real
	sampler       *massSampler
	cellVolume    Real // bounding-box volume / site count, a per-site volume proxy
}

// NewImportedMedium validates configuration and precomputes the per-site
// effective mass table (mass fraction, metallicity, temperature cutoff)
// exactly once at construction rather than per query.
func NewImportedMedium(snapshot Snapshot, kind MediumKind, massFraction, maxTemperature Real, useMetallicity bool, mix Mix, mixFamily MixFamily) (*ImportedMedium, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("mcrt: ImportedMedium requires a non-nil snapshot")
	}
	if massFraction < 0 {
		return nil, fmt.Errorf("mcrt: massFraction must be >= 0, got %.6g", massFraction)
	}
	if mix == nil && mixFamily == nil {
		return nil, fmt.Errorf("mcrt: ImportedMedium requires either a fixed mix or a mix family")
	}
	if mix != nil && mixFamily != nil {
		return nil, fmt.Errorf("mcrt: ImportedMedium accepts a fixed mix XOR a mix family, not both")
	}

	m := &ImportedMedium{
		snapshot:       snapshot,
		kind:           kind,
		massFraction:   massFraction,
		maxTemperature: maxTemperature,
		useMetallicity: useMetallicity,
		mix:            mix,
		mixFamily:      mixFamily,
	}

	min, max := snapshot.Bounds()
	volume := (max.X - min.X) * (max.Y - min.Y) * (max.Z - min.Z)
	n := Real(snapshot.Count())
	if volume > 0 && n > 0 {
		m.cellVolume = volume / n
	} else {
		m.cellVolume = 1
	}

	if err := m.computeEffectiveMass(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ImportedMedium) massPerParticleAt(i int) Real {
	if m.mix != nil {
		return m.mix.MassPerParticle()
	}
	mix, err := m.mixFamily.Mix(m.snapshot.ParamsAt(i))
	if err != nil || mix == nil {
		return m.mixFamily.DefaultMix().MassPerParticle()
	}
	return mix.MassPerParticle()
}

func (m *ImportedMedium) computeEffectiveMass() error {
	n := m.snapshot.Count()
	m.effectiveMass = make([]Real, n)
	total := Real(0)
	for i := 0; i < n; i++ {
		raw := m.snapshot.ValueAt(i)
		var mass Real
		if m.snapshot.HoldsNumber() {
			mass = raw * m.massPerParticleAt(i)
		} else {
			mass = raw
		}
		mass *= m.massFraction
		if m.useMetallicity {
			if z, ok := m.snapshot.MetallicityAt(i); ok {
				mass *= z
			}
		}
		if m.kind == MediumDust && m.maxTemperature > 0 {
			if t, ok := m.snapshot.TemperatureAt(i); ok && t > m.maxTemperature {
				mass = 0
			}
		}
		m.effectiveMass[i] = mass
		total += mass
	}
	m.totalMass = total
	if total > 0 {
		sampler, err := newMassSampler(m.effectiveMass)
		if err != nil {
			return err
		}
		m.sampler = sampler
	}
	return nil
}

// Mass returns the total effective mass after the density policy is
// applied.
func (m *ImportedMedium) Mass() Real { return m.totalMass }

// Number returns the total particle/site count, independent of mass.
func (m *ImportedMedium) Number() int { return m.snapshot.Count() }

// MassDensity returns the effective mass density at position x, or 0
// outside the domain (propagation treats that as vacuum).
func (m *ImportedMedium) MassDensity(x Point3) Real {
	i, ok := m.snapshot.NearestIndex(x)
	if !ok {
		return 0
	}
	return m.effectiveMass[i] / m.cellVolume
}

// NumberDensity returns the effective number density at position x.
func (m *ImportedMedium) NumberDensity(x Point3) Real {
	i, ok := m.snapshot.NearestIndex(x)
	if !ok {
		return 0
	}
	return m.effectiveMass[i] / m.cellVolume / m.massPerParticleAt(i)
}

// BulkVelocity returns the bulk velocity at x, zero if not imported.
func (m *ImportedMedium) BulkVelocity(x Point3) Vector3 {
	i, ok := m.snapshot.NearestIndex(x)
	if !ok {
		return Vector3{}
	}
	v, _ := m.snapshot.VelocityAt(i)
	return v
}

// MagneticField returns the magnetic field at x, zero if not imported.
func (m *ImportedMedium) MagneticField(x Point3) Vector3 {
	i, ok := m.snapshot.NearestIndex(x)
	if !ok {
		return Vector3{}
	}
	b, _ := m.snapshot.MagneticFieldAt(i)
	return b
}

// Temperature returns the temperature at x; always 0 for dust media.
func (m *ImportedMedium) Temperature(x Point3) Real {
	if m.kind == MediumDust {
		return 0
	}
	i, ok := m.snapshot.NearestIndex(x)
	if !ok {
		return 0
	}
	t, _ := m.snapshot.TemperatureAt(i)
	return t
}

// HasVariableMix reports whether this medium uses a per-cell mix family.
func (m *ImportedMedium) HasVariableMix() bool { return m.mixFamily != nil }

// Mix returns the material mix applicable at position x. When no snapshot
// site covers x, or when using a fixed mix, the fixed/default mix is
// returned rather than treating it as vacuum: material lookup and
// density lookup are independent queries.
func (m *ImportedMedium) Mix(x Point3) Mix {
	if m.mix != nil {
		return m.mix
	}
	i, ok := m.snapshot.NearestIndex(x)
	if !ok {
		return m.mixFamily.DefaultMix()
	}
	mix, err := m.mixFamily.Mix(m.snapshot.ParamsAt(i))
	if err != nil || mix == nil {
		return m.mixFamily.DefaultMix()
	}
	return mix
}

// GeneratePosition samples a position proportional to effective mass: a
// discrete site draw followed by a small jitter within the site's
// estimated cell volume, so repeated draws do not collapse onto the exact
// same point for sites sharing mass.
func (m *ImportedMedium) GeneratePosition(rng *rand.Rand) (Point3, error) {
	if m.sampler == nil {
		return Point3{}, fmt.Errorf("mcrt: cannot sample a position from a medium with zero total mass")
	}
	i := m.sampler.Sample(rng.Float64())
	site := m.snapshot.PositionAt(i)
	half := math.Cbrt(m.cellVolume) * 0.5
	jitter := Vector3{
		(rng.Float64()*2 - 1) * half,
		(rng.Float64()*2 - 1) * half,
		(rng.Float64()*2 - 1) * half,
	}
	return site.Add(jitter), nil
}

// principalAxisSamples returns evenly spaced sample points along axis
// (0=X,1=Y,2=Z) through the domain center, from min to max bound, used by
// OpticalDepthX/Y/Z.
func (m *ImportedMedium) principalAxisSamples(axis int, nSamples int) []Point3 {
	min, max := m.snapshot.Bounds()
	center := Point3{(min.X + max.X) / 2, (min.Y + max.Y) / 2, (min.Z + max.Z) / 2}
	var lo, hi Real
	switch axis {
	case 0:
		lo, hi = min.X, max.X
	case 1:
		lo, hi = min.Y, max.Y
	default:
		lo, hi = min.Z, max.Z
	}
	pts := make([]Point3, nSamples)
	for i := 0; i < nSamples; i++ {
		t := (Real(i) + 0.5) / Real(nSamples)
		v := lo + t*(hi-lo)
		p := center
		switch axis {
		case 0:
			p.X = v
		case 1:
			p.Y = v
		default:
			p.Z = v
		}
		pts[i] = p
	}
	return pts
}

// opticalDepthAlongAxis performs a Riemann-sum integration of
// density*(opacityAbs+opacitySca) along a principal axis through the
// domain center, without requiring an actual propagation engine.
func (m *ImportedMedium) opticalDepthAlongAxis(axis int, lambda Real) Real {
	const nSamples = 256
	min, max := m.snapshot.Bounds()
	var length Real
	switch axis {
	case 0:
		length = max.X - min.X
	case 1:
		length = max.Y - min.Y
	default:
		length = max.Z - min.Z
	}
	if length <= 0 {
		return 0
	}
	ds := length / Real(nSamples)
	tau := Real(0)
	for _, p := range m.principalAxisSamples(axis, nSamples) {
		rho := m.MassDensity(p)
		mix := m.Mix(p)
		kappa := mix.OpacityAbs(lambda) + mix.OpacitySca(lambda)
		tau += rho * kappa * ds
	}
	return tau
}

func (m *ImportedMedium) OpticalDepthX(lambda Real) Real { return m.opticalDepthAlongAxis(0, lambda) }
func (m *ImportedMedium) OpticalDepthY(lambda Real) Real { return m.opticalDepthAlongAxis(1, lambda) }
func (m *ImportedMedium) OpticalDepthZ(lambda Real) Real { return m.opticalDepthAlongAxis(2, lambda) }
