package mcrt

import "fmt"

// SnapshotKind tags an immutable, position-indexed set of sites as either
// particles or Voronoi-mesh cells. The closed variation is a tag rather
// than a deep interface hierarchy; the two kinds differ only in how
// "site" is interpreted (a discrete particle vs. the nearest-site cell of
// an unbuilt Voronoi tessellation), not in their field layout.
type SnapshotKind int

const (
	// SnapshotParticle treats each site as a discrete SPH-like particle.
	SnapshotParticle SnapshotKind = iota
	// SnapshotVoronoiMesh treats each site as the generator of a Voronoi
	// cell; position-to-cell queries resolve via nearest-site lookup, no
	// tessellation is actually built.
	SnapshotVoronoiMesh
)

// Snapshot is the query interface propagation/setup code uses to read an
// imported medium's spatial structure.
type Snapshot interface {
	Kind() SnapshotKind
	Count() int
	HoldsNumber() bool // true: stored values are counts; false: mass values

	PositionAt(i int) Point3
	ValueAt(i int) Real // raw stored density/mass or number/numberDensity
	MetallicityAt(i int) (Real, bool)
	TemperatureAt(i int) (Real, bool)
	VelocityAt(i int) (Vector3, bool)
	MagneticFieldAt(i int) (Vector3, bool)
	ParamsAt(i int) []Real // variable mix/SED parameter vector, nil if absent

	// NearestIndex returns the site index whose cell contains p, or
	// (-1, false) if p lies outside the snapshot's bounding domain.
	NearestIndex(p Point3) (int, bool)
	Bounds() (min, max Point3)
}

// InMemorySnapshot is the concrete Snapshot built by the column-text
// loader or directly by tests/callers. It owns its data exclusively.
type InMemorySnapshot struct {
	kind        SnapshotKind
	holdsNumber bool

	positions []Point3
	values    []Real
	metals    []Real // len 0 if not imported
	temps     []Real // len 0 if not imported
	vels      []Vector3
	bfields   []Vector3
	params    [][]Real

	index *kdNode
	min, max Point3
}

// NewInMemorySnapshot validates and constructs an InMemorySnapshot.
func NewInMemorySnapshot(kind SnapshotKind, holdsNumber bool, positions []Point3, values []Real) (*InMemorySnapshot, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("mcrt: snapshot must contain at least one site")
	}
	if len(positions) != len(values) {
		return nil, fmt.Errorf("mcrt: snapshot positions/values length mismatch: %d vs %d", len(positions), len(values))
	}
	for i, v := range values {
		if v < 0 {
			return nil, fmt.Errorf("mcrt: snapshot site %d has negative value %.6g", i, v)
		}
	}
	s := &InMemorySnapshot{
		kind:        kind,
		holdsNumber: holdsNumber,
		positions:   positions,
		values:      values,
	}
	s.computeBounds()
	s.index = buildKDTree(positions)
	return s, nil
}

func (s *InMemorySnapshot) computeBounds() {
	s.min, s.max = s.positions[0], s.positions[0]
	for _, p := range s.positions[1:] {
		if p.X < s.min.X {
			s.min.X = p.X
		}
		if p.Y < s.min.Y {
			s.min.Y = p.Y
		}
		if p.Z < s.min.Z {
			s.min.Z = p.Z
		}
		if p.X > s.max.X {
			s.max.X = p.X
		}
		if p.Y > s.max.Y {
			s.max.Y = p.Y
		}
		if p.Z > s.max.Z {
			s.max.Z = p.Z
		}
	}
}

// SetMetallicity attaches per-site metallicity (importMetallicity).
func (s *InMemorySnapshot) SetMetallicity(metals []Real) error {
	if len(metals) != len(s.positions) {
		return fmt.Errorf("mcrt: metallicity length mismatch: %d vs %d", len(metals), len(s.positions))
	}
	s.metals = metals
	return nil
}

// SetTemperature attaches per-site temperature in K (importTemperature).
func (s *InMemorySnapshot) SetTemperature(temps []Real) error {
	if len(temps) != len(s.positions) {
		return fmt.Errorf("mcrt: temperature length mismatch: %d vs %d", len(temps), len(s.positions))
	}
	s.temps = temps
	return nil
}

// SetVelocity attaches per-site bulk velocity in m/s (importVelocity).
func (s *InMemorySnapshot) SetVelocity(vels []Vector3) error {
	if len(vels) != len(s.positions) {
		return fmt.Errorf("mcrt: velocity length mismatch: %d vs %d", len(vels), len(s.positions))
	}
	s.vels = vels
	return nil
}

// SetMagneticField attaches per-site magnetic field in T (importMagneticField).
func (s *InMemorySnapshot) SetMagneticField(bfields []Vector3) error {
	if len(bfields) != len(s.positions) {
		return fmt.Errorf("mcrt: magnetic field length mismatch: %d vs %d", len(bfields), len(s.positions))
	}
	s.bfields = bfields
	return nil
}

// SetParams attaches per-site variable mix/SED parameter vectors
// (importVariableMixParams).
func (s *InMemorySnapshot) SetParams(params [][]Real) error {
	if len(params) != len(s.positions) {
		return fmt.Errorf("mcrt: params length mismatch: %d vs %d", len(params), len(s.positions))
	}
	s.params = params
	return nil
}

func (s *InMemorySnapshot) Kind() SnapshotKind { return s.kind }
func (s *InMemorySnapshot) Count() int         { return len(s.positions) }
func (s *InMemorySnapshot) HoldsNumber() bool  { return s.holdsNumber }
func (s *InMemorySnapshot) PositionAt(i int) Point3 { return s.positions[i] }
func (s *InMemorySnapshot) ValueAt(i int) Real      { return s.values[i] }

func (s *InMemorySnapshot) MetallicityAt(i int) (Real, bool) {
	if len(s.metals) == 0 {
		return 0, false
	}
	return s.metals[i], true
}

func (s *InMemorySnapshot) TemperatureAt(i int) (Real, bool) {
	if len(s.temps) == 0 {
		return 0, false
	}
	return s.temps[i], true
}

func (s *InMemorySnapshot) VelocityAt(i int) (Vector3, bool) {
	if len(s.vels) == 0 {
		return Vector3{}, false
	}
	return s.vels[i], true
}

func (s *InMemorySnapshot) MagneticFieldAt(i int) (Vector3, bool) {
	if len(s.bfields) == 0 {
		return Vector3{}, false
	}
	return s.bfields[i], true
}

func (s *InMemorySnapshot) ParamsAt(i int) []Real {
	if len(s.params) == 0 {
		return nil
	}
	return s.params[i]
}

func (s *InMemorySnapshot) Bounds() (min, max Point3) { return s.min, s.max }

func (s *InMemorySnapshot) NearestIndex(p Point3) (int, bool) {
	if p.X < s.min.X || p.X > s.max.X || p.Y < s.min.Y || p.Y > s.max.Y || p.Z < s.min.Z || p.Z > s.max.Z {
		return -1, false
	}
	return s.index.nearest(s.positions, p)
}
