package mcrt

import (
	"math"
	"testing"
)

func buildEmittingSnapshot(t *testing.T, emission []Real) *InMemorySnapshot {
	t.Helper()
	positions := []Point3{{-1, 0, 0}, {0, 0, 0}, {1, 0, 0}}
	values := []Real{1, 2, 1}
	snap, err := NewInMemorySnapshot(SnapshotVoronoiMesh, false, positions, values)
	if err != nil {
		t.Fatal(err)
	}
	params := make([][]Real, len(positions))
	for i := range params {
		params[i] = []Real{-2, 0.015, 1e30, emission[i]}
	}
	if err := snap.SetParams(params); err != nil {
		t.Fatal(err)
	}
	return snap
}

func buildTestSED(t *testing.T) *SEDFamily {
	t.Helper()
	lambdas := []Real{0.1, 1, 10}
	logUs := []Real{-3, -1}
	Zs := []Real{0.01, 0.02}
	f, err := NewSEDFamily("continuum", lambdas, logUs, Zs, flatTable(lambdas, logUs, Zs, 2.0))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestImportedSourceLuminositySumsSubsources(t *testing.T) {
	snap := buildEmittingSnapshot(t, []Real{1, 1, 1})
	src, err := NewImportedSource("regions", snap, buildTestSED(t), 1, 0.1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if src.Luminosity() <= 0 {
		t.Fatalf("expected positive total luminosity, got %.6g", src.Luminosity())
	}
	if src.Dimension() != 3 {
		t.Fatalf("Dimension()=%d, want 3", src.Dimension())
	}
}

func TestImportedSourcePartitionsAssignedRange(t *testing.T) {
	snap := buildEmittingSnapshot(t, []Real{1, 1, 1})
	src, err := NewImportedSource("regions", snap, buildTestSED(t), 1, 0.1, 10)
	if err != nil {
		t.Fatal(err)
	}
	const count = 300
	if err := src.PrepareForLaunch(0, count); err != nil {
		t.Fatal(err)
	}
	iv := src.lm.Iv
	if iv[0] != 0 || iv[len(iv)-1] != count {
		t.Fatalf("subsource prefix table must span [0,%d], got %v", count, iv)
	}
	for i := 1; i < len(iv); i++ {
		if iv[i] < iv[i-1] {
			t.Fatalf("subsource prefix table must be non-decreasing: %v", iv)
		}
	}
}

func TestImportedSourceLaunchDeterministicAndInsideCell(t *testing.T) {
	snap := buildEmittingSnapshot(t, []Real{1, 1, 1})
	src, err := NewImportedSource("regions", snap, buildTestSED(t), 1, 0.1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.PrepareForLaunch(0, 90); err != nil {
		t.Fatal(err)
	}
	for h := 0; h < 90; h += 7 {
		var a, b PhotonPacket
		if err := src.Launch(&a, h, rngForHistory(defaultLaunchSeed, h), NewThreadScratch()); err != nil {
			t.Fatalf("h=%d: %v", h, err)
		}
		if err := src.Launch(&b, h, rngForHistory(defaultLaunchSeed, h), NewThreadScratch()); err != nil {
			t.Fatalf("h=%d: %v", h, err)
		}
		if a != b {
			t.Fatalf("repeated launch for h=%d differs: %+v vs %+v", h, a, b)
		}
		if a.Wavelength < 0.1 || a.Wavelength > 10 {
			t.Fatalf("wavelength %.6g outside source range", a.Wavelength)
		}
		j, _ := searchLaunchMap(src.lm.Iv, h)
		site := snap.PositionAt(j)
		d := a.Position.Sub(site)
		limit := src.jitterHalf + 1e-12
		if math.Abs(d.X) > limit || math.Abs(d.Y) > limit || math.Abs(d.Z) > limit {
			t.Fatalf("h=%d emitted outside its cell jitter box: %+v from site %+v", h, a.Position, site)
		}
	}
}

func TestImportedSourceNonEmittingSubsourceZeroWeight(t *testing.T) {
	snap := buildEmittingSnapshot(t, []Real{1, 0, 1})
	src, err := NewImportedSource("regions", snap, buildTestSED(t), 1, 0.1, 10)
	if err != nil {
		t.Fatal(err)
	}
	const count = 120
	if err := src.PrepareForLaunch(0, count); err != nil {
		t.Fatal(err)
	}
	scratch := NewThreadScratch()
	sawDark := false
	for h := 0; h < count; h++ {
		var pp PhotonPacket
		if err := src.Launch(&pp, h, rngForHistory(defaultLaunchSeed, h), scratch); err != nil {
			t.Fatalf("h=%d: %v", h, err)
		}
		j, _ := searchLaunchMap(src.lm.Iv, h)
		if j == 1 {
			sawDark = true
			if pp.Weight != 0 {
				t.Fatalf("non-emitting subsource launched weight %.6g at h=%d", pp.Weight, h)
			}
		}
	}
	if !sawDark {
		t.Fatal("expected the uniform-by-mass term to route packets to the dark subsource")
	}
}

func TestImportedSourceSubsourceCacheAdvances(t *testing.T) {
	snap := buildEmittingSnapshot(t, []Real{1, 1, 1})
	src, err := NewImportedSource("regions", snap, buildTestSED(t), 1, 0.1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.PrepareForLaunch(0, 30); err != nil {
		t.Fatal(err)
	}
	scratch := NewThreadScratch()
	for h := 0; h < 30; h++ {
		var pp PhotonPacket
		if err := src.Launch(&pp, h, rngForHistory(defaultLaunchSeed, h), scratch); err != nil {
			t.Fatalf("h=%d: %v", h, err)
		}
		cache := scratch.subsourceCacheFor(src)
		j, _ := searchLaunchMap(src.lm.Iv, h)
		if cache.index != j {
			t.Fatalf("cache index %d does not track current subsource %d at h=%d", cache.index, j, h)
		}
	}
	if len(scratch.subsourceCaches) != 1 {
		t.Fatalf("expected one cache entry per source, got %d", len(scratch.subsourceCaches))
	}
}
