package mcrt

import (
	"math/rand"
	"testing"
)

func buildCDFSpectrum(t *testing.T, lo, hi Real) *CDF {
	t.Helper()
	cdf, err := newCDF([]Real{lo, (lo + hi) / 2, hi}, []Real{1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	return cdf
}

func TestSourceSystemThreeSourceRouting(t *testing.T) {
	a, err := NewPointSource("a", Point3{}, 1, 1, Vector3{}, 0.1, 1.0, buildCDFSpectrum(t, 0.1, 1.0))
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewPointSource("b", Point3{X: 1}, 2, 1, Vector3{}, 0.1, 1.0, buildCDFSpectrum(t, 0.1, 1.0))
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewPointSource("c", Point3{X: 2}, 1, 1, Vector3{}, 0.1, 1.0, buildCDFSpectrum(t, 0.1, 1.0))
	if err != nil {
		t.Fatal(err)
	}
	ss, err := NewSourceSystem([]Source{a, b, c}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	const n = 1000
	if err := ss.PrepareForLaunch(n); err != nil {
		t.Fatal(err)
	}

	counts := make([]int, 3)
	weightSum := make([]Real, 3)
	scratch := NewThreadScratch()
	for h := 0; h < n; h++ {
		var pp PhotonPacket
		rng := rand.New(rand.NewSource(int64(h)))
		if err := ss.Launch(&pp, h, rng, scratch); err != nil {
			t.Fatalf("h=%d: %v", h, err)
		}
		if pp.HistoryIndex != h {
			t.Fatalf("HistoryIndex=%d, want %d", pp.HistoryIndex, h)
		}
		counts[pp.SourceIndex]++
		weightSum[pp.SourceIndex] += pp.Weight
		if pp.Weight < 0 {
			t.Fatalf("negative weight at h=%d", h)
		}
		if pp.Wavelength <= 0 {
			t.Fatalf("non-positive wavelength at h=%d", h)
		}
	}

	wantCounts := []int{292, 417, 291}
	for i, c := range counts {
		if c != wantCounts[i] {
			t.Fatalf("counts=%v, want %v", counts, wantCounts)
		}
	}
	for i := range weightSum {
		if weightSum[i] <= 0 {
			t.Fatalf("source %d accumulated zero energy over %d packets", i, counts[i])
		}
	}
}

func TestSourceSystemZeroLuminositySourceStillLaunches(t *testing.T) {
	zero, err := NewPointSource("zero", Point3{}, 0, 1, Vector3{}, 0.1, 1.0, nil)
	if err != nil {
		t.Fatal(err)
	}
	hot, err := NewPointSource("hot", Point3{}, 5, 1, Vector3{}, 0.1, 1.0, buildCDFSpectrum(t, 0.1, 1.0))
	if err != nil {
		t.Fatal(err)
	}
	ss, err := NewSourceSystem([]Source{zero, hot}, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if err := ss.PrepareForLaunch(20); err != nil {
		t.Fatal(err)
	}
	scratch := NewThreadScratch()
	sawZeroSource := false
	for h := 0; h < 20; h++ {
		var pp PhotonPacket
		rng := rand.New(rand.NewSource(int64(h)))
		if err := ss.Launch(&pp, h, rng, scratch); err != nil {
			t.Fatalf("h=%d: %v", h, err)
		}
		if pp.SourceID == "zero" {
			sawZeroSource = true
			if pp.Weight != 0 {
				t.Fatalf("zero-luminosity source packet must have zero weight, got %.6g", pp.Weight)
			}
		}
	}
	if !sawZeroSource {
		t.Fatal("expected at least one packet routed to the zero-luminosity source (bias=1 is fully uniform)")
	}
}

func TestSourceSystemDimensionAndWavelengthRange(t *testing.T) {
	point, err := NewPointSource("p", Point3{}, 1, 1, Vector3{}, 0.3, 2.0, nil)
	if err != nil {
		t.Fatal(err)
	}
	snap := buildEmittingSnapshot(t, []Real{1, 1, 1})
	imported, err := NewImportedSource("regions", snap, buildTestSED(t), 1, 0.1, 10)
	if err != nil {
		t.Fatal(err)
	}
	ss, err := NewSourceSystem([]Source{point, imported}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if d := ss.Dimension(); d != 3 {
		t.Fatalf("Dimension()=%d, want 3 (max over components)", d)
	}
	lo, hi := ss.WavelengthRange()
	if lo != 0.1 || hi != 10 {
		t.Fatalf("WavelengthRange()=[%.3g, %.3g], want the union [0.1, 10]", lo, hi)
	}
}

func TestSourceSystemRejectsEmpty(t *testing.T) {
	if _, err := NewSourceSystem(nil, 0.5); err == nil {
		t.Fatal("expected error for empty source list")
	}
}

func TestSourceSystemLaunchBeforePrepareErrors(t *testing.T) {
	a, err := NewPointSource("a", Point3{}, 1, 1, Vector3{}, 0.1, 1.0, nil)
	if err != nil {
		t.Fatal(err)
	}
	ss, err := NewSourceSystem([]Source{a}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	var pp PhotonPacket
	rng := rand.New(rand.NewSource(0))
	if err := ss.Launch(&pp, 0, rng, NewThreadScratch()); err == nil {
		t.Fatal("expected error launching before PrepareForLaunch")
	}
}

func TestSourceSystemDeterministicAcrossRuns(t *testing.T) {
	build := func() *SourceSystem {
		a, _ := NewPointSource("a", Point3{}, 3, 1, Vector3{}, 0.2, 0.9, buildCDFSpectrum(t, 0.2, 0.9))
		b, _ := NewPointSource("b", Point3{X: 1}, 1, 2, Vector3{}, 0.2, 0.9, buildCDFSpectrum(t, 0.2, 0.9))
		ss, _ := NewSourceSystem([]Source{a, b}, 0.4)
		return ss
	}
	run := func(ss *SourceSystem) []Real {
		if err := ss.PrepareForLaunch(64); err != nil {
			t.Fatal(err)
		}
		scratch := NewThreadScratch()
		out := make([]Real, 64)
		for h := 0; h < 64; h++ {
			var pp PhotonPacket
			rng := rand.New(rand.NewSource(int64(h) * 2654435761))
			if err := ss.Launch(&pp, h, rng, scratch); err != nil {
				t.Fatal(err)
			}
			out[h] = pp.Wavelength
		}
		return out
	}
	ssA, ssB := build(), build()
	a, b := run(ssA), run(ssB)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("launch not deterministic at h=%d: %.12g vs %.12g", i, a[i], b[i])
		}
	}
}
