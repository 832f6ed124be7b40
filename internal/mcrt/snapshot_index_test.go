package mcrt

import (
	"math/rand"
	"testing"
)

func bruteNearest(positions []Point3, q Point3) int {
	best, bestDist := -1, Real(0)
	for i, p := range positions {
		d := q.Sub(p).Dot(q.Sub(p))
		if best == -1 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func TestKDTreeMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	positions := make([]Point3, 200)
	for i := range positions {
		positions[i] = Point3{rng.Float64()*2 - 1, rng.Float64()*2 - 1, rng.Float64()*2 - 1}
	}
	tree := buildKDTree(positions)
	for i := 0; i < 100; i++ {
		q := Point3{rng.Float64()*2 - 1, rng.Float64()*2 - 1, rng.Float64()*2 - 1}
		got, ok := tree.nearest(positions, q)
		if !ok {
			t.Fatal("expected a result from non-empty tree")
		}
		want := bruteNearest(positions, q)
		gotD := q.Sub(positions[got]).Dot(q.Sub(positions[got]))
		wantD := q.Sub(positions[want]).Dot(q.Sub(positions[want]))
		if gotD != wantD {
			t.Fatalf("kd-tree nearest mismatch: got dist=%.12g want dist=%.12g", gotD, wantD)
		}
	}
}

func TestKDTreeEmpty(t *testing.T) {
	tree := buildKDTree(nil)
	if _, ok := tree.nearest(nil, Point3{}); ok {
		t.Fatal("expected no result from empty tree")
	}
}
