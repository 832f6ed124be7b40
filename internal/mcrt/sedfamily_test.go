package mcrt

import "testing"

func flatTable(lambdas, logUs, Zs []Real, v Real) [][][]Real {
	t := make([][][]Real, len(lambdas))
	for i := range t {
		t[i] = make([][]Real, len(logUs))
		for j := range t[i] {
			t[i][j] = make([]Real, len(Zs))
			for k := range t[i][j] {
				t[i][j][k] = v
			}
		}
	}
	return t
}

func TestSEDFamilyEmissionBoolGating(t *testing.T) {
	lambdas := []Real{0.1, 1, 10}
	logUs := []Real{-3, -1}
	Zs := []Real{0.01, 0.02}
	f, err := NewSEDFamily("continuum", lambdas, logUs, Zs, flatTable(lambdas, logUs, Zs, 2.0))
	if err != nil {
		t.Fatal(err)
	}
	p := SEDParams{LogU: -2, Z: 0.015, IonisingLum: 1e30, Emission: false}
	for _, lambda := range []Real{0.1, 1, 5, 10} {
		if got := f.SpecificLuminosity(p, lambda); got != 0 {
			t.Fatalf("expected exactly 0 for Emission=false at lambda=%.3g, got %.6g", lambda, got)
		}
	}
	p.Emission = true
	if got := f.SpecificLuminosity(p, 1); got <= 0 {
		t.Fatalf("expected positive specific luminosity when emitting, got %.6g", got)
	}
}

func TestSEDFamilyClampsOutOfRange(t *testing.T) {
	lambdas := []Real{1, 2, 3}
	logUs := []Real{-3, -1}
	Zs := []Real{0.01, 0.02}
	table := flatTable(lambdas, logUs, Zs, 0)
	table[0][0][0] = 5
	table[len(lambdas)-1][len(logUs)-1][len(Zs)-1] = 7
	f, err := NewSEDFamily("line", lambdas, logUs, Zs, table)
	if err != nil {
		t.Fatal(err)
	}
	p := SEDParams{LogU: -100, Z: -100, IonisingLum: 1, Emission: true}
	low := f.SpecificLuminosity(p, -100)
	atEdge := f.SpecificLuminosity(SEDParams{LogU: logUs[0], Z: Zs[0], IonisingLum: 1, Emission: true}, lambdas[0])
	if low != atEdge {
		t.Fatalf("expected out-of-range query to clamp to edge value: %.6g vs %.6g", low, atEdge)
	}
}

func TestSEDFamilyRejectsBadAxes(t *testing.T) {
	if _, err := NewSEDFamily("continuum", []Real{1}, []Real{-1, 0}, []Real{0, 1}, nil); err == nil {
		t.Fatal("expected error for too-short lambda axis")
	}
	if _, err := NewSEDFamily("continuum", []Real{2, 1}, []Real{-1, 0}, []Real{0, 1}, nil); err == nil {
		t.Fatal("expected error for non-increasing lambda axis")
	}
}
