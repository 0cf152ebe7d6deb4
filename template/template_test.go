package template

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-specmatch/grid"
	"github.com/cwbudde/algo-specmatch/internal/testutil"
)

func TestFlatten(t *testing.T) {
	records := []Record{
		{
			Name: "sn1994I", Type: "Ic", Subtype: "Ic-norm", Redshift: 0.0015,
			Epochs: []Epoch{
				{AgeDays: -3, Flux: []float64{1}},
				{AgeDays: 12, Flux: []float64{2}},
			},
		},
		{
			Name: "sn2011fe", Type: "Ia", Subtype: "Ia-norm",
			Epochs: []Epoch{{AgeDays: 0, Flux: []float64{3}}},
		},
	}

	flat := Flatten(records)
	if len(flat) != 3 {
		t.Fatalf("len = %d, want 3", len(flat))
	}

	if flat[0].Name != "sn1994I" || flat[0].AgeDays != -3 {
		t.Errorf("first epoch = %q age %v", flat[0].Name, flat[0].AgeDays)
	}

	if flat[1].Name != "sn1994I" || flat[1].AgeDays != 12 {
		t.Errorf("second epoch = %q age %v", flat[1].Name, flat[1].AgeDays)
	}

	if flat[1].Type != "Ic" || flat[1].Subtype != "Ic-norm" || flat[1].Redshift != 0.0015 {
		t.Errorf("epoch did not inherit record identity: %+v", flat[1])
	}

	if flat[2].Name != "sn2011fe" || flat[2].AgeDays != 0 {
		t.Errorf("third epoch = %q age %v", flat[2].Name, flat[2].AgeDays)
	}
}

func TestFlattenEmpty(t *testing.T) {
	if flat := Flatten(nil); len(flat) != 0 {
		t.Fatalf("len = %d, want 0", len(flat))
	}
}

func TestPrepare(t *testing.T) {
	g := grid.StandardGrid{NumPoints: 64, MinWave: 2500, MaxWave: 10000}
	tpl := &Template{Name: "synthetic", Flux: testutil.GaussianLine(64, 32, 5, 1)}

	if err := Prepare(tpl, g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tpl.FFT) != 64 {
		t.Fatalf("FFT length = %d, want 64", len(tpl.FFT))
	}

	if tpl.RMS <= 0 {
		t.Fatalf("RMS = %v, want > 0", tpl.RMS)
	}

	// Parseval: sum |X|^2 == N * sum x^2.
	var timeEnergy, freqEnergy float64
	for _, v := range tpl.Flux {
		timeEnergy += v * v
	}

	for _, c := range tpl.FFT {
		m := cmplx.Abs(c)
		freqEnergy += m * m
	}

	if math.Abs(freqEnergy-64*timeEnergy) > 1e-6*freqEnergy {
		t.Errorf("Parseval violated: %v vs %v", freqEnergy, 64*timeEnergy)
	}

	if !tpl.Valid(g) {
		t.Error("prepared template should be valid")
	}
}

func TestPrepareErrors(t *testing.T) {
	g := grid.StandardGrid{NumPoints: 64, MinWave: 2500, MaxWave: 10000}

	if err := Prepare(&Template{}, g); !errors.Is(err, ErrEmptyFlux) {
		t.Errorf("empty flux: got %v", err)
	}

	if err := Prepare(&Template{Flux: make([]float64, 32)}, g); !errors.Is(err, ErrGridMismatch) {
		t.Errorf("wrong length: got %v", err)
	}

	if err := Prepare(&Template{Flux: make([]float64, 64)}, g); !errors.Is(err, ErrNonPositiveRMS) {
		t.Errorf("all-zero flux: got %v", err)
	}
}

func TestLibrarySnapshot(t *testing.T) {
	src := []Template{{Name: "a", Type: "Ia"}, {Name: "b", Type: "II"}}
	lib := NewLibrary(src)

	// Mutating the source must not affect the snapshot.
	src[0].Name = "mutated"

	if lib.At(0).Name != "a" {
		t.Fatalf("snapshot mutated: %q", lib.At(0).Name)
	}

	if lib.Len() != 2 {
		t.Fatalf("Len = %d, want 2", lib.Len())
	}

	types := lib.Types()
	if len(types) != 2 || types[0] != "Ia" || types[1] != "II" {
		t.Errorf("Types = %v", types)
	}
}
