package match

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-specmatch/internal/testutil"
)

func TestConcordanceCorrelationIdentity(t *testing.T) {
	a := testutil.SyntheticSpectrum(256)

	ccc := ConcordanceCorrelation(a, a)
	testutil.RequireNearlyEqual(t, ccc, 1, 1e-12)
}

func TestConcordanceCorrelationAntiCorrelated(t *testing.T) {
	a := testutil.SyntheticSpectrum(256)
	b := testutil.Scaled(a, -1)

	ccc := ConcordanceCorrelation(a, b)
	if ccc >= 0 {
		t.Fatalf("ccc = %v, want negative", ccc)
	}

	if ccc < -1-1e-12 {
		t.Fatalf("ccc = %v below -1", ccc)
	}
}

func TestConcordanceCorrelationPenalizesBias(t *testing.T) {
	a := testutil.SyntheticSpectrum(256)

	// Same shape at a shifted flux level: Pearson correlation stays 1 but
	// concordance must drop.
	b := make([]float64, len(a))
	for i, v := range a {
		b[i] = v + 0.5
	}

	ccc := ConcordanceCorrelation(a, b)
	if !(ccc > 0 && ccc < 1) {
		t.Fatalf("ccc = %v, want in (0, 1)", ccc)
	}
}

func TestConcordanceCorrelationDegenerate(t *testing.T) {
	if v := ConcordanceCorrelation(nil, nil); !math.IsNaN(v) {
		t.Errorf("empty input: got %v, want NaN", v)
	}

	if v := ConcordanceCorrelation([]float64{1, 2}, []float64{1}); !math.IsNaN(v) {
		t.Errorf("length mismatch: got %v, want NaN", v)
	}

	// Both constant at the same level: zero denominator.
	if v := ConcordanceCorrelation([]float64{2, 2}, []float64{2, 2}); !math.IsNaN(v) {
		t.Errorf("constant input: got %v, want NaN", v)
	}
}

func TestRLapCCC(t *testing.T) {
	testutil.RequireNearlyEqual(t, RLapCCC(10, 0.8), 8, 1e-12)

	// Negative concordance clips to zero rather than flipping sign.
	testutil.RequireNearlyEqual(t, RLapCCC(10, -0.5), 0, 0)

	if v := RLapCCC(10, math.NaN()); !math.IsNaN(v) {
		t.Errorf("NaN ccc: got %v, want NaN", v)
	}
}

func TestChiSquareScore(t *testing.T) {
	a := testutil.SyntheticSpectrum(128)

	testutil.RequireNearlyEqual(t, ChiSquareScore(a, a), 1, 1e-12)

	b := testutil.DeterministicNoise(7, 1, 128)
	s := ChiSquareScore(a, b)

	if !(s > 0 && s < 1) {
		t.Fatalf("score = %v, want in (0, 1)", s)
	}
}

func TestLocalityScore(t *testing.T) {
	// Isolated peak over a small noise floor.
	corr := testutil.DeterministicNoise(3, 0.01, 200)
	corr[100] = 1

	s := LocalityScore(corr, 100)
	if s < 10 {
		t.Fatalf("isolated peak locality = %v, want >= 10", s)
	}

	// A peak no higher than the floor scores low.
	flat := testutil.DeterministicNoise(4, 0.5, 200)
	s = LocalityScore(flat, 100)

	if s > 10 {
		t.Fatalf("noise-floor locality = %v, want small", s)
	}
}

func TestBestPrefersCCCKind(t *testing.T) {
	base := Match{RLap: 12}

	withCCC := base
	withCCC.Metric = Metric{Kind: MetricRLapCCC, Value: 4} // numerically below RLap

	// Presence of a finite RLAP-CCC wins regardless of its numeric value.
	if got := Best(withCCC); got != 4 {
		t.Fatalf("Best = %v, want 4", got)
	}

	if got := Best(base); got != 12 {
		t.Fatalf("Best = %v, want 12", got)
	}

	// Non-finite RLAP-CCC falls back to RLAP.
	withNaN := base
	withNaN.Metric = Metric{Kind: MetricRLapCCC, Value: math.NaN()}

	if got := Best(withNaN); got != 12 {
		t.Fatalf("Best with NaN RLAP-CCC = %v, want 12", got)
	}
}

func TestMetricName(t *testing.T) {
	m := Match{RLap: 5}
	if got := MetricName(m); got != "RLAP" {
		t.Errorf("MetricName = %q, want RLAP", got)
	}

	m.Metric = Metric{Kind: MetricRLapCCC, Value: 3}
	if got := MetricName(m); got != "RLAP-CCC" {
		t.Errorf("MetricName = %q, want RLAP-CCC", got)
	}

	m.Metric.Value = math.Inf(1)
	if got := MetricName(m); got != "RLAP" {
		t.Errorf("MetricName with Inf = %q, want RLAP", got)
	}
}
