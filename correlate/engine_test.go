package correlate

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-specmatch/grid"
	"github.com/cwbudde/algo-specmatch/internal/testutil"
	"github.com/cwbudde/algo-specmatch/match"
	"github.com/cwbudde/algo-specmatch/template"
)

// newTestTemplate prepares a template from a flux array, failing the test on
// error.
func newTestTemplate(t *testing.T, g grid.StandardGrid, name string, flux []float64) *template.Template {
	t.Helper()

	tpl := &template.Template{Name: name, Type: "Ia", Subtype: "Ia-norm", Flux: flux}
	if err := template.Prepare(tpl, g); err != nil {
		t.Fatalf("prepare template %q: %v", name, err)
	}

	return tpl
}

func TestSelfMatch(t *testing.T) {
	g := grid.Default()

	engine, err := NewEngine(DefaultParams(g))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	flux := testutil.SyntheticSpectrum(g.NumPoints)
	tpl := newTestTemplate(t, g, "self", flux)

	spec, err := NewSpectrum(flux)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err := engine.Correlate(spec, tpl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) == 0 {
		t.Fatal("self-correlation produced no matches")
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if match.Best(m) > match.Best(best) {
			best = m
		}
	}

	// Peak at zero redshift.
	testutil.RequireNearlyEqual(t, best.Redshift, 0, 1e-6)

	// Full overlap for an unshifted copy of itself.
	testutil.RequireNearlyEqual(t, best.Lap, 1, 1e-12)

	if best.PeakIndex != g.NumPoints/2 {
		t.Errorf("peak index = %d, want %d", best.PeakIndex, g.NumPoints/2)
	}

	if best.R < 0.5 {
		t.Errorf("self-match r = %v, want well above the 0.3 threshold", best.R)
	}

	if best.RedshiftError <= 0 {
		t.Errorf("redshift error = %v, want > 0", best.RedshiftError)
	}
}

func TestShiftedMatchRecoversRedshift(t *testing.T) {
	g := grid.Default()

	engine, err := NewEngine(DefaultParams(g))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := testutil.SyntheticSpectrum(g.NumPoints)
	tpl := newTestTemplate(t, g, "rest", base)

	const shift = 25
	wantZ := g.RedshiftForLag(shift)

	spec, err := NewSpectrum(testutil.Rolled(base, shift))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err := engine.Correlate(spec, tpl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) == 0 {
		t.Fatal("shifted correlation produced no matches")
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if match.Best(m) > match.Best(best) {
			best = m
		}
	}

	testutil.RequireNearlyEqual(t, best.Redshift, wantZ, 1e-4)
}

func TestCorrelateSkipsZeroRMSTemplate(t *testing.T) {
	g := grid.Default()

	engine, err := NewEngine(DefaultParams(g))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spec, err := NewSpectrum(testutil.SyntheticSpectrum(g.NumPoints))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A template with zero RMS cannot be normalized: skipped, not an error.
	tpl := &template.Template{
		Name: "dead",
		Flux: make([]float64, g.NumPoints),
		FFT:  make([]complex128, g.NumPoints),
		RMS:  0,
	}

	matches, err := engine.Correlate(spec, tpl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 0 {
		t.Fatalf("matches = %d, want 0", len(matches))
	}
}

func TestCorrelateNoiseYieldsNoMatches(t *testing.T) {
	g := grid.Default()

	engine, err := NewEngine(DefaultParams(g))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tpl := newTestTemplate(t, g, "tpl", testutil.SyntheticSpectrum(g.NumPoints))

	spec, err := NewSpectrum(testutil.DeterministicNoise(99, 1, g.NumPoints))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err := engine.Correlate(spec, tpl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// White noise against a structured template stays below the peak
	// height threshold.
	if len(matches) != 0 {
		t.Fatalf("matches = %d, want 0", len(matches))
	}
}

func TestCorrelateInvalidSpectrum(t *testing.T) {
	g := grid.Default()

	engine, err := NewEngine(DefaultParams(g))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tpl := newTestTemplate(t, g, "tpl", testutil.SyntheticSpectrum(g.NumPoints))

	_, err = engine.Correlate(Spectrum{Flux: make([]float64, 10)}, tpl)
	if !errors.Is(err, ErrInvalidSpectrum) {
		t.Fatalf("got %v, want ErrInvalidSpectrum", err)
	}
}

func TestMatchInvariants(t *testing.T) {
	g := grid.Default()

	engine, err := NewEngine(DefaultParams(g))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := testutil.SyntheticSpectrum(g.NumPoints)

	spec, err := NewSpectrum(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fluxes := [][]float64{base, testutil.Rolled(base, 12), testutil.Scaled(base, 2)}

	for _, flux := range fluxes {
		tpl := newTestTemplate(t, g, "tpl", flux)

		matches, err := engine.Correlate(spec, tpl)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, m := range matches {
			if m.Lap < 0 || m.Lap > 1 {
				t.Errorf("lap = %v, want in [0, 1]", m.Lap)
			}

			if m.RLap < 0 {
				t.Errorf("rlap = %v, want >= 0", m.RLap)
			}

			if m.RedshiftError <= 0 || math.IsNaN(m.RedshiftError) {
				t.Errorf("redshift error = %v, want finite > 0", m.RedshiftError)
			}

			testutil.RequireNearlyEqual(t, m.RLap, m.R*m.Lap, 1e-12)
		}
	}
}

func TestSelfMatchCarriesConcordanceMetric(t *testing.T) {
	g := grid.Default()

	engine, err := NewEngine(DefaultParams(g))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	flux := testutil.SyntheticSpectrum(g.NumPoints)
	tpl := newTestTemplate(t, g, "self", flux)

	spec, err := NewSpectrum(flux)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err := engine.Correlate(spec, tpl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) == 0 {
		t.Fatal("no matches")
	}

	// A self-match overlaps fully, so the refined metric must be present
	// and essentially equal to rlap (ccc == 1).
	best := matches[0]
	for _, m := range matches[1:] {
		if match.Best(m) > match.Best(best) {
			best = m
		}
	}

	if best.Metric.Kind != match.MetricRLapCCC {
		t.Fatalf("metric kind = %v, want RLAP-CCC", best.Metric.Kind)
	}

	testutil.RequireNearlyEqual(t, best.Metric.Value, best.RLap, 1e-6*best.RLap+1e-12)
}
