package correlate

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-specmatch/match"
	"github.com/cwbudde/algo-specmatch/template"
)

// minCCCOverlap is the smallest overlap (in grid cells) over which the
// concordance metric is considered meaningful. Shorter overlaps keep the
// plain RLAP metric.
const minCCCOverlap = 10

// Spectrum is the preprocessed input to a correlation run: flattened,
// log-rebinned flux on the standard grid with its transform and RMS
// precomputed.
type Spectrum struct {
	Flux []float64
	FFT  []complex128
	RMS  float64
}

// NewSpectrum computes the FFT and RMS of a flux array already rebinned onto
// an n-point grid.
func NewSpectrum(flux []float64) (Spectrum, error) {
	if len(flux) == 0 {
		return Spectrum{}, fmt.Errorf("%w: empty flux", ErrInvalidSpectrum)
	}

	var sumSq float64
	for _, v := range flux {
		sumSq += v * v
	}

	rms := math.Sqrt(sumSq / float64(len(flux)))
	if rms <= 0 {
		return Spectrum{}, fmt.Errorf("%w: zero flux", ErrInvalidSpectrum)
	}

	plan, err := algofft.NewPlan64(len(flux))
	if err != nil {
		return Spectrum{}, fmt.Errorf("correlate: failed to create FFT plan: %w", err)
	}

	in := make([]complex128, len(flux))
	for i, v := range flux {
		in[i] = complex(v, 0)
	}

	fft := make([]complex128, len(flux))
	if err := plan.Forward(fft, in); err != nil {
		return Spectrum{}, fmt.Errorf("correlate: forward FFT failed: %w", err)
	}

	return Spectrum{Flux: flux, FFT: fft, RMS: rms}, nil
}

// Engine correlates one spectrum against templates and extracts matches.
//
// An Engine owns an FFT plan and scratch buffers, so it is not safe for
// concurrent use; create one Engine per worker goroutine.
type Engine struct {
	params   Params
	finder   *PeakFinder
	bandpass []float64
	plan     *algofft.Plan[complex128]

	// scratch, reused across templates
	prodRe []float64
	prodIm []float64
	prod   []complex128
	out    []complex128
	raw    []float64
}

// NewEngine creates a correlation engine for the given parameters.
func NewEngine(params Params) (*Engine, error) {
	finder, err := NewPeakFinder(params)
	if err != nil {
		return nil, err
	}

	n := params.Grid.NumPoints

	bp, err := Bandpass(n, params.K1, params.K2, params.K3, params.K4)
	if err != nil {
		return nil, err
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("correlate: failed to create FFT plan: %w", err)
	}

	return &Engine{
		params:   params,
		finder:   finder,
		bandpass: bp,
		plan:     plan,
		prodRe:   make([]float64, n),
		prodIm:   make([]float64, n),
		prod:     make([]complex128, n),
		out:      make([]complex128, n),
		raw:      make([]float64, n),
	}, nil
}

// Finder returns the peak finder sharing this engine's policy constants.
func (e *Engine) Finder() *PeakFinder {
	return e.finder
}

// validateSpectrum checks the spectrum against the engine's grid.
func (e *Engine) validateSpectrum(spec Spectrum) error {
	n := e.params.Grid.NumPoints
	if len(spec.Flux) != n || len(spec.FFT) != n || spec.RMS <= 0 {
		return fmt.Errorf("%w: flux %d, fft %d, rms %g (grid %d)",
			ErrInvalidSpectrum, len(spec.Flux), len(spec.FFT), spec.RMS, n)
	}

	return nil
}

// RawCorrelation computes the unshifted, unnormalized cross-correlation row
// IFFT(spectrumFFT * conj(templateFFT) * bandpass) for one template. This is
// the form consumed by PeakFinder.FindPeaksBatch.
//
// A fresh slice is returned on every call.
func (e *Engine) RawCorrelation(spec Spectrum, tpl *template.Template) ([]float64, error) {
	if err := e.validateSpectrum(spec); err != nil {
		return nil, err
	}

	if !tpl.Valid(e.params.Grid) {
		return nil, fmt.Errorf("correlate: template %q does not match grid", tpl.Name)
	}

	e.crossPower(spec, tpl)

	if err := e.plan.Inverse(e.out, e.prod); err != nil {
		return nil, fmt.Errorf("correlate: inverse FFT failed: %w", err)
	}

	raw := make([]float64, len(e.out))
	for i, c := range e.out {
		raw[i] = real(c)
	}

	return raw, nil
}

// crossPower fills e.prod with spectrumFFT * conj(templateFFT), bandpassed.
func (e *Engine) crossPower(spec Spectrum, tpl *template.Template) {
	for i := range e.prod {
		p := spec.FFT[i] * complex(real(tpl.FFT[i]), -imag(tpl.FFT[i]))
		e.prodRe[i] = real(p)
		e.prodIm[i] = imag(p)
	}

	vecmath.MulBlockInPlace(e.prodRe, e.bandpass)
	vecmath.MulBlockInPlace(e.prodIm, e.bandpass)

	for i := range e.prod {
		e.prod[i] = complex(e.prodRe[i], e.prodIm[i])
	}
}

// Correlate cross-correlates the spectrum against one template and returns
// zero or more candidate matches, in ascending peak-index order.
//
// Templates that cannot be normalized (non-positive rms product) or that do
// not live on the engine's grid are skipped silently: they contribute no
// matches and no error. A spectrum that does not match the grid is a caller
// error.
func (e *Engine) Correlate(spec Spectrum, tpl *template.Template) ([]match.Match, error) {
	if err := e.validateSpectrum(spec); err != nil {
		return nil, err
	}

	rmsProduct := spec.RMS * tpl.RMS
	if rmsProduct <= 0 || !tpl.Valid(e.params.Grid) {
		return nil, nil
	}

	e.crossPower(spec, tpl)

	if err := e.plan.Inverse(e.out, e.prod); err != nil {
		return nil, fmt.Errorf("correlate: inverse FFT failed: %w", err)
	}

	for i, c := range e.out {
		e.raw[i] = real(c)
	}

	corr := normalizeShift(e.raw, rmsProduct, e.params.Grid.NumPoints/2)

	peaks := e.finder.FindPeaks(corr)
	if len(peaks) == 0 {
		return nil, nil
	}

	specLo, specHi := support(spec.Flux)
	tplLo, tplHi := support(tpl.Flux)

	var matches []match.Match

	for _, p := range peaks {
		m, ok := e.matchAtPeak(spec, tpl, corr, p, specLo, specHi, tplLo, tplHi)
		if ok {
			matches = append(matches, m)
		}
	}

	return matches, nil
}

// matchAtPeak builds one Match from an accepted peak index.
func (e *Engine) matchAtPeak(spec Spectrum, tpl *template.Template, corr []float64, p, specLo, specHi, tplLo, tplHi int) (match.Match, bool) {
	n := e.params.Grid.NumPoints
	mid := n / 2

	height, delta := refinePeak(corr, p)

	lag := float64(p-mid) + delta
	z := e.params.Grid.RedshiftForLag(lag)
	zErr := e.redshiftError(corr, p, z)

	shift := p - mid

	lap := overlapFraction(n, specLo, specHi, tplLo+shift, tplHi+shift)
	if lap < e.params.MinLap {
		return match.Match{}, false
	}

	r := height
	rlap := r * lap

	m := match.Match{
		Template:      tpl,
		Redshift:      z,
		RedshiftError: zErr,
		R:             r,
		Lap:           lap,
		RLap:          rlap,
		Metric:        match.Metric{Kind: match.MetricRLap, Value: rlap},
		PeakIndex:     p,
	}

	// Refined metric: concordance between spectrum and shifted template flux
	// over the overlap region, when the overlap is long enough to be
	// meaningful.
	lo := maxInt(specLo, tplLo+shift)
	hi := minInt(specHi, tplHi+shift)

	if hi-lo+1 >= minCCCOverlap {
		a := spec.Flux[lo : hi+1]
		b := shiftedSegment(tpl.Flux, shift, lo, hi)

		if ccc := match.ConcordanceCorrelation(a, b); !math.IsNaN(ccc) {
			m.Metric = match.Metric{Kind: match.MetricRLapCCC, Value: match.RLapCCC(rlap, ccc)}
		}
	}

	return m, true
}

// redshiftError estimates the redshift uncertainty from the local curvature
// of the correlation peak: fitting a Gaussian through the log of the three
// points around the peak gives a width in grid cells, which maps to redshift
// through the grid step. Falls back to one grid cell when the log-parabola
// is unusable (non-positive neighbors or non-negative curvature).
func (e *Engine) redshiftError(corr []float64, p int, z float64) float64 {
	dlog := e.params.Grid.DLog()
	widthCells := 1.0

	if p > 0 && p < len(corr)-1 && corr[p-1] > 0 && corr[p] > 0 && corr[p+1] > 0 {
		curv := math.Log(corr[p-1]) - 2*math.Log(corr[p]) + math.Log(corr[p+1])
		if curv < 0 {
			widthCells = 1 / math.Sqrt(-curv)
		}
	}

	zErr := (1 + z) * dlog * widthCells
	if zErr <= 0 || math.IsNaN(zErr) || math.IsInf(zErr, 0) {
		zErr = (1 + z) * dlog
	}

	return zErr
}

// refinePeak fits a parabola through the three points around index p and
// returns the refined height and the sub-cell offset in [-0.5, 0.5].
func refinePeak(corr []float64, p int) (height, delta float64) {
	height = corr[p]

	if p <= 0 || p >= len(corr)-1 {
		return height, 0
	}

	denom := corr[p-1] - 2*corr[p] + corr[p+1]
	if denom >= 0 {
		// Not locally concave; keep the grid value.
		return height, 0
	}

	delta = 0.5 * (corr[p-1] - corr[p+1]) / denom
	if delta < -0.5 {
		delta = -0.5
	} else if delta > 0.5 {
		delta = 0.5
	}

	refined := corr[p] - 0.25*(corr[p-1]-corr[p+1])*delta
	if refined > height {
		height = refined
	}

	return height, delta
}

// support returns the first and last index with non-zero signal. An all-zero
// array yields (0, -1), i.e. an empty support.
func support(flux []float64) (lo, hi int) {
	lo, hi = 0, -1

	for i, v := range flux {
		if v != 0 {
			lo = i
			break
		}
	}

	for i := len(flux) - 1; i >= 0; i-- {
		if flux[i] != 0 {
			hi = i
			break
		}
	}

	return lo, hi
}

// overlapFraction returns the fraction of the n-point grid covered by the
// intersection of the spectrum support [sLo, sHi] and the shifted template
// support [tLo, tHi], clipped to [0, 1].
func overlapFraction(n, sLo, sHi, tLo, tHi int) float64 {
	lo := maxInt(sLo, maxInt(tLo, 0))
	hi := minInt(sHi, minInt(tHi, n-1))

	if hi < lo {
		return 0
	}

	lap := float64(hi-lo+1) / float64(n)
	if lap > 1 {
		lap = 1
	}

	return lap
}

// shiftedSegment extracts tpl circularly shifted right by shift cells,
// restricted to [lo, hi].
func shiftedSegment(flux []float64, shift, lo, hi int) []float64 {
	n := len(flux)
	out := make([]float64, hi-lo+1)

	for i := lo; i <= hi; i++ {
		out[i-lo] = flux[((i-shift)%n+n)%n]
	}

	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}
