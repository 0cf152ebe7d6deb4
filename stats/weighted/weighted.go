// Package weighted provides quality- and precision-weighted estimation of
// means, standard errors, and joint covariance.
//
// Every caller routes through the same canonical weight formula,
// w = metric^2 / sigma^2, degrading to quality-only weights metric^2 when
// per-sample uncertainties are unavailable. The effective sample size
// N_eff = (Σw)^2 / Σw^2 replaces the raw count throughout: a handful of
// dominant high-weight samples behaves like fewer independent observations,
// and both the bias correction and the standard error of the mean account
// for that.
//
// Degenerate scientific input (empty sets, all-invalid samples, zero total
// weight) yields NaN results, never an error; length mismatches between
// parallel input slices are caller contract violations and fail loudly with
// ErrLengthMismatch.
package weighted

import (
	"errors"
	"math"
)

// ErrLengthMismatch reports parallel input slices of different lengths.
var ErrLengthMismatch = errors.New("weighted: input length mismatch")

// sigmaFloorFraction scales the smallest positive uncertainty present to
// replace non-positive uncertainties, so a reported sigma of zero never turns
// into infinite weight.
const sigmaFloorFraction = 1e-3

// CombinedWeights computes the canonical per-sample weight metric^2/sigma^2.
//
// Samples with non-finite metrics or non-positive metrics get weight 0.
// Non-positive or non-finite sigmas are floored to a small fraction of the
// smallest positive sigma present; if no positive sigma exists at all the
// weights degrade to metric^2 (quality-only).
func CombinedWeights(metrics, sigmas []float64) ([]float64, error) {
	if len(metrics) != len(sigmas) {
		return nil, ErrLengthMismatch
	}

	minSigma := math.Inf(1)

	for _, s := range sigmas {
		if s > 0 && !math.IsInf(s, 0) && s < minSigma {
			minSigma = s
		}
	}

	floor := 0.0
	if !math.IsInf(minSigma, 0) {
		floor = minSigma * sigmaFloorFraction
	}

	out := make([]float64, len(metrics))

	for i, m := range metrics {
		if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			continue
		}

		w := m * m

		s := sigmas[i]
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			s = floor
		}

		if s > 0 {
			w /= s * s
		}

		out[i] = w
	}

	return out, nil
}

// Estimate computes the weighted mean and its standard error for values with
// per-sample uncertainties (sigmas) and quality metrics.
//
// Samples with non-finite values, non-positive metrics, or non-finite weights
// are excluded. Empty or all-invalid input returns (NaN, NaN, nil). A single
// valid sample returns (value, 0) exactly.
func Estimate(values, sigmas, metrics []float64) (mean, se float64, err error) {
	if len(values) != len(sigmas) || len(values) != len(metrics) {
		return math.NaN(), math.NaN(), ErrLengthMismatch
	}

	weights, err := CombinedWeights(metrics, sigmas)
	if err != nil {
		return math.NaN(), math.NaN(), err
	}

	mean, se = MeanSE(values, weights)

	return mean, se, nil
}

// MeanSE computes the weighted mean and standard error of the mean for
// arbitrary non-negative weights. Both slices must have the same length;
// mismatches yield (NaN, NaN) on this internal trusted path, exported
// callers validate lengths first.
func MeanSE(values, weights []float64) (mean, se float64) {
	vals, w := validPairs(values, weights)

	n := len(vals)
	if n == 0 {
		return math.NaN(), math.NaN()
	}

	if n == 1 {
		return vals[0], 0
	}

	var sumW, sumW2 float64
	for _, wi := range w {
		sumW += wi
		sumW2 += wi * wi
	}

	if sumW <= 0 {
		return math.NaN(), math.NaN()
	}

	mean = 0
	for i, v := range vals {
		mean += w[i] * v
	}

	mean /= sumW

	nEff := sumW * sumW / sumW2

	var varPop float64
	for i, v := range vals {
		d := v - mean
		varPop += w[i] * d * d
	}

	varPop /= sumW

	varSample := varPop
	if nEff > 1 {
		varSample *= nEff / (nEff - 1)
	}

	return mean, math.Sqrt(varSample / nEff)
}

// Joint holds the result of a 2-D weighted estimation: the weighted centroid,
// marginal standard errors, and the covariance of the two means.
type Joint struct {
	MeanX float64
	MeanY float64
	SEX   float64
	SEY   float64
	Cov   float64
}

// nan returns an all-NaN Joint for degenerate input.
func nanJoint() Joint {
	n := math.NaN()
	return Joint{MeanX: n, MeanY: n, SEX: n, SEY: n, Cov: n}
}

// EstimateJoint computes the joint weighted estimate over paired (x, y)
// samples with shared weights: weighted centroid, bias-corrected marginal
// standard errors, and the covariance of the means.
//
// Samples where x, y, or the weight is non-finite, or the weight is not
// positive, are excluded. Empty or all-invalid input returns an all-NaN
// Joint. A single valid sample returns the sample with exactly zero spread.
func EstimateJoint(xs, ys, weights []float64) (Joint, error) {
	if len(xs) != len(ys) || len(xs) != len(weights) {
		return nanJoint(), ErrLengthMismatch
	}

	var vx, vy, w []float64

	for i := range xs {
		if !finite(xs[i]) || !finite(ys[i]) || !finite(weights[i]) || weights[i] <= 0 {
			continue
		}

		vx = append(vx, xs[i])
		vy = append(vy, ys[i])
		w = append(w, weights[i])
	}

	n := len(vx)
	if n == 0 {
		return nanJoint(), nil
	}

	if n == 1 {
		return Joint{MeanX: vx[0], MeanY: vy[0]}, nil
	}

	var sumW, sumW2 float64
	for _, wi := range w {
		sumW += wi
		sumW2 += wi * wi
	}

	if sumW <= 0 {
		return nanJoint(), nil
	}

	var meanX, meanY float64
	for i := range vx {
		meanX += w[i] * vx[i]
		meanY += w[i] * vy[i]
	}

	meanX /= sumW
	meanY /= sumW

	nEff := sumW * sumW / sumW2

	var varX, varY, cov float64

	for i := range vx {
		dx := vx[i] - meanX
		dy := vy[i] - meanY
		varX += w[i] * dx * dx
		varY += w[i] * dy * dy
		cov += w[i] * dx * dy
	}

	varX /= sumW
	varY /= sumW
	cov /= sumW

	if nEff > 1 {
		corr := nEff / (nEff - 1)
		varX *= corr
		varY *= corr
		cov *= corr
	}

	return Joint{
		MeanX: meanX,
		MeanY: meanY,
		SEX:   math.Sqrt(varX / nEff),
		SEY:   math.Sqrt(varY / nEff),
		Cov:   cov / nEff,
	}, nil
}

// Median computes the weighted median of values, interpolating linearly
// between adjacent samples when the half-weight point falls between them.
// Degenerate input returns NaN.
func Median(values, weights []float64) float64 {
	if len(values) != len(weights) {
		return math.NaN()
	}

	vals, w := validPairs(values, weights)

	n := len(vals)
	if n == 0 {
		return math.NaN()
	}

	if n == 1 {
		return vals[0]
	}

	// Sort pairs by value (insertion sort: cluster member counts are small).
	for i := 1; i < n; i++ {
		v, wi := vals[i], w[i]
		j := i - 1

		for j >= 0 && vals[j] > v {
			vals[j+1] = vals[j]
			w[j+1] = w[j]
			j--
		}

		vals[j+1] = v
		w[j+1] = wi
	}

	cum := make([]float64, n)

	total := 0.0
	for i, wi := range w {
		total += wi
		cum[i] = total
	}

	half := total / 2

	// First index where the cumulative weight reaches the half-weight point.
	idx := 0
	for idx < n && cum[idx] < half {
		idx++
	}

	switch {
	case idx == 0:
		return vals[0]
	case idx >= n:
		return vals[n-1]
	case cum[idx] == half:
		return (vals[idx-1] + vals[idx]) / 2
	}

	alpha := (half - cum[idx-1]) / (cum[idx] - cum[idx-1])

	return vals[idx-1] + alpha*(vals[idx]-vals[idx-1])
}

// EffectiveSampleSize returns N_eff = (Σw)^2 / Σw^2 over the positive finite
// weights. Zero or all-invalid weights yield 0.
func EffectiveSampleSize(weights []float64) float64 {
	var sumW, sumW2 float64

	for _, w := range weights {
		if w <= 0 || !finite(w) {
			continue
		}

		sumW += w
		sumW2 += w * w
	}

	if sumW2 == 0 {
		return 0
	}

	return sumW * sumW / sumW2
}

// validPairs filters parallel (value, weight) pairs down to finite values
// with positive finite weights. Returns fresh slices.
func validPairs(values, weights []float64) (vals, w []float64) {
	for i := range values {
		if !finite(values[i]) || !finite(weights[i]) || weights[i] <= 0 {
			continue
		}

		vals = append(vals, values[i])
		w = append(w, weights[i])
	}

	return vals, w
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
