package match

import "math"

// ConcordanceCorrelation computes Lin's concordance correlation coefficient
// between a and b:
//
//	ccc = 2*cov(a,b) / (var(a) + var(b) + (mean(a)-mean(b))^2)
//
// It combines Pearson correlation with penalties for mean and variance bias,
// so two signals that co-vary but sit at different flux levels score below
// their plain correlation. The result lies in [-1, 1]. Degenerate input
// (empty, mismatched lengths, or both signals constant at the same level)
// yields NaN.
func ConcordanceCorrelation(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}

	n := float64(len(a))

	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}

	meanA /= n
	meanB /= n

	var varA, varB, cov float64

	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		varA += da * da
		varB += db * db
		cov += da * db
	}

	varA /= n
	varB /= n
	cov /= n

	bias := meanA - meanB

	denom := varA + varB + bias*bias
	if denom == 0 {
		return math.NaN()
	}

	return 2 * cov / denom
}

// RLapCCC combines the legacy RLAP with a concordance-based similarity.
// The CCC is clipped to be non-negative before scaling, so anti-correlated
// flux levels zero the metric out rather than flipping its sign.
func RLapCCC(rlap, ccc float64) float64 {
	if math.IsNaN(ccc) {
		return math.NaN()
	}

	return rlap * math.Max(ccc, 0)
}

// ChiSquareScore computes a chi-square style agreement score between a and b,
// mapped to (0, 1] where 1 is perfect agreement. Retained for diagnostics;
// not part of the primary decision path.
func ChiSquareScore(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}

	const eps = 1e-12

	var chi2 float64

	for i := range a {
		d := a[i] - b[i]
		scale := math.Abs(a[i]) + math.Abs(b[i]) + eps
		chi2 += d * d / scale
	}

	chi2 /= float64(len(a))

	return 1 / (1 + chi2)
}

// LocalityScore measures how concentrated a correlation function is around
// the peak at index peak: the peak height divided by the RMS of the
// correlation outside a guard window of +/-5 cells. Higher values indicate an
// isolated, trustworthy peak; values near 1 indicate the peak barely rises
// above the correlation noise floor. Retained for diagnostics.
func LocalityScore(corr []float64, peak int) float64 {
	const guard = 5

	if len(corr) == 0 || peak < 0 || peak >= len(corr) {
		return math.NaN()
	}

	var (
		sumSq float64
		count int
	)

	for i, v := range corr {
		if i >= peak-guard && i <= peak+guard {
			continue
		}

		sumSq += v * v
		count++
	}

	if count == 0 {
		return math.NaN()
	}

	floor := math.Sqrt(sumSq / float64(count))
	if floor == 0 {
		return math.Inf(1)
	}

	return math.Abs(corr[peak]) / floor
}
