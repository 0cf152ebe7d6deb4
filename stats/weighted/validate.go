package weighted

import "math"

// relTolerance bounds the numerical slack allowed when checking correlation
// and positive-semidefiniteness constraints.
const relTolerance = 1e-10

// Validate reports whether a (mean, se) estimate is consistent with its
// input values: the mean lies within [min, max] of the inputs, and the
// standard error is non-negative and no larger than the input range.
//
// Empty input is valid only when both outputs are NaN.
func Validate(values []float64, mean, se float64) bool {
	if len(values) == 0 {
		return math.IsNaN(mean) && math.IsNaN(se)
	}

	if !finite(mean) || !finite(se) {
		return false
	}

	lo, hi := bounds(values)
	if mean < lo || mean > hi {
		return false
	}

	span := hi - lo
	if len(values) == 1 {
		span = 1
	}

	return se >= 0 && se <= span
}

// ValidateJoint reports whether a joint estimate is consistent with its
// inputs: both means within bounds, standard errors within the input ranges,
// |correlation| <= 1 within tolerance, and a positive semidefinite 2x2
// covariance matrix within tolerance.
//
// Empty input is valid only when every output field is NaN.
func ValidateJoint(xs, ys []float64, j Joint) bool {
	if len(xs) == 0 || len(ys) == 0 {
		return math.IsNaN(j.MeanX) && math.IsNaN(j.MeanY) &&
			math.IsNaN(j.SEX) && math.IsNaN(j.SEY) && math.IsNaN(j.Cov)
	}

	if !finite(j.MeanX) || !finite(j.MeanY) || !finite(j.SEX) || !finite(j.SEY) || !finite(j.Cov) {
		return false
	}

	loX, hiX := bounds(xs)
	loY, hiY := bounds(ys)

	if j.MeanX < loX || j.MeanX > hiX || j.MeanY < loY || j.MeanY > hiY {
		return false
	}

	spanX, spanY := hiX-loX, hiY-loY
	if len(xs) == 1 {
		spanX, spanY = 1, 1
	}

	if j.SEX < 0 || j.SEX > spanX || j.SEY < 0 || j.SEY > spanY {
		return false
	}

	// Single-sample estimates must have exactly zero spread.
	if len(xs) == 1 {
		return j.SEX == 0 && j.SEY == 0 && j.Cov == 0
	}

	// |correlation| <= 1 within numerical tolerance.
	if j.SEX > 0 && j.SEY > 0 {
		corr := j.Cov / (j.SEX * j.SEY)
		if math.Abs(corr) > 1+relTolerance {
			return false
		}
	}

	// Positive semidefinite: det = varX*varY - cov^2 >= -tol.
	varX := j.SEX * j.SEX
	varY := j.SEY * j.SEY

	tol := relTolerance * math.Max(varX*varY, 1e-20)

	return varX*varY-j.Cov*j.Cov >= -tol
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)

	for _, v := range values {
		if !finite(v) {
			continue
		}

		if v < lo {
			lo = v
		}

		if v > hi {
			hi = v
		}
	}

	return lo, hi
}
