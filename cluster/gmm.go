package cluster

import (
	"math"
	"sort"
)

// EM policy constants. The mixture fit is deterministic: component means are
// seeded at quantiles of the sorted input, so repeated runs over the same
// matches produce identical clusters.
const (
	emMaxIterations = 200
	emTolerance     = 1e-10

	// varianceFloor keeps components from collapsing onto single points.
	// The scale matches the redshift axis: no real cluster is tighter
	// than sigma ~1e-3.
	varianceFloor = 1e-6
)

// mixture is a one-dimensional Gaussian mixture.
type mixture struct {
	weights   []float64
	means     []float64
	variances []float64
}

func (m mixture) components() int {
	return len(m.means)
}

// logDensity returns ln p(x) under the mixture.
func (m mixture) logDensity(x float64) float64 {
	p := 0.0

	for j := range m.means {
		p += m.weights[j] * gaussian(x, m.means[j], m.variances[j])
	}

	if p <= 0 {
		return math.Inf(-1)
	}

	return math.Log(p)
}

// assign returns the index of the most probable component for x.
func (m mixture) assign(x float64) int {
	best := 0
	bestP := math.Inf(-1)

	for j := range m.means {
		p := m.weights[j] * gaussian(x, m.means[j], m.variances[j])
		if p > bestP {
			bestP = p
			best = j
		}
	}

	return best
}

func gaussian(x, mean, variance float64) float64 {
	d := x - mean
	return math.Exp(-0.5*d*d/variance) / math.Sqrt(2*math.Pi*variance)
}

// fitMixture fits a k-component mixture to values with EM. Initialization
// is deterministic: means at the (i+0.5)/k quantiles of the sorted values,
// shared variance.
func fitMixture(values []float64, k int) mixture {
	n := len(values)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	_, overallVar := meanVariance(values)
	if overallVar < varianceFloor {
		overallVar = varianceFloor
	}

	m := mixture{
		weights:   make([]float64, k),
		means:     make([]float64, k),
		variances: make([]float64, k),
	}

	for j := 0; j < k; j++ {
		q := (float64(j) + 0.5) / float64(k)
		m.weights[j] = 1 / float64(k)
		m.means[j] = quantile(sorted, q)
		m.variances[j] = overallVar
	}

	resp := make([][]float64, n)
	for i := range resp {
		resp[i] = make([]float64, k)
	}

	logLik := math.Inf(-1)

	for iter := 0; iter < emMaxIterations; iter++ {
		// E step.
		newLogLik := 0.0

		for i, x := range values {
			total := 0.0

			for j := 0; j < k; j++ {
				r := m.weights[j] * gaussian(x, m.means[j], m.variances[j])
				resp[i][j] = r
				total += r
			}

			if total <= 0 {
				// Point infinitely far from every component: share evenly.
				for j := 0; j < k; j++ {
					resp[i][j] = 1 / float64(k)
				}

				total = 1
			} else {
				for j := 0; j < k; j++ {
					resp[i][j] /= total
				}
			}

			newLogLik += math.Log(total)
		}

		// M step.
		for j := 0; j < k; j++ {
			var nj, sum float64

			for i, x := range values {
				nj += resp[i][j]
				sum += resp[i][j] * x
			}

			if nj <= 0 {
				continue
			}

			mean := sum / nj

			var variance float64
			for i, x := range values {
				d := x - mean
				variance += resp[i][j] * d * d
			}

			variance /= nj
			if variance < varianceFloor {
				variance = varianceFloor
			}

			m.weights[j] = nj / float64(n)
			m.means[j] = mean
			m.variances[j] = variance
		}

		if newLogLik-logLik < emTolerance && iter > 0 {
			logLik = newLogLik
			break
		}

		logLik = newLogLik
	}

	return m
}

// selectMixture fits mixtures with 1..maxK components and returns the one
// minimizing the Bayesian information criterion. Every component must be
// able to claim at least two samples, otherwise the criterion rewards
// splitting tight groups into singletons.
func selectMixture(values []float64, maxK int) mixture {
	n := len(values)

	if maxK > n/2 {
		maxK = n / 2
	}

	if maxK < 1 {
		maxK = 1
	}

	var (
		best    mixture
		bestBIC = math.Inf(1)
	)

	for k := 1; k <= maxK; k++ {
		m := fitMixture(values, k)

		logLik := 0.0
		for _, x := range values {
			logLik += m.logDensity(x)
		}

		params := float64(3*k - 1)
		bic := -2*logLik + params*math.Log(float64(n))

		if bic < bestBIC {
			bestBIC = bic
			best = m
		}
	}

	return best
}

func meanVariance(values []float64) (mean, variance float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}

	for _, v := range values {
		mean += v
	}

	mean /= n

	for _, v := range values {
		d := v - mean
		variance += d * d
	}

	return mean, variance / n
}

// quantile returns the q-quantile of sorted values with linear interpolation.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))

	if lo == hi {
		return sorted[lo]
	}

	frac := pos - float64(lo)

	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
