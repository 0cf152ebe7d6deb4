// Package match defines the per-template correlation match record and the
// quality metrics used to score it.
//
// Each accepted correlation peak yields one Match carrying the legacy RLAP
// quality metric (peak height times overlap fraction) and, when the refined
// concordance-based metric could be computed, an RLAP-CCC value. A single
// selection function, Best, decides which metric represents the match
// everywhere: thresholding, clustering, weighting, and display all route
// through it so the preference cannot drift between call sites.
package match

import (
	"math"

	"github.com/cwbudde/algo-specmatch/template"
)

// MetricKind tags which quality metric a Match carries.
type MetricKind int

const (
	// MetricRLap is the legacy metric: correlation peak height times
	// wavelength-overlap fraction.
	MetricRLap MetricKind = iota

	// MetricRLapCCC is the refined metric: RLAP scaled by a clipped
	// concordance correlation coefficient between spectrum and shifted
	// template flux. Preferred over plain RLAP whenever present.
	MetricRLapCCC
)

// String returns the display name of the metric kind.
func (k MetricKind) String() string {
	if k == MetricRLapCCC {
		return "RLAP-CCC"
	}

	return "RLAP"
}

// Metric is a tagged quality value. The zero value is an RLAP of 0.
type Metric struct {
	Kind  MetricKind
	Value float64
}

// Match is one correlation peak for one template. Immutable once produced.
type Match struct {
	Template      *template.Template
	Redshift      float64
	RedshiftError float64
	R             float64 // normalized correlation height at the peak
	Lap           float64 // overlap fraction in [0,1]
	RLap          float64 // R * Lap
	Metric        Metric
	PeakIndex     int
}

// Best returns the quality value that represents the match: the RLAP-CCC
// value whenever the match carries one and it is finite, otherwise the plain
// RLAP. The preference is based on the metric kind, not on which value is
// numerically larger.
func Best(m Match) float64 {
	if m.Metric.Kind == MetricRLapCCC && !math.IsNaN(m.Metric.Value) && !math.IsInf(m.Metric.Value, 0) {
		return m.Metric.Value
	}

	return m.RLap
}

// MetricName returns the display name of the metric Best would select.
func MetricName(m Match) string {
	if m.Metric.Kind == MetricRLapCCC && !math.IsNaN(m.Metric.Value) && !math.IsInf(m.Metric.Value, 0) {
		return MetricRLapCCC.String()
	}

	return MetricRLap.String()
}
