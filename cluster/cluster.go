// Package cluster groups surviving template matches into physically coherent
// candidate solutions and picks a winner.
//
// Matches are partitioned by object type; within a type, a one-dimensional
// Gaussian mixture over redshift separates distinct populations (for example
// two competing redshift solutions for the same type). Each resulting cluster
// is scored by the quality of its strongest members and by how decisively it
// beats the best cluster of any other type. Within the winning cluster a
// quality-weighted vote decides the subtype.
//
// Clustering is stateless: every call is a pure function of the match set
// passed in. Scoring constants (the top-5 member cap, the mixture component
// cap) are tunable policy, not physical requirements.
package cluster

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-specmatch/match"
	"github.com/cwbudde/algo-specmatch/stats/weighted"
)

// Cluster is one coherent redshift/age solution for one object type.
// Clusters are rebuilt on every classification run, never persisted.
type Cluster struct {
	Type    string
	Matches []match.Match
	Size    int

	// Scores. Quality is the mean best-metric value of the top-5 members;
	// Confidence expresses the margin over the best cluster of another
	// type; CompositeScore = Quality * Confidence ranks clusters globally.
	MeanMetric     float64
	Quality        float64
	Confidence     float64
	CompositeScore float64

	// Weighted estimates over the members.
	Redshift       float64
	RedshiftSE     float64
	AgeDays        float64
	AgeSE          float64
	RedshiftAgeCov float64

	// Subtype voting results.
	SubtypeVotes      map[string]float64
	BestSubtype       string
	SubtypeConfidence float64
	SubtypeMargin     float64
}

// Engine groups matches into clusters and selects a winner.
type Engine struct {
	// MaxComponents caps the number of mixture components tried per type.
	MaxComponents int

	// TopN caps how many of the strongest members contribute to a
	// cluster's quality score, making it robust to a single lucky outlier.
	TopN int

	// MinMatches is the smallest match set worth clustering; below it the
	// caller falls back to ranking raw matches.
	MinMatches int
}

// DefaultEngine returns an engine with the reference policy constants.
func DefaultEngine() Engine {
	return Engine{MaxComponents: 3, TopN: 5, MinMatches: 2}
}

// ClusterMatches partitions matches by type, splits each type into
// density-coherent redshift groups, scores every group, and returns all
// candidate clusters ordered by descending composite score.
//
// Too few matches yield zero clusters; that is the documented degraded path,
// not an error.
func (e Engine) ClusterMatches(matches []match.Match) []Cluster {
	if len(matches) < e.MinMatches {
		return nil
	}

	byType := make(map[string][]match.Match)

	var typeOrder []string

	for _, m := range matches {
		key := m.Template.Type
		if _, seen := byType[key]; !seen {
			typeOrder = append(typeOrder, key)
		}

		byType[key] = append(byType[key], m)
	}

	var clusters []Cluster

	for _, typ := range typeOrder {
		clusters = append(clusters, e.clusterType(typ, byType[typ])...)
	}

	e.score(clusters)

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].CompositeScore > clusters[j].CompositeScore
	})

	return clusters
}

// clusterType splits the matches of one type into redshift groups.
func (e Engine) clusterType(typ string, matches []match.Match) []Cluster {
	values := make([]float64, len(matches))
	for i, m := range matches {
		values[i] = m.Redshift
	}

	mix := selectMixture(values, e.MaxComponents)

	groups := make([][]match.Match, mix.components())
	for i, m := range matches {
		j := mix.assign(values[i])
		groups[j] = append(groups[j], m)
	}

	var out []Cluster

	for _, g := range groups {
		if len(g) == 0 {
			continue
		}

		c := Cluster{Type: typ, Matches: g, Size: len(g)}
		e.estimate(&c)
		e.vote(&c)

		out = append(out, c)
	}

	return out
}

// estimate fills the weighted redshift/age estimates and the quality score
// of a cluster from its members.
func (e Engine) estimate(c *Cluster) {
	n := len(c.Matches)

	zs := make([]float64, n)
	ages := make([]float64, n)
	zErrs := make([]float64, n)
	metrics := make([]float64, n)

	for i, m := range c.Matches {
		zs[i] = m.Redshift
		ages[i] = m.Template.AgeDays
		zErrs[i] = m.RedshiftError
		metrics[i] = match.Best(m)
	}

	var total float64
	for _, v := range metrics {
		total += v
	}

	c.MeanMetric = total / float64(n)
	c.Quality = topMean(metrics, e.TopN)

	w, err := weighted.CombinedWeights(metrics, zErrs)
	if err != nil {
		return
	}

	j, err := weighted.EstimateJoint(zs, ages, w)
	if err != nil {
		return
	}

	c.Redshift = j.MeanX
	c.RedshiftSE = j.SEX
	c.AgeDays = j.MeanY
	c.AgeSE = j.SEY
	c.RedshiftAgeCov = j.Cov
}

// score fills Confidence and CompositeScore across all candidate clusters.
// A cluster's confidence compares its quality to the best cluster of a
// different type: 0.5 when tied, approaching 1 when unopposed.
func (e Engine) score(clusters []Cluster) {
	for i := range clusters {
		bestOther := 0.0

		for j := range clusters {
			if clusters[j].Type != clusters[i].Type && clusters[j].Quality > bestOther {
				bestOther = clusters[j].Quality
			}
		}

		q := clusters[i].Quality

		if q+bestOther > 0 {
			clusters[i].Confidence = q / (q + bestOther)
		}

		clusters[i].CompositeScore = q * clusters[i].Confidence
	}
}

// SelectWinner returns the cluster with the highest composite score, or nil
// when there are no candidates. All candidates remain available to the
// caller for manual override.
func (e Engine) SelectWinner(clusters []Cluster) *Cluster {
	if len(clusters) == 0 {
		return nil
	}

	best := 0

	for i := 1; i < len(clusters); i++ {
		if clusters[i].CompositeScore > clusters[best].CompositeScore {
			best = i
		}
	}

	return &clusters[best]
}

// topMean returns the mean of the n largest values.
func topMean(values []float64, n int) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	if n > len(sorted) {
		n = len(sorted)
	}

	var sum float64
	for _, v := range sorted[:n] {
		sum += v
	}

	return sum / float64(n)
}

// validFinite reports whether v is a usable number.
func validFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
