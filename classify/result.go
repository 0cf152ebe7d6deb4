package classify

import (
	"math"

	"github.com/cwbudde/algo-specmatch/cluster"
	"github.com/cwbudde/algo-specmatch/match"
)

// Result is the full outcome of one classification run.
//
// AllMatches holds every match that survived the quality threshold, ordered
// by descending metric, so callers can inspect runners-up. The consensus
// fields summarize the winning cluster; when clustering degrades (too few
// matches for a stable mixture fit) they fall back to the single best match.
type Result struct {
	AllMatches []match.Match
	Clusters   []cluster.Cluster

	// WinningCluster is nil when no cluster could be formed.
	WinningCluster *cluster.Cluster

	ConsensusType    string
	ConsensusSubtype string

	// Weighted joint estimates over the winning cluster. Subtype-pure
	// estimates are preferred when enough members share the winning
	// subtype; otherwise these fall back to the whole cluster. NaN when
	// no usable match exists.
	EnhancedRedshift      float64
	EnhancedRedshiftError float64
	EnhancedAge           float64
	EnhancedAgeError      float64
}

// HasConsensus reports whether the run produced a usable classification.
func (r *Result) HasConsensus() bool {
	return r.ConsensusType != "" && !math.IsNaN(r.EnhancedRedshift)
}

// BestMatch returns the single strongest match, or nil when the run found
// none above threshold.
func (r *Result) BestMatch() *match.Match {
	if len(r.AllMatches) == 0 {
		return nil
	}

	return &r.AllMatches[0]
}

func emptyResult() *Result {
	return &Result{
		EnhancedRedshift:      math.NaN(),
		EnhancedRedshiftError: math.NaN(),
		EnhancedAge:           math.NaN(),
		EnhancedAgeError:      math.NaN(),
	}
}
