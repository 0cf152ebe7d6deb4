package cluster

import (
	"sort"

	"github.com/cwbudde/algo-specmatch/match"
)

// vote fills the subtype voting fields of a cluster. Each member votes for
// its template's subtype with weight metric^2. Confidence is the winning
// share of the total vote; the margin is the winner's lead over the
// runner-up as a share of the total.
func (e Engine) vote(c *Cluster) {
	votes := make(map[string]float64)

	var total float64

	for _, m := range c.Matches {
		sub := m.Template.Subtype
		if sub == "" {
			continue
		}

		v := match.Best(m)
		if !validFinite(v) || v <= 0 {
			continue
		}

		votes[sub] += v * v
		total += v * v
	}

	c.SubtypeVotes = votes

	if total <= 0 {
		return
	}

	// Deterministic iteration: ties break toward the lexically smaller name.
	subs := make([]string, 0, len(votes))
	for sub := range votes {
		subs = append(subs, sub)
	}

	sort.Strings(subs)

	var (
		best           string
		bestV, secondV float64
	)

	for _, sub := range subs {
		v := votes[sub]

		switch {
		case v > bestV:
			secondV = bestV
			best, bestV = sub, v
		case v > secondV:
			secondV = v
		}
	}

	c.BestSubtype = best
	c.SubtypeConfidence = bestV / total
	c.SubtypeMargin = (bestV - secondV) / total
}
