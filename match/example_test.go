package match_test

import (
	"fmt"

	"github.com/cwbudde/algo-specmatch/match"
)

func ExampleBest() {
	plain := match.Match{
		RLap:   12,
		Metric: match.Metric{Kind: match.MetricRLap, Value: 12},
	}

	refined := match.Match{
		RLap:   12,
		Metric: match.Metric{Kind: match.MetricRLapCCC, Value: 9.5},
	}

	// The refined metric wins by kind, not by value.
	fmt.Println(match.Best(plain))
	fmt.Println(match.Best(refined))

	// Output:
	// 12
	// 9.5
}
