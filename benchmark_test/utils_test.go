package benchmark_test

import (
	"fmt"

	"github.com/hupe1980/vecgraph"
	"github.com/hupe1980/vecgraph/metric"
	"github.com/hupe1980/vecgraph/testutil"
)

func formatDim(dim int) string {
	return fmt.Sprintf("dim=%d", dim)
}

func formatCount(n int) string {
	return fmt.Sprintf("n=%d", n)
}

// recallAtK compares index results against an exact scan of vectors, where
// foreign keys are positions in vectors.
func recallAtK(results []vecgraph.Result[int, float32], query []float32, vectors [][]float32, k int) float64 {
	truth := testutil.ExactSearch(query, vectors, k, metric.NegativeSquaredL2)

	ids := make([]int, len(results))
	for i, r := range results {
		ids[i] = r.ForeignKey
	}
	return testutil.RecallAtK(truth, ids)
}
