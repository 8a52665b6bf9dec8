package focal

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the determined focal lengths of a batch.
type Summary struct {
	Images  int
	Known   int
	Unknown int
	Mean    float64
	Median  float64
	StdDev  float64
	Min     float64
	Max     float64
}

// Summarize computes statistics over the determined focal lengths. The
// numeric fields are zero when nothing was determined.
func Summarize(results Results) Summary {
	summary := Summary{Images: results.Len()}
	values := make([]float64, 0, results.Len())
	for _, result := range results.All() {
		if result.Known {
			values = append(values, result.Pixels)
		}
	}
	summary.Known = len(values)
	summary.Unknown = summary.Images - summary.Known
	if len(values) == 0 {
		return summary
	}

	sort.Float64s(values)
	summary.Min = values[0]
	summary.Max = values[len(values)-1]
	summary.Mean = stat.Mean(values, nil)
	summary.Median = stat.Quantile(0.5, stat.Empirical, values, nil)
	if len(values) > 1 {
		summary.StdDev = stat.StdDev(values, nil)
	}
	return summary
}
