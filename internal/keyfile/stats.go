package keyfile

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a decoded key file.
type Stats struct {
	Features  int
	MeanScale float64
	MaxScale  float64
	// Extent is the bounding box of feature locations in compacted order.
	MinA, MaxA float64
	MinB, MaxB float64
}

// Describe computes summary statistics for features.
func Describe(features []Feature) (Stats, error) {
	stats := Stats{Features: len(features)}
	if len(features) == 0 {
		return stats, nil
	}

	scales := make([]float64, 0, len(features))
	stats.MinA, stats.MinB = math.Inf(1), math.Inf(1)
	stats.MaxA, stats.MaxB = math.Inf(-1), math.Inf(-1)
	for _, feature := range features {
		scale, err := feature.Scale()
		if err != nil {
			return Stats{}, err
		}
		a, b, err := feature.Location()
		if err != nil {
			return Stats{}, err
		}
		scales = append(scales, scale)
		stats.MaxScale = math.Max(stats.MaxScale, scale)
		stats.MinA, stats.MaxA = math.Min(stats.MinA, a), math.Max(stats.MaxA, a)
		stats.MinB, stats.MaxB = math.Min(stats.MinB, b), math.Max(stats.MaxB, b)
	}
	stats.MeanScale = stat.Mean(scales, nil)
	return stats, nil
}
