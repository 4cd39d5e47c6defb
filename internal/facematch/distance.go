// Package facematch computes descriptor similarity and turns repeated
// per-frame comparisons into a single accept/reject verdict.
package facematch

import "math"

// MaxDistance is the fail-closed distance for invalid comparisons. It also
// serves as the upper sanity bound for batch samples: anything at or above
// it is detection noise, not a face measurement.
const MaxDistance = 2.0

// Distance returns the Euclidean distance between two descriptors.
// Mismatched lengths or empty vectors fail closed with MaxDistance rather
// than comparing partial vectors.
func Distance(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return MaxDistance
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// MinDistance returns the minimum Euclidean distance between the live
// descriptor and any reference descriptor. An empty reference set fails
// closed with MaxDistance.
func MinDistance(live []float32, references [][]float32) float64 {
	min := MaxDistance
	for _, ref := range references {
		if d := Distance(live, ref); d < min {
			min = d
		}
	}
	return min
}

// DisplaySimilarity converts a distance into the 0..1 similarity shown to
// the subject. It is a monotonic UI convenience, not the acceptance rule.
func DisplaySimilarity(distance float64) float64 {
	return math.Max(0, math.Min(1, 1-distance))
}
