package analytics

import (
	"cmp"
	"math"
)

// DiversityScore maps a frequency table to a 0-100 score using
// normalized Shannon entropy: the entropy of the count distribution
// divided by the maximum possible entropy for the observed cardinality
// (log2 of the distinct-key count), scaled to 100 and rounded.
//
// A table with zero or one distinct key scores 0. For a fixed
// cardinality the uniform distribution scores highest.
func DiversityScore[K cmp.Ordered](t Table[K]) int {
	n := t.Len()
	if n <= 1 {
		return 0
	}

	total := float64(t.Total())
	if total == 0 {
		return 0
	}

	entropy := 0.0
	for _, count := range t.Counts() {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}

	maxEntropy := math.Log2(float64(n))
	score := math.Round(entropy / maxEntropy * 100)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score)
}
