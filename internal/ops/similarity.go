// Package ops holds the pure, synchronous, storage-free algorithms: cosine
// and Jaccard similarity, greedy agglomerative clustering, and board-item
// move. Metadata merge-on-update lives in internal/domain (MergeImage).
package ops

import "math"

// Cosine computes the cosine similarity of a and b in float64 arithmetic.
// A length mismatch or either vector being empty returns 0, never an error:
// callers treat "no comparable embedding" as "not similar", not a fault.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Jaccard computes |a∩b| / |a∪b| over two token sets.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}
