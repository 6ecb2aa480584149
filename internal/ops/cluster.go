package ops

// Candidate is one vector to cluster, keyed by an opaque id (typically an
// image path).
type Candidate struct {
	ID     string
	Vector []float32
}

// Cluster is one multi-member group produced by GreedyCluster.
type Cluster struct {
	Members []string
}

// GreedyCluster performs a one-pass agglomerative grouping: it iterates
// candidates in input order, and for each unassigned candidate seeds a new
// cluster and greedily admits every remaining unassigned candidate whose
// cosine similarity to the seed is >= threshold. Only clusters with 2+
// members are returned; everything else is counted as ungrouped. The result
// is deterministic for a given input order.
func GreedyCluster(candidates []Candidate, threshold float64) (clusters []Cluster, ungrouped int) {
	assigned := make([]bool, len(candidates))

	for i := range candidates {
		if assigned[i] {
			continue
		}
		assigned[i] = true

		members := []string{candidates[i].ID}
		for j := i + 1; j < len(candidates); j++ {
			if assigned[j] {
				continue
			}
			if Cosine(candidates[i].Vector, candidates[j].Vector) >= threshold {
				assigned[j] = true
				members = append(members, candidates[j].ID)
			}
		}

		if len(members) >= 2 {
			clusters = append(clusters, Cluster{Members: members})
		} else {
			ungrouped++
		}
	}

	return clusters, ungrouped
}
