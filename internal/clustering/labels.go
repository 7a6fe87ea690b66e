package clustering

import (
	"github.com/muesli/clusters"
)

// clusterScores holds the label heuristics computed from one centroid.
type clusterScores struct {
	highEnergy float64
	chill      float64
	emotional  float64
}

// scoreCentroid computes label scores from a [energy, valence, tempo, acousticness] centroid.
func scoreCentroid(c clusters.Coordinates) clusterScores {
	energy, valence, tempo, acousticness := c[0], c[1], c[2], c[3]
	return clusterScores{
		highEnergy: energy*0.7 + tempo*0.3,
		chill:      acousticness*0.7 + (1-energy)*0.3,
		emotional:  (1-valence)*0.7 + acousticness*0.3,
	}
}

// labelClusters assigns group names to cluster indices.
//
// High Energy, Chill and Emotional each take the best-scoring unclaimed
// cluster in that order (lowest index on equal scores). The first cluster left
// over becomes Mixed. Any label still missing takes the next unclaimed cluster.
func labelClusters(cc clusters.Clusters) map[GroupName]int {
	labels := make(map[GroupName]int, len(centroidGroupOrder))
	if len(cc) == 0 {
		return labels
	}

	scores := make([]clusterScores, len(cc))
	for i, c := range cc {
		scores[i] = scoreCentroid(c.Center)
	}
	used := make([]bool, len(cc))

	takeBest := func(name GroupName, score func(clusterScores) float64) {
		best := -1
		for i := range cc {
			if used[i] {
				continue
			}
			if best < 0 || score(scores[i]) > score(scores[best]) {
				best = i
			}
		}
		if best >= 0 {
			labels[name] = best
			used[best] = true
		}
	}

	takeBest(GroupHighEnergy, func(s clusterScores) float64 { return s.highEnergy })
	takeBest(GroupChill, func(s clusterScores) float64 { return s.chill })
	takeBest(GroupEmotional, func(s clusterScores) float64 { return s.emotional })

	for _, name := range centroidGroupOrder {
		if _, ok := labels[name]; ok {
			continue
		}
		for i := range cc {
			if !used[i] {
				labels[name] = i
				used[i] = true
				break
			}
		}
	}

	return labels
}
