package clustering

import (
	"cmp"
	"slices"

	"github.com/muesli/clusters"
)

// CentroidConfig holds deterministic k-means parameters.
type CentroidConfig struct {
	NumClusters int // Number of clusters (default: 4)
	Iterations  int // Fixed iteration count, no convergence check (default: 12)
}

// DefaultCentroidConfig returns the recommended default configuration.
func DefaultCentroidConfig() CentroidConfig {
	return CentroidConfig{
		NumClusters: 4,
		Iterations:  12,
	}
}

// CentroidGrouper groups tracks by deterministic k-means over audio features
// and labels the resulting clusters High Energy, Chill, Emotional and Mixed.
type CentroidGrouper struct {
	cfg CentroidConfig
}

// NewCentroidGrouper creates a CentroidGrouper with the default configuration.
func NewCentroidGrouper() CentroidGrouper {
	return CentroidGrouper{cfg: DefaultCentroidConfig()}
}

var centroidGroupOrder = []GroupName{GroupHighEnergy, GroupChill, GroupEmotional, GroupMixed}

// Names returns the audio-feature group names in output order.
func (g CentroidGrouper) Names() []GroupName {
	return slices.Clone(centroidGroupOrder)
}

// NeedsAudioFeatures is true: clustering runs on audio feature vectors.
func (g CentroidGrouper) NeedsAudioFeatures() bool {
	return true
}

// Group clusters the tracks and returns the four labeled groups.
// Tracks inside each group are sorted by descending energy.
func (g CentroidGrouper) Group(tracks []Track) []Group {
	if len(tracks) == 0 {
		return emptyGroups(centroidGroupOrder)
	}

	obs := make(clusters.Observations, len(tracks))
	for i := range tracks {
		obs[i] = trackObservation{track: &tracks[i], coords: ToVector(tracks[i])}
	}

	result := PartitionFixed(obs, g.cfg.NumClusters, g.cfg.Iterations)
	labels := labelClusters(result)

	groups := emptyGroups(centroidGroupOrder)
	for i, name := range centroidGroupOrder {
		idx, ok := labels[name]
		if !ok {
			continue
		}
		for _, o := range result[idx].Observations {
			if to, ok := o.(trackObservation); ok {
				groups[i].Tracks = append(groups[i].Tracks, *to.track)
			}
		}
		slices.SortStableFunc(groups[i].Tracks, func(a, b Track) int {
			return cmp.Compare(value(b.Energy), value(a.Energy))
		})
	}
	return groups
}

// trackObservation wraps a Track to implement clusters.Observation interface.
type trackObservation struct {
	track  *Track
	coords clusters.Coordinates
}

func (o trackObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o trackObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// PartitionFixed runs k-means for exactly the given number of iterations.
//
// Seeds are taken at evenly spaced indices of the input, so the result only
// depends on input order. When there are fewer observations than k, the
// remaining seeds repeat the last observation. Each observation joins the
// nearest centroid, ties going to the lowest index. A centroid that loses all
// of its observations keeps its previous position.
func PartitionFixed(obs clusters.Observations, k, iterations int) clusters.Clusters {
	if len(obs) == 0 || k <= 0 {
		return nil
	}

	seedCount := min(k, len(obs))
	cc := make(clusters.Clusters, 0, k)
	for i := 0; i < seedCount; i++ {
		idx := i * len(obs) / seedCount
		cc = append(cc, clusters.Cluster{Center: slices.Clone(obs[idx].Coordinates())})
	}
	last := obs[len(obs)-1].Coordinates()
	for len(cc) < k {
		cc = append(cc, clusters.Cluster{Center: slices.Clone(last)})
	}

	for range iterations {
		for i := range cc {
			cc[i].Observations = clusters.Observations{}
		}
		for _, o := range obs {
			n := cc.Nearest(o)
			cc[n].Observations = append(cc[n].Observations, o)
		}
		cc.Recenter()
	}

	return cc
}
