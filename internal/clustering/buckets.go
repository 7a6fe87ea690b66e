package clustering

import (
	"cmp"
	"slices"
)

// Popularity band lower bounds.
const (
	mainstreamMin = 80
	popularMin    = 50
	hiddenGemsMin = 25
)

// BucketGrouper buckets tracks into four fixed popularity bands.
type BucketGrouper struct{}

var bucketGroupOrder = []GroupName{GroupMainstreamHits, GroupPopularTracks, GroupHiddenGems, GroupUnderground}

// Names returns the popularity group names in output order.
func (BucketGrouper) Names() []GroupName {
	return slices.Clone(bucketGroupOrder)
}

// NeedsAudioFeatures is false: buckets only use popularity.
func (BucketGrouper) NeedsAudioFeatures() bool {
	return false
}

// Group assigns each track to its popularity band.
// Tracks within a band are sorted by descending popularity.
func (BucketGrouper) Group(tracks []Track) []Group {
	groups := emptyGroups(bucketGroupOrder)
	for _, t := range tracks {
		i := bucketIndex(ToScalar(t))
		groups[i].Tracks = append(groups[i].Tracks, t)
	}
	for i := range groups {
		slices.SortStableFunc(groups[i].Tracks, func(a, b Track) int {
			return cmp.Compare(b.Popularity, a.Popularity)
		})
	}
	return groups
}

func bucketIndex(popularity float64) int {
	switch {
	case popularity >= mainstreamMin:
		return 0
	case popularity >= popularMin:
		return 1
	case popularity >= hiddenGemsMin:
		return 2
	default:
		return 3
	}
}
