// Package clustering partitions a user's saved tracks into named groups,
// either by k-means over audio features or by popularity buckets.
package clustering

import (
	"time"
)

// Track represents a saved song with its metadata and audio features.
type Track struct {
	ID         string    `json:"id"`
	URI        string    `json:"uri"`
	Name       string    `json:"name"`
	Artists    []string  `json:"artists"`
	DurationMs int       `json:"durationMs"`
	Popularity int       `json:"popularity"`
	AddedAt    time.Time `json:"addedAt"`
	// Audio features (nil if not fetched or unavailable)
	Energy       *float32 `json:"energy,omitempty"`
	Valence      *float32 `json:"valence,omitempty"`
	Tempo        *float32 `json:"tempo,omitempty"`
	Acousticness *float32 `json:"acousticness,omitempty"`
}

// GroupName identifies one of the fixed semantic groups.
type GroupName string

// Audio-feature group names, in output order.
const (
	GroupHighEnergy GroupName = "High Energy"
	GroupChill      GroupName = "Chill"
	GroupEmotional  GroupName = "Emotional"
	GroupMixed      GroupName = "Mixed"
)

// Popularity bucket group names, in output order.
const (
	GroupMainstreamHits GroupName = "Mainstream Hits"
	GroupPopularTracks  GroupName = "Popular Tracks"
	GroupHiddenGems     GroupName = "Hidden Gems"
	GroupUnderground    GroupName = "Underground"
)

// Group is a named partition of the analyzed tracks.
type Group struct {
	Name   GroupName `json:"name"`
	Tracks []Track   `json:"tracks"`
}

// Flatten returns the tracks of all groups in group order.
// This is the traversal order used for duplicate and low-played detection.
func Flatten(groups []Group) []Track {
	n := 0
	for _, g := range groups {
		n += len(g.Tracks)
	}
	out := make([]Track, 0, n)
	for _, g := range groups {
		out = append(out, g.Tracks...)
	}
	return out
}

// FindGroup returns the group with the given name.
func FindGroup(groups []Group, name GroupName) (Group, bool) {
	for _, g := range groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// emptyGroups builds one empty group per name, preserving order.
func emptyGroups(names []GroupName) []Group {
	groups := make([]Group, len(names))
	for i, name := range names {
		groups[i] = Group{Name: name, Tracks: []Track{}}
	}
	return groups
}
