package clustering

import (
	"slices"
	"strings"
)

// DefaultLowPopularityThreshold is the popularity at or below which a track
// counts as low-played.
const DefaultLowPopularityThreshold = 35

// DuplicateKey returns the normalized name+artists signature of a track.
// Artist order does not matter.
func DuplicateKey(t Track) string {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = strings.ToLower(strings.TrimSpace(a))
	}
	slices.Sort(artists)
	return strings.ToLower(strings.TrimSpace(t.Name)) + "::" + strings.Join(artists, ",")
}

// DuplicateIDs returns the IDs of every track whose key was already seen.
// The first occurrence of a key is kept, so the result depends on input order.
func DuplicateIDs(tracks []Track) []string {
	seen := make(map[string]struct{}, len(tracks))
	var duplicates []string
	for _, t := range tracks {
		key := DuplicateKey(t)
		if _, ok := seen[key]; ok {
			duplicates = append(duplicates, t.ID)
			continue
		}
		seen[key] = struct{}{}
	}
	return duplicates
}

// LowPlayed returns the tracks with popularity at or below threshold.
func LowPlayed(tracks []Track, threshold float64) []Track {
	var out []Track
	for _, t := range tracks {
		if float64(t.Popularity) <= threshold {
			out = append(out, t)
		}
	}
	return out
}

// ClampThreshold limits a popularity threshold to [0, 100].
func ClampThreshold(v float64) float64 {
	return max(0, min(100, v))
}
