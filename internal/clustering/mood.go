package clustering

import (
	"fmt"
	"slices"
	"time"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// MoodConfig holds mood-based clustering parameters.
type MoodConfig struct {
	NumClusters    int // Number of clusters to create (default: 3)
	MinClusterSize int // Minimum tracks per era (smaller clusters become outliers)
}

// DefaultMoodConfig returns the recommended default configuration.
func DefaultMoodConfig() MoodConfig {
	return MoodConfig{
		NumClusters:    3,
		MinClusterSize: 3,
	}
}

// MoodEra represents a cluster of tracks grouped by mood/vibe.
type MoodEra struct {
	Name        string             `json:"name"` // "Upbeat Party: Jan 15, 2024 - Feb 3, 2024"
	Mood        string             `json:"mood"` // "Upbeat Party"
	Description string             `json:"description"`
	Tracks      []Track            `json:"tracks"`    // Sorted by AddedAt
	Centroid    map[string]float32 `json:"centroid"`  // Average feature values
	StartDate   time.Time          `json:"startDate"` // Earliest track add date
	EndDate     time.Time          `json:"endDate"`   // Latest track add date
}

// featureNames matches the dimension order of ToVector.
var featureNames = []string{"energy", "valence", "tempo", "acousticness"}

// DetectMoodEras groups tracks by audio feature similarity using randomized
// k-means (k-means++ seeding), unlike the deterministic CentroidGrouper.
// Tracks missing audio features, and clusters smaller than MinClusterSize,
// are returned as outliers.
func DetectMoodEras(tracks []Track, cfg MoodConfig) ([]MoodEra, []Track) {
	if len(tracks) == 0 {
		return nil, nil
	}

	if cfg.NumClusters <= 0 {
		cfg.NumClusters = DefaultMoodConfig().NumClusters
	}

	var validTracks []*Track
	var missingFeatures []Track

	for i := range tracks {
		t := &tracks[i]
		if HasAudioFeatures(t) {
			validTracks = append(validTracks, t)
		} else {
			missingFeatures = append(missingFeatures, *t)
		}
	}

	allOutliers := func() []Track {
		outliers := make([]Track, 0, len(tracks))
		for _, t := range validTracks {
			outliers = append(outliers, *t)
		}
		return append(outliers, missingFeatures...)
	}

	// If fewer valid tracks than clusters, everything is an outlier
	if len(validTracks) < cfg.NumClusters {
		return nil, allOutliers()
	}

	var obs clusters.Observations
	for _, t := range validTracks {
		obs = append(obs, trackObservation{track: t, coords: ToVector(*t)})
	}

	km := kmeans.New()
	result, err := km.Partition(obs, cfg.NumClusters)
	if err != nil {
		return nil, allOutliers()
	}

	var eras []MoodEra
	var outliers []Track

	for _, cluster := range result {
		var clusterTracks []Track
		for _, o := range cluster.Observations {
			if to, ok := o.(trackObservation); ok {
				clusterTracks = append(clusterTracks, *to.track)
			}
		}

		if len(clusterTracks) < cfg.MinClusterSize {
			outliers = append(outliers, clusterTracks...)
			continue
		}

		slices.SortFunc(clusterTracks, func(a, b Track) int {
			return a.AddedAt.Compare(b.AddedAt)
		})

		centroid := make(map[string]float32, len(featureNames))
		for i, name := range featureNames {
			centroid[name] = float32(cluster.Center[i])
		}

		startDate := clusterTracks[0].AddedAt
		endDate := clusterTracks[len(clusterTracks)-1].AddedAt
		moodName, description := describeMood(centroid)

		eras = append(eras, MoodEra{
			Name:        formatEraName(moodName, startDate, endDate),
			Mood:        moodName,
			Description: description,
			Tracks:      clusterTracks,
			Centroid:    centroid,
			StartDate:   startDate,
			EndDate:     endDate,
		})
	}

	outliers = append(outliers, missingFeatures...)

	// Most recent first
	slices.SortFunc(eras, func(a, b MoodEra) int {
		return b.StartDate.Compare(a.StartDate)
	})

	return eras, outliers
}

// formatEraName combines a mood name with date range.
func formatEraName(moodName string, start, end time.Time) string {
	const dateFormat = "Jan 2, 2006"
	startStr := start.Format(dateFormat)
	endStr := end.Format(dateFormat)

	if startStr == endStr {
		return fmt.Sprintf("%s: %s", moodName, startStr)
	}
	return fmt.Sprintf("%s: %s - %s", moodName, startStr, endStr)
}
