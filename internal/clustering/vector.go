package clustering

import (
	"github.com/muesli/clusters"
)

// maxTempo is the BPM mapped to 1.0 when normalizing tempo.
const maxTempo = 200

// NormalizeTempo rescales a BPM value so it does not dominate Euclidean distance.
// Values above maxTempo saturate at 1; nothing else is clamped.
func NormalizeTempo(tempo float64) float64 {
	return min(tempo/maxTempo, 1)
}

// HasAudioFeatures checks if a track has the features required for clustering.
func HasAudioFeatures(t *Track) bool {
	return t.Energy != nil &&
		t.Valence != nil &&
		t.Tempo != nil &&
		t.Acousticness != nil
}

// ToVector maps a track to [energy, valence, normalized tempo, acousticness].
// Missing features count as zero.
func ToVector(t Track) clusters.Coordinates {
	return clusters.Coordinates{
		value(t.Energy),
		value(t.Valence),
		NormalizeTempo(value(t.Tempo)),
		value(t.Acousticness),
	}
}

// ToScalar maps a track to its popularity, unchanged.
func ToScalar(t Track) float64 {
	return float64(t.Popularity)
}

func value(f *float32) float64 {
	if f == nil {
		return 0
	}
	return float64(*f)
}
