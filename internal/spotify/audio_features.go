package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// MaxAudioFeaturesPerRequest is the largest id batch the audio-features endpoint accepts.
const MaxAudioFeaturesPerRequest = 100

// Features holds the audio descriptors used for grouping.
type Features struct {
	Energy       float32
	Valence      float32
	Tempo        float32
	Acousticness float32
}

// AudioFeatures fetches features for up to 100 track IDs.
// Tracks the API has no features for are absent from the result.
func (c *Client) AudioFeatures(ctx context.Context, ids []string) (map[string]Features, error) {
	if len(ids) > MaxAudioFeaturesPerRequest {
		return nil, fmt.Errorf("%d ids exceeds batch limit %d", len(ids), MaxAudioFeaturesPerRequest)
	}
	if len(ids) == 0 {
		return map[string]Features{}, nil
	}

	features, err := c.api.GetAudioFeatures(ctx, toIDs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("fetching audio features: %w", classify(err))
	}

	out := make(map[string]Features, len(features))
	for _, f := range features {
		if f == nil {
			continue // Track has no audio features
		}
		out[f.ID.String()] = convertFeatures(f)
	}
	return out, nil
}

func convertFeatures(f *spotify.AudioFeatures) Features {
	return Features{
		Energy:       f.Energy,
		Valence:      f.Valence,
		Tempo:        f.Tempo,
		Acousticness: f.Acousticness,
	}
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}
