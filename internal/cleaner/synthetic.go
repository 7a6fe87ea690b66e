package cleaner

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
	"github.com/justestif/go-spotify-auto-cleaner/internal/spotify"
)

// Seeds for the synthetic library; fixed so repeated analyses agree.
const (
	syntheticSeed1 = 0x5eed
	syntheticSeed2 = 0xf10e
)

var syntheticTitles = []string{
	"Midnight Drive", "Golden Hour", "Paper Planes", "Slow Burn", "Neon Rain",
	"Static Hearts", "Open Road", "Glass Houses", "Low Tide", "First Light",
	"Echo Park", "Wildfire", "Blue Monday", "Satellite", "Northern Lines",
}

var syntheticArtists = []string{
	"The Vantage", "Lena Moss", "Quiet Harbor", "DJ Solace", "Marlow",
	"Ivory Tape", "Ruben Kade", "Sunroom", "Echo Vale",
}

// SyntheticLibrary builds a deterministic library of n tracks with a spread
// of popularity, one or two artists per track, add dates over the past
// years, and an exact duplicate of an earlier track every tenth item.
func SyntheticLibrary(n int) []clustering.Track {
	if n <= 0 {
		return []clustering.Track{}
	}

	rng := rand.New(rand.NewPCG(syntheticSeed1, syntheticSeed2))
	base := time.Date(2025, time.June, 30, 12, 0, 0, 0, time.UTC)

	tracks := make([]clustering.Track, n)
	for i := range tracks {
		id := fmt.Sprintf("synthetic%06d", i)
		t := clustering.Track{
			ID:         id,
			URI:        "spotify:track:" + id,
			DurationMs: 120_000 + rng.IntN(240_000),
			Popularity: rng.IntN(101),
			AddedAt:    base.Add(-time.Duration(i) * 61 * time.Hour),
		}

		if i > 0 && i%10 == 9 {
			src := tracks[rng.IntN(i)]
			t.Name = src.Name
			t.Artists = append([]string(nil), src.Artists...)
		} else {
			t.Name = fmt.Sprintf("%s %d", syntheticTitles[rng.IntN(len(syntheticTitles))], i+1)
			t.Artists = []string{syntheticArtists[rng.IntN(len(syntheticArtists))]}
			if rng.IntN(4) == 0 {
				t.Artists = append(t.Artists, syntheticArtists[rng.IntN(len(syntheticArtists))])
			}
		}

		tracks[i] = t
	}
	return tracks
}

// syntheticFeatures derives stable audio features from a track ID.
func syntheticFeatures(id string) spotify.Features {
	h := fnv.New64a()
	h.Write([]byte(id))
	rng := rand.New(rand.NewPCG(h.Sum64(), syntheticSeed2))

	return spotify.Features{
		Energy:       rng.Float32(),
		Valence:      rng.Float32(),
		Tempo:        60 + rng.Float32()*140,
		Acousticness: rng.Float32(),
	}
}
