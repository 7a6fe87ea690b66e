package eras

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/justestif/go-spotify-auto-cleaner/internal/cleaner"
	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
)

// MaxMoodClusters bounds the cluster count a caller may request.
const MaxMoodClusters = 8

// ErrInvalidClusterCount is returned for a cluster count outside 1..MaxMoodClusters.
var ErrInvalidClusterCount = errors.New("invalid cluster count")

// MoodResult is the outcome of a mood build.
type MoodResult struct {
	Eras         []clustering.MoodEra `json:"eras"`
	OutlierCount int                  `json:"outlierCount"` // Tracks that didn't fit any era
	TotalTracks  int                  `json:"totalTracks"`  // Tracks with audio features
}

// MoodBuilder clusters saved tracks into mood eras. It never mutates the library.
type MoodBuilder struct {
	fetcher   *cleaner.Fetcher
	maxTracks int
	log       *zap.Logger
}

// NewMoodBuilder creates a MoodBuilder. A non-positive maxTracks takes the
// Auto Cleaner default.
func NewMoodBuilder(fetcher *cleaner.Fetcher, maxTracks int, log *zap.Logger) *MoodBuilder {
	if maxTracks <= 0 {
		maxTracks = cleaner.DefaultMaxTracks
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MoodBuilder{fetcher: fetcher, maxTracks: maxTracks, log: log}
}

// Generate fetches the library with audio features and detects mood eras.
// numClusters of 0 uses the default.
func (b *MoodBuilder) Generate(ctx context.Context, catalog cleaner.Catalog, numClusters int) (*MoodResult, error) {
	cfg := clustering.DefaultMoodConfig()
	if numClusters != 0 {
		if numClusters < 1 || numClusters > MaxMoodClusters {
			return nil, fmt.Errorf("%w: %d (want 1-%d)", ErrInvalidClusterCount, numClusters, MaxMoodClusters)
		}
		cfg.NumClusters = numClusters
	}

	tracks, err := b.fetcher.FetchLibrary(ctx, catalog, b.maxTracks)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return &MoodResult{Eras: []clustering.MoodEra{}}, nil
	}

	tracks, err = b.fetcher.AttachAudioFeatures(ctx, catalog, tracks)
	if err != nil {
		return nil, err
	}

	moodEras, outliers := clustering.DetectMoodEras(tracks, cfg)
	if moodEras == nil {
		moodEras = []clustering.MoodEra{}
	}

	b.log.Info("mood eras detected",
		zap.Int("tracks", len(tracks)), zap.Int("eras", len(moodEras)), zap.Int("outliers", len(outliers)))

	return &MoodResult{
		Eras:         moodEras,
		OutlierCount: len(outliers),
		TotalTracks:  len(tracks),
	}, nil
}
