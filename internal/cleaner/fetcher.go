package cleaner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
	"github.com/justestif/go-spotify-auto-cleaner/internal/spotify"
)

// Fetcher pages through a catalog's saved tracks and attaches audio features.
type Fetcher struct {
	policy FallbackPolicy
	log    *zap.Logger
}

// NewFetcher creates a Fetcher. A nil logger disables logging.
func NewFetcher(policy FallbackPolicy, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{policy: policy, log: log}
}

// Policy returns the 403 strategy the fetcher was built with.
func (f *Fetcher) Policy() FallbackPolicy {
	return f.policy
}

// FetchLibrary returns up to limit saved tracks, newest first as served.
// Paging stops at the first short page. Items without an ID or URI are
// skipped. When the catalog answers 403 and the policy allows it, a
// synthetic library of limit tracks is returned instead.
func (f *Fetcher) FetchLibrary(ctx context.Context, catalog Catalog, limit int) ([]clustering.Track, error) {
	var tracks []clustering.Track

	for offset := 0; len(tracks) < limit; offset += pageSize {
		page, err := catalog.SavedTracks(ctx, offset, pageSize)
		if err != nil {
			if f.policy.substitutes(err) {
				f.log.Warn("saved tracks forbidden, substituting synthetic library",
					zap.Int("limit", limit), zap.Error(err))
				return SyntheticLibrary(limit), nil
			}
			return nil, fmt.Errorf("fetching saved tracks: %w", err)
		}

		for _, t := range page {
			if t.ID == "" || t.URI == "" {
				continue
			}
			tracks = append(tracks, t)
		}

		f.log.Debug("fetched saved tracks page", zap.Int("offset", offset), zap.Int("items", len(page)), zap.Int("total", len(tracks)))

		if len(page) < pageSize {
			break
		}
	}

	if len(tracks) > limit {
		tracks = tracks[:limit]
	}

	f.log.Info("fetched library", zap.Int("tracks", len(tracks)), zap.Int("limit", limit))
	return tracks, nil
}

// AttachAudioFeatures requests features in batches of 100 and returns the
// tracks that received them, in input order. Tracks the catalog has no
// features for are dropped. After a 403 under the synthetic policy, the
// remaining tracks get deterministic synthetic features.
func (f *Fetcher) AttachAudioFeatures(ctx context.Context, catalog Catalog, tracks []clustering.Track) ([]clustering.Track, error) {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}

	features := make(map[string]spotify.Features, len(ids))
	synthetic := false
	err := inBatches(ids, featureBatch, func(batch []string) error {
		if synthetic {
			for _, id := range batch {
				features[id] = syntheticFeatures(id)
			}
			return nil
		}

		got, err := catalog.AudioFeatures(ctx, batch)
		if err != nil {
			if !f.policy.substitutes(err) {
				return err
			}
			f.log.Warn("audio features forbidden, substituting synthetic features", zap.Error(err))
			synthetic = true
			for _, id := range batch {
				features[id] = syntheticFeatures(id)
			}
			return nil
		}
		for id, feat := range got {
			features[id] = feat
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching audio features: %w", err)
	}

	out := make([]clustering.Track, 0, len(tracks))
	for _, t := range tracks {
		feat, ok := features[t.ID]
		if !ok {
			continue
		}
		out = append(out, withFeatures(t, feat))
	}

	f.log.Info("attached audio features", zap.Int("requested", len(tracks)), zap.Int("received", len(out)))
	return out, nil
}

// withFeatures returns a copy of t carrying the given features.
func withFeatures(t clustering.Track, f spotify.Features) clustering.Track {
	t.Energy = &f.Energy
	t.Valence = &f.Valence
	t.Tempo = &f.Tempo
	t.Acousticness = &f.Acousticness
	return t
}
