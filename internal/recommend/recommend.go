// Package recommend suggests tracks outside a user's library, based on the
// artists the user listens to most and the artists related to them.
package recommend

import (
	"cmp"
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
	"github.com/justestif/go-spotify-auto-cleaner/internal/spotify"
)

// Limits of one recommendation run.
const (
	MaxRecommendations = 30
	seedArtists        = 5  // top artists used as seeds
	relatedPerSeed     = 5  // related artists kept per seed
	maxSourceArtists   = 15 // artists whose top tracks are read
	savedFilterSize    = spotify.MaxSavedTracksPerPage
)

// Source is the listening history and catalog the engine reads.
// *spotify.Client implements it.
type Source interface {
	SavedTracks(ctx context.Context, offset, limit int) ([]clustering.Track, error)
	TopArtists(ctx context.Context, r spotify.TimeRange) ([]spotify.Artist, error)
	TopTracks(ctx context.Context, r spotify.TimeRange) ([]spotify.TrackSummary, error)
	RecentlyPlayed(ctx context.Context) ([]spotify.TrackSummary, error)
	RelatedArtists(ctx context.Context, artistID string) ([]spotify.Artist, error)
	ArtistTopTracks(ctx context.Context, artistID string) ([]spotify.TrackSummary, error)
}

var _ Source = (*spotify.Client)(nil)

// Recommendation is one suggested track.
type Recommendation struct {
	TrackID     string  `json:"trackId"`
	Name        string  `json:"name"`
	Artist      string  `json:"artist"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

// Engine builds a taste profile and ranks candidate tracks against it.
type Engine struct {
	log *zap.Logger
	now func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log, now: time.Now}
}

// profile is what the engine knows about the user's taste.
type profile struct {
	topArtists []spotify.Artist
	affinity   map[string]int // by artist name
	genres     map[string]int
	heard      map[string]bool // top and recently played track IDs
	saved      map[string]bool
}

// Recommend returns up to MaxRecommendations tracks, best first.
//
// A failed history or catalog call is logged and treated as empty, so a
// partial profile still yields suggestions. Cancellation and an unusable
// token abort the run.
func (e *Engine) Recommend(ctx context.Context, src Source) ([]Recommendation, error) {
	p, err := e.buildProfile(ctx, src)
	if err != nil {
		return nil, err
	}
	e.log.Info("taste profile built",
		zap.Int("artists", len(p.affinity)),
		zap.Int("genres", len(p.genres)),
		zap.Int("heard_tracks", len(p.heard)))

	candidates, err := e.candidates(ctx, src, p)
	if err != nil {
		return nil, err
	}
	e.log.Info("candidates generated", zap.Int("candidates", len(candidates)))

	year := e.now().Year()
	recs := make([]Recommendation, len(candidates))
	for i, t := range candidates {
		recs[i] = score(t, p, year)
	}
	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs, nil
}

func (e *Engine) buildProfile(ctx context.Context, src Source) (*profile, error) {
	var (
		topArtists []spotify.Artist
		topTracks  []spotify.TrackSummary
		recent     []spotify.TrackSummary
		saved      []clustering.Track
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		topArtists, err = e.topArtists(gctx, src)
		return err
	})
	g.Go(func() (err error) {
		topTracks, err = e.topTracks(gctx, src)
		return err
	})
	g.Go(func() (err error) {
		recent, err = src.RecentlyPlayed(gctx)
		recent, err = tolerate(e.log, recent, err, "recently played")
		return err
	})
	g.Go(func() (err error) {
		saved, err = src.SavedTracks(gctx, 0, savedFilterSize)
		saved, err = tolerate(e.log, saved, err, "saved tracks")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p := &profile{
		topArtists: topArtists,
		affinity:   make(map[string]int),
		genres:     make(map[string]int),
		heard:      make(map[string]bool),
		saved:      make(map[string]bool, len(saved)),
	}
	for _, a := range topArtists {
		p.affinity[a.Name] += 2
		for _, genre := range a.Genres {
			p.genres[genre]++
		}
	}
	for _, t := range slices.Concat(topTracks, recent) {
		p.heard[t.ID] = true
		for _, a := range t.Artists {
			p.affinity[a.Name]++
		}
	}
	for _, t := range saved {
		p.saved[t.ID] = true
	}
	return p, nil
}

// topArtists merges the short and medium term lists, first occurrence wins.
func (e *Engine) topArtists(ctx context.Context, src Source) ([]spotify.Artist, error) {
	var out []spotify.Artist
	seen := make(map[string]bool)
	for _, r := range []spotify.TimeRange{spotify.ShortTerm, spotify.MediumTerm} {
		artists, err := src.TopArtists(ctx, r)
		if artists, err = tolerate(e.log, artists, err, "top artists "+string(r)); err != nil {
			return nil, err
		}
		for _, a := range artists {
			if !seen[a.ID] {
				seen[a.ID] = true
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func (e *Engine) topTracks(ctx context.Context, src Source) ([]spotify.TrackSummary, error) {
	var out []spotify.TrackSummary
	seen := make(map[string]bool)
	for _, r := range []spotify.TimeRange{spotify.ShortTerm, spotify.MediumTerm} {
		tracks, err := src.TopTracks(ctx, r)
		if tracks, err = tolerate(e.log, tracks, err, "top tracks "+string(r)); err != nil {
			return nil, err
		}
		for _, t := range tracks {
			if !seen[t.ID] {
				seen[t.ID] = true
				out = append(out, t)
			}
		}
	}
	return out, nil
}

// candidates reads the top tracks of the seed artists and their related
// artists, dropping tracks the user saved or has been listening to.
func (e *Engine) candidates(ctx context.Context, src Source, p *profile) ([]spotify.TrackSummary, error) {
	seeds := p.topArtists[:min(seedArtists, len(p.topArtists))]

	sources := slices.Clone(seeds)
	seen := make(map[string]bool)
	for _, seed := range seeds {
		seen[seed.ID] = true
	}
	for _, seed := range seeds {
		related, err := src.RelatedArtists(ctx, seed.ID)
		if related, err = tolerate(e.log, related, err, "related artists"); err != nil {
			return nil, err
		}
		for _, a := range related[:min(relatedPerSeed, len(related))] {
			if !seen[a.ID] {
				seen[a.ID] = true
				sources = append(sources, a)
			}
		}
	}
	sources = sources[:min(maxSourceArtists, len(sources))]

	var out []spotify.TrackSummary
	picked := make(map[string]bool)
	for _, artist := range sources {
		tracks, err := src.ArtistTopTracks(ctx, artist.ID)
		if tracks, err = tolerate(e.log, tracks, err, "artist top tracks"); err != nil {
			return nil, err
		}
		for _, t := range tracks {
			if t.ID == "" || p.saved[t.ID] || p.heard[t.ID] || picked[t.ID] {
				continue
			}
			picked[t.ID] = true
			out = append(out, t)
		}
	}
	return out, nil
}

// tolerate swallows err unless the run cannot continue.
func tolerate[T any](log *zap.Logger, v []T, err error, what string) ([]T, error) {
	if err == nil {
		return v, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, spotify.ErrUnauthorized) {
		return nil, err
	}
	log.Warn("skipping "+what, zap.Error(err))
	return nil, nil
}

// score rates t against the profile: artist affinity, popularity and recency.
func score(t spotify.TrackSummary, p *profile, year int) Recommendation {
	var s float64
	var reasons []string

	matched := false
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
		if aff := p.affinity[a.Name]; aff > 0 {
			matched = true
			s += min(float64(aff)*0.1, 0.3)
		}
	}
	if matched {
		reasons = append(reasons, "because you frequently listen to "+t.Artists[0].Name)
	}

	s += float64(t.Popularity) / 100 * 0.1

	if t.ReleaseYear > 0 {
		switch age := year - t.ReleaseYear; {
		case age <= 2:
			s += 0.2
			reasons = append(reasons, "as a recent release")
		case age <= 5:
			s += 0.1
		}
	}

	explanation := "Based on artists related to your favorites"
	if len(reasons) > 0 {
		explanation = "Recommended " + strings.Join(reasons, " and ")
	}

	return Recommendation{
		TrackID:     t.ID,
		Name:        t.Name,
		Artist:      strings.Join(names, ", "),
		Score:       math.Round(s*1000) / 1000,
		Explanation: explanation,
	}
}
