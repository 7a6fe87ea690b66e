package cleaner

import (
	"context"

	"go.uber.org/zap"

	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
)

// DefaultMaxTracks caps how many saved tracks one analysis reads.
const DefaultMaxTracks = 250

// Analysis is the grouped view of a user's library.
type Analysis struct {
	Groups              []clustering.Group `json:"groups"`
	TotalTracks         int                `json:"totalTracks"`
	DuplicateCandidates int                `json:"duplicateCandidates"`
	LowPlayedCandidates int                `json:"lowPlayedCandidates"`
}

// AnalysisSource produces a fresh Analysis. Bulk actions call it before
// acting, so every action sees the library as it is now.
type AnalysisSource interface {
	Analyze(ctx context.Context, catalog Catalog) (*Analysis, error)
}

// AnalyzerConfig configures an Analyzer.
type AnalyzerConfig struct {
	MaxTracks              int     // Fetch cap (default: 250)
	LowPopularityThreshold float64 // Low-played cutoff for the summary count (default: 35)
}

// Analyzer runs fetch, group and detection for one request.
type Analyzer struct {
	fetcher *Fetcher
	grouper clustering.Grouper
	cfg     AnalyzerConfig
	log     *zap.Logger
}

// DefaultAnalyzerConfig returns the recommended default configuration.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		MaxTracks:              DefaultMaxTracks,
		LowPopularityThreshold: clustering.DefaultLowPopularityThreshold,
	}
}

// NewAnalyzer creates an Analyzer. A non-positive MaxTracks takes the default.
func NewAnalyzer(fetcher *Fetcher, grouper clustering.Grouper, cfg AnalyzerConfig, log *zap.Logger) *Analyzer {
	if cfg.MaxTracks <= 0 {
		cfg.MaxTracks = DefaultMaxTracks
	}
	cfg.LowPopularityThreshold = clustering.ClampThreshold(cfg.LowPopularityThreshold)
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{fetcher: fetcher, grouper: grouper, cfg: cfg, log: log}
}

// Grouper returns the grouping algorithm in use.
func (a *Analyzer) Grouper() clustering.Grouper {
	return a.grouper
}

// Analyze fetches the library and groups it.
// TotalTracks counts the grouped tracks, so tracks dropped for lacking
// audio features are not included.
func (a *Analyzer) Analyze(ctx context.Context, catalog Catalog) (*Analysis, error) {
	tracks, err := a.fetcher.FetchLibrary(ctx, catalog, a.cfg.MaxTracks)
	if err != nil {
		return nil, err
	}

	if len(tracks) == 0 {
		a.log.Info("library is empty, returning empty analysis")
		return &Analysis{Groups: a.grouper.Group(nil)}, nil
	}

	fetched := len(tracks)
	if a.grouper.NeedsAudioFeatures() {
		tracks, err = a.fetcher.AttachAudioFeatures(ctx, catalog, tracks)
		if err != nil {
			return nil, err
		}
	}

	groups := a.grouper.Group(tracks)
	a.log.Debug("grouped library", zap.String("summary", clustering.FormatGroupSummary(groups)))

	all := clustering.Flatten(groups)
	analysis := &Analysis{
		Groups:              groups,
		TotalTracks:         len(all),
		DuplicateCandidates: len(clustering.DuplicateIDs(all)),
		LowPlayedCandidates: len(clustering.LowPlayed(all, a.cfg.LowPopularityThreshold)),
	}

	a.log.Info("analysis complete",
		zap.Int("fetched_tracks", fetched),
		zap.Int("total_tracks", analysis.TotalTracks),
		zap.Int("duplicates", analysis.DuplicateCandidates),
		zap.Int("low_played", analysis.LowPlayedCandidates))

	return analysis, nil
}

var _ AnalysisSource = (*Analyzer)(nil)
