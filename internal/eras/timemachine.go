// Package eras builds time-based and mood-based views of a user's library:
// the Time Machine groups saved tracks by the year they were added, and the
// Mood Builder clusters them into listening moods.
package eras

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/justestif/go-spotify-auto-cleaner/internal/cleaner"
	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
)

// DefaultTimeMachineMaxTracks caps how many saved tracks the Time Machine reads.
const DefaultTimeMachineMaxTracks = 1000

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// TimeMachineAnalysis lists a user's library by the year tracks were added.
type TimeMachineAnalysis struct {
	UserID              string               `json:"userId"`
	TotalTracksAnalyzed int                  `json:"totalTracksAnalyzed"`
	Eras                []clustering.YearEra `json:"eras"`
}

// EraPlaylistResult describes a playlist created from one year.
type EraPlaylistResult struct {
	PlaylistID  string  `json:"playlistId"`
	PlaylistURL *string `json:"playlistUrl"`
	TrackCount  int     `json:"trackCount"`
	Year        string  `json:"year"`
}

// TimeMachine groups saved tracks by year and turns a year into a playlist.
type TimeMachine struct {
	fetcher   *cleaner.Fetcher
	publisher *cleaner.Publisher
	recorder  cleaner.Recorder
	maxTracks int
	log       *zap.Logger
}

// NewTimeMachine creates a TimeMachine. A non-positive maxTracks takes the default.
func NewTimeMachine(fetcher *cleaner.Fetcher, publisher *cleaner.Publisher, recorder cleaner.Recorder, maxTracks int, log *zap.Logger) *TimeMachine {
	if maxTracks <= 0 {
		maxTracks = DefaultTimeMachineMaxTracks
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TimeMachine{
		fetcher:   fetcher,
		publisher: publisher,
		recorder:  recorder,
		maxTracks: maxTracks,
		log:       log,
	}
}

// Analyze fetches the library and partitions it by UTC year added.
// Eras run newest year first; tracks inside an era newest first.
func (tm *TimeMachine) Analyze(ctx context.Context, catalog cleaner.Catalog, userID string) (*TimeMachineAnalysis, error) {
	tracks, err := tm.fetcher.FetchLibrary(ctx, catalog, tm.maxTracks)
	if err != nil {
		return nil, err
	}

	eras := clustering.GroupByYear(tracks)
	total := 0
	for _, era := range eras {
		total += len(era.Tracks)
	}

	tm.log.Info("time machine analysis complete", zap.Int("tracks", total), zap.Int("eras", len(eras)))

	return &TimeMachineAnalysis{
		UserID:              userID,
		TotalTracksAnalyzed: total,
		Eras:                eras,
	}, nil
}

// CreateEraPlaylist copies the tracks added in year into a new private playlist.
// year must be four digits; customName, when not blank, replaces the default name.
func (tm *TimeMachine) CreateEraPlaylist(ctx context.Context, catalog cleaner.Catalog, userID, year, customName string) (*EraPlaylistResult, error) {
	if !yearPattern.MatchString(year) {
		return nil, fmt.Errorf("%w: %q", cleaner.ErrInvalidYear, year)
	}

	analysis, err := tm.Analyze(ctx, catalog, userID)
	if err != nil {
		return nil, err
	}

	var era clustering.YearEra
	for _, e := range analysis.Eras {
		if e.Year == year {
			era = e
			break
		}
	}
	if len(era.Tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks available in the %s era", cleaner.ErrNothingToActOn, year)
	}

	name := strings.TrimSpace(customName)
	if name == "" {
		name = fmt.Sprintf("FlowTune: %s Era", year)
	}
	description := fmt.Sprintf("Your favorite discoveries from %s, generated by FlowTune's Time Machine.", year)

	ids := make([]string, len(era.Tracks))
	for i, t := range era.Tracks {
		ids[i] = t.ID
	}

	playlist, err := tm.publisher.Publish(ctx, catalog, name, description, ids)
	if err != nil {
		return nil, err
	}

	cleaner.RecordAudit(ctx, tm.recorder, tm.log, userID, cleaner.AuditTimeMachine)

	return &EraPlaylistResult{
		PlaylistID:  playlist.ID,
		PlaylistURL: playlist.URL,
		TrackCount:  len(era.Tracks),
		Year:        year,
	}, nil
}
