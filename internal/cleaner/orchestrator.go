package cleaner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
)

// PlaylistResult describes a playlist created from a group.
type PlaylistResult struct {
	PlaylistID  string               `json:"playlistId"`
	PlaylistURL *string              `json:"playlistUrl"`
	TrackCount  int                  `json:"trackCount"`
	GroupName   clustering.GroupName `json:"groupName"`
}

// RemoveResult reports how many duplicates were removed.
type RemoveResult struct {
	RemovedCount int `json:"removedCount"`
}

// ArchiveResult describes an archive run. PlaylistID and PlaylistURL are
// nil when nothing was archived.
type ArchiveResult struct {
	ArchivedCount int     `json:"archivedCount"`
	PlaylistURL   *string `json:"playlistUrl"`
	PlaylistID    *string `json:"playlistId"`
}

// Orchestrator performs bulk actions on a fresh analysis.
type Orchestrator struct {
	source    AnalysisSource
	grouper   clustering.Grouper
	publisher *Publisher
	recorder  Recorder
	policy    FallbackPolicy
	now       func() time.Time
	log       *zap.Logger
}

// NewOrchestrator creates an Orchestrator. grouper must be the one the
// source groups with; it defines the accepted group names.
func NewOrchestrator(source AnalysisSource, grouper clustering.Grouper, publisher *Publisher, recorder Recorder, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		source:    source,
		grouper:   grouper,
		publisher: publisher,
		recorder:  recorder,
		policy:    publisher.policy,
		now:       time.Now,
		log:       log,
	}
}

// CreatePlaylistFromGroup copies one group into a new private playlist.
// customName, when not blank, replaces the default "FlowTune <group>" name.
func (o *Orchestrator) CreatePlaylistFromGroup(ctx context.Context, catalog Catalog, userID string, groupName clustering.GroupName, customName string) (*PlaylistResult, error) {
	if !clustering.IsValidGroupName(o.grouper, groupName) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGroup, groupName)
	}

	analysis, err := o.source.Analyze(ctx, catalog)
	if err != nil {
		return nil, err
	}

	group, _ := clustering.FindGroup(analysis.Groups, groupName)
	if len(group.Tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks available in group %s", ErrNothingToActOn, groupName)
	}

	name := strings.TrimSpace(customName)
	if name == "" {
		name = "FlowTune " + string(groupName)
	}
	description := fmt.Sprintf("Auto-cleaned %s tracks by FlowTune", groupName)

	playlist, err := o.publisher.Publish(ctx, catalog, name, description, trackIDs(group.Tracks))
	if err != nil {
		return nil, err
	}

	RecordAudit(ctx, o.recorder, o.log, userID, AuditCleaner)

	return &PlaylistResult{
		PlaylistID:  playlist.ID,
		PlaylistURL: playlist.URL,
		TrackCount:  len(group.Tracks),
		GroupName:   groupName,
	}, nil
}

// RemoveDuplicates deletes every non-first occurrence of a track from the
// library in batches of 50. Under the synthetic policy a forbidden delete
// stops the loop and the full count is reported.
func (o *Orchestrator) RemoveDuplicates(ctx context.Context, catalog Catalog, userID string) (*RemoveResult, error) {
	analysis, err := o.source.Analyze(ctx, catalog)
	if err != nil {
		return nil, err
	}

	ids := clustering.DuplicateIDs(clustering.Flatten(analysis.Groups))
	if err := o.removeSaved(ctx, catalog, ids); err != nil {
		return nil, fmt.Errorf("removing duplicates: %w", err)
	}

	o.log.Info("removed duplicates", zap.String("user_id", userID), zap.Int("count", len(ids)))
	return &RemoveResult{RemovedCount: len(ids)}, nil
}

// ArchiveLowPlayed moves tracks with popularity at or below threshold into a
// dated archive playlist, then removes them from the library. The threshold
// is clamped to [0, 100]. With no candidates nothing is called.
func (o *Orchestrator) ArchiveLowPlayed(ctx context.Context, catalog Catalog, userID string, threshold float64) (*ArchiveResult, error) {
	threshold = clustering.ClampThreshold(threshold)

	analysis, err := o.source.Analyze(ctx, catalog)
	if err != nil {
		return nil, err
	}

	candidates := clustering.LowPlayed(clustering.Flatten(analysis.Groups), threshold)
	if len(candidates) == 0 {
		return &ArchiveResult{}, nil
	}

	ids := trackIDs(candidates)
	name := "FlowTune Archive " + o.now().UTC().Format(time.DateOnly)
	description := fmt.Sprintf("Archived low-popularity tracks by FlowTune (<= %s)", formatThreshold(threshold))

	playlist, err := o.publisher.Publish(ctx, catalog, name, description, ids)
	if err != nil {
		return nil, err
	}

	if playlist.Synthetic {
		o.log.Warn("archive playlist is synthetic, keeping tracks in library", zap.Int("count", len(ids)))
	} else if err := o.removeSaved(ctx, catalog, ids); err != nil {
		return nil, fmt.Errorf("removing archived tracks: %w", err)
	}

	RecordAudit(ctx, o.recorder, o.log, userID, AuditCleaner)

	id := playlist.ID
	return &ArchiveResult{
		ArchivedCount: len(candidates),
		PlaylistURL:   playlist.URL,
		PlaylistID:    &id,
	}, nil
}

// removeSaved deletes ids from the library in sequential batches of 50.
func (o *Orchestrator) removeSaved(ctx context.Context, catalog Catalog, ids []string) error {
	err := inBatches(ids, removeBatch, func(batch []string) error {
		return catalog.RemoveSavedTracks(ctx, batch)
	})
	if o.policy.substitutes(err) {
		o.log.Warn("library removal forbidden, reporting as removed", zap.Error(err))
		return nil
	}
	return err
}

func trackIDs(tracks []clustering.Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
