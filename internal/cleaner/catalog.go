// Package cleaner analyzes a user's saved tracks and performs bulk cleanup
// actions on them: grouped playlists, duplicate removal and archiving of
// low-popularity tracks.
package cleaner

import (
	"context"
	"errors"
	"fmt"

	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
	"github.com/justestif/go-spotify-auto-cleaner/internal/spotify"
)

// Catalog is the remote track library the cleaner pages through and mutates.
// *spotify.Client implements it.
type Catalog interface {
	SavedTracks(ctx context.Context, offset, limit int) ([]clustering.Track, error)
	AudioFeatures(ctx context.Context, ids []string) (map[string]spotify.Features, error)
	CurrentUserID(ctx context.Context) (string, error)
	CreatePlaylist(ctx context.Context, ownerID, name, description string, public bool) (spotify.Playlist, error)
	AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error
	RemoveSavedTracks(ctx context.Context, trackIDs []string) error
}

var _ Catalog = (*spotify.Client)(nil)

// Client-facing errors.
var (
	// ErrInvalidGroup is returned for a group name outside the active enumeration.
	ErrInvalidGroup = errors.New("invalid group name")
	// ErrInvalidYear is returned for a year that is not four digits.
	ErrInvalidYear = errors.New("invalid year")
	// ErrNothingToActOn is returned when the requested group or era is empty.
	ErrNothingToActOn = errors.New("nothing to act on")
)

// FallbackPolicy decides what happens when the catalog answers 403.
type FallbackPolicy string

const (
	// FallbackSynthetic substitutes synthetic data or a synthetic success.
	FallbackSynthetic FallbackPolicy = "synthetic"
	// FallbackStrict propagates the permission error.
	FallbackStrict FallbackPolicy = "strict"
)

// ParseFallbackPolicy validates a policy string.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch FallbackPolicy(s) {
	case FallbackSynthetic, FallbackStrict:
		return FallbackPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown permission fallback %q (want %q or %q)", s, FallbackSynthetic, FallbackStrict)
	}
}

// substitutes reports whether err should be replaced by synthetic data.
func (p FallbackPolicy) substitutes(err error) bool {
	return p == FallbackSynthetic && errors.Is(err, spotify.ErrPermissionDenied)
}

// Batch sizes of the catalog endpoints.
const (
	pageSize     = spotify.MaxSavedTracksPerPage
	featureBatch = spotify.MaxAudioFeaturesPerRequest
	addBatch     = spotify.MaxTracksPerPlaylistAdd
	removeBatch  = spotify.MaxTracksPerLibraryRemove
)

// inBatches calls fn for consecutive chunks of ids, stopping at the first error.
func inBatches(ids []string, size int, fn func(batch []string) error) error {
	for i := 0; i < len(ids); i += size {
		end := min(i+size, len(ids))
		if err := fn(ids[i:end]); err != nil {
			return fmt.Errorf("batch %d-%d of %d: %w", i+1, end, len(ids), err)
		}
	}
	return nil
}
