package spotify

import (
	"context"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
)

// MaxSavedTracksPerPage is the largest page the saved-tracks endpoint serves.
const MaxSavedTracksPerPage = 50

// SavedTracks returns one page of the user's saved tracks.
// Items are returned as-is, including ones without an ID (local files),
// so callers can detect the end of the library from the page length.
func (c *Client) SavedTracks(ctx context.Context, offset, limit int) ([]clustering.Track, error) {
	if limit <= 0 || limit > MaxSavedTracksPerPage {
		return nil, fmt.Errorf("page size %d out of range 1-%d", limit, MaxSavedTracksPerPage)
	}

	page, err := c.api.CurrentUsersTracks(ctx, spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		return nil, fmt.Errorf("fetching saved tracks (offset %d): %w", offset, classify(err))
	}

	tracks := make([]clustering.Track, len(page.Tracks))
	for i, saved := range page.Tracks {
		tracks[i] = convertTrack(saved)
	}
	return tracks, nil
}

// convertTrack converts a Spotify SavedTrack to clustering.Track.
func convertTrack(saved spotify.SavedTrack) clustering.Track {
	artists := make([]string, len(saved.Artists))
	for i, a := range saved.Artists {
		artists[i] = a.Name
	}

	// Parse AddedAt timestamp, use zero value on failure
	addedAt, _ := time.Parse(time.RFC3339, saved.AddedAt)

	return clustering.Track{
		ID:         saved.ID.String(),
		URI:        string(saved.URI),
		Name:       saved.Name,
		Artists:    artists,
		DurationMs: int(saved.Duration),
		Popularity: int(saved.Popularity),
		AddedAt:    addedAt,
	}
}
