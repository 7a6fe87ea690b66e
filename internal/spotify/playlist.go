package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// Per-request limits of the mutation endpoints.
const (
	MaxTracksPerPlaylistAdd   = 100
	MaxTracksPerLibraryRemove = 50
)

// Playlist identifies a created playlist.
// URL is empty when the API did not return a web link.
type Playlist struct {
	ID  string
	URL string
}

// CreatePlaylist creates a playlist owned by ownerID.
func (c *Client) CreatePlaylist(ctx context.Context, ownerID, name, description string, public bool) (Playlist, error) {
	playlist, err := c.api.CreatePlaylistForUser(ctx, ownerID, name, description, public, false)
	if err != nil {
		return Playlist{}, fmt.Errorf("creating playlist %q: %w", name, classify(err))
	}

	return Playlist{
		ID:  playlist.ID.String(),
		URL: playlist.ExternalURLs["spotify"],
	}, nil
}

// AddTracksToPlaylist appends up to 100 tracks to a playlist in one request.
func (c *Client) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	if len(trackIDs) > MaxTracksPerPlaylistAdd {
		return fmt.Errorf("%d tracks exceeds batch limit %d", len(trackIDs), MaxTracksPerPlaylistAdd)
	}

	if _, err := c.api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), toIDs(trackIDs)...); err != nil {
		return fmt.Errorf("adding %d tracks to playlist %s: %w", len(trackIDs), playlistID, classify(err))
	}
	return nil
}

// RemoveSavedTracks removes up to 50 tracks from the user's library in one request.
func (c *Client) RemoveSavedTracks(ctx context.Context, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	if len(trackIDs) > MaxTracksPerLibraryRemove {
		return fmt.Errorf("%d tracks exceeds batch limit %d", len(trackIDs), MaxTracksPerLibraryRemove)
	}

	if err := c.api.RemoveTracksFromLibrary(ctx, toIDs(trackIDs)...); err != nil {
		return fmt.Errorf("removing %d saved tracks: %w", len(trackIDs), classify(err))
	}
	return nil
}
