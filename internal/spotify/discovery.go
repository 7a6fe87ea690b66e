package spotify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/zmb3/spotify/v2"
)

// Page sizes of the listening-history endpoints.
const (
	MaxTopItems       = 50
	MaxRecentlyPlayed = 50
)

// TimeRange selects the period a top list covers.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"  // about 4 weeks
	MediumTerm TimeRange = "medium_term" // about 6 months
)

// ArtistRef is an artist credited on a track.
type ArtistRef struct {
	ID   string
	Name string
}

// Artist is an artist with its genres.
type Artist struct {
	ID         string
	Name       string
	Genres     []string
	Popularity int
}

// TrackSummary is a track outside the user's library.
// ReleaseYear is 0 when unknown.
type TrackSummary struct {
	ID          string
	Name        string
	Artists     []ArtistRef
	Popularity  int
	ReleaseYear int
}

// TopArtists returns the user's most listened artists over r.
func (c *Client) TopArtists(ctx context.Context, r TimeRange) ([]Artist, error) {
	page, err := c.api.CurrentUsersTopArtists(ctx, spotify.Timerange(spotify.Range(r)), spotify.Limit(MaxTopItems))
	if err != nil {
		return nil, fmt.Errorf("fetching top artists (%s): %w", r, classify(err))
	}
	return convertArtists(page.Artists), nil
}

// TopTracks returns the user's most listened tracks over r.
func (c *Client) TopTracks(ctx context.Context, r TimeRange) ([]TrackSummary, error) {
	page, err := c.api.CurrentUsersTopTracks(ctx, spotify.Timerange(spotify.Range(r)), spotify.Limit(MaxTopItems))
	if err != nil {
		return nil, fmt.Errorf("fetching top tracks (%s): %w", r, classify(err))
	}
	return convertFullTracks(page.Tracks), nil
}

// RecentlyPlayed returns the user's last played tracks, newest first.
// Recently played items carry no popularity or album.
func (c *Client) RecentlyPlayed(ctx context.Context) ([]TrackSummary, error) {
	items, err := c.api.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: MaxRecentlyPlayed})
	if err != nil {
		return nil, fmt.Errorf("fetching recently played: %w", classify(err))
	}

	out := make([]TrackSummary, len(items))
	for i, item := range items {
		out[i] = TrackSummary{
			ID:      item.Track.ID.String(),
			Name:    item.Track.Name,
			Artists: artistRefs(item.Track.Artists),
		}
	}
	return out, nil
}

// RelatedArtists returns artists similar to artistID.
func (c *Client) RelatedArtists(ctx context.Context, artistID string) ([]Artist, error) {
	artists, err := c.api.GetRelatedArtists(ctx, spotify.ID(artistID))
	if err != nil {
		return nil, fmt.Errorf("fetching artists related to %s: %w", artistID, classify(err))
	}
	return convertArtists(artists), nil
}

// ArtistTopTracks returns an artist's most popular tracks in the user's market.
func (c *Client) ArtistTopTracks(ctx context.Context, artistID string) ([]TrackSummary, error) {
	tracks, err := c.api.GetArtistsTopTracks(ctx, spotify.ID(artistID), "from_token")
	if err != nil {
		return nil, fmt.Errorf("fetching top tracks of %s: %w", artistID, classify(err))
	}
	return convertFullTracks(tracks), nil
}

func convertArtists(artists []spotify.FullArtist) []Artist {
	out := make([]Artist, len(artists))
	for i, a := range artists {
		out[i] = Artist{
			ID:         a.ID.String(),
			Name:       a.Name,
			Genres:     a.Genres,
			Popularity: int(a.Popularity),
		}
	}
	return out
}

func convertFullTracks(tracks []spotify.FullTrack) []TrackSummary {
	out := make([]TrackSummary, len(tracks))
	for i, t := range tracks {
		out[i] = TrackSummary{
			ID:          t.ID.String(),
			Name:        t.Name,
			Artists:     artistRefs(t.Artists),
			Popularity:  int(t.Popularity),
			ReleaseYear: releaseYear(t.Album.ReleaseDate),
		}
	}
	return out
}

// releaseYear reads the year of a "YYYY", "YYYY-MM" or "YYYY-MM-DD" date.
func releaseYear(date string) int {
	year, _, _ := strings.Cut(date, "-")
	y, err := strconv.Atoi(year)
	if err != nil {
		return 0
	}
	return y
}

func artistRefs(artists []spotify.SimpleArtist) []ArtistRef {
	out := make([]ArtistRef, len(artists))
	for i, a := range artists {
		out[i] = ArtistRef{ID: a.ID.String(), Name: a.Name}
	}
	return out
}
