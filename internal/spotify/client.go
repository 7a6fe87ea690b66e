// Package spotify provides a wrapper around the Spotify Web API.
package spotify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
)

// Client wraps the Spotify API client with the library and playlist
// operations the cleaner needs. Every error it returns is classified.
type Client struct {
	api *spotify.Client
}

// Profile is the subset of the current user's profile stored with a session.
type Profile struct {
	ID          string
	DisplayName string
	Email       string
}

// New creates a Spotify client on top of an authenticated HTTP client.
// Rate-limited requests are retried by the underlying client after the
// server-provided delay.
func New(httpClient *http.Client, opts ...spotify.ClientOption) *Client {
	opts = append([]spotify.ClientOption{spotify.WithRetry(true)}, opts...)
	return &Client{api: spotify.New(httpClient, opts...)}
}

// CurrentUser returns the profile of the user the client is authorized for.
func (c *Client) CurrentUser(ctx context.Context) (Profile, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("getting current user: %w", classify(err))
	}

	name := user.DisplayName
	if name == "" {
		name = user.ID
	}
	return Profile{ID: user.ID, DisplayName: name, Email: user.Email}, nil
}

// CurrentUserID returns the current user's Spotify ID.
func (c *Client) CurrentUserID(ctx context.Context) (string, error) {
	profile, err := c.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	return profile.ID, nil
}
