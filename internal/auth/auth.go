// Package auth implements the Spotify OAuth2 authorization-code flow for the
// web server: login URLs, code exchange and token refresh.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// refreshWindow is how close to expiry a token is refreshed.
const refreshWindow = 30 * time.Second

var (
	// ErrMissingCredentials is returned when the client id or secret is empty.
	ErrMissingCredentials = errors.New("missing Spotify client credentials")

	// ErrStateMismatch is returned when the OAuth state parameter doesn't match.
	ErrStateMismatch = errors.New("OAuth state mismatch")

	// ErrAccessDenied is returned when the user declines the consent screen.
	ErrAccessDenied = errors.New("spotify authorization denied")
)

// Scopes requested at login. Library modify is needed to remove tracks;
// top read and recently played feed recommendations.
var Scopes = []string{
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserLibraryModify,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopeUserReadRecentlyPlayed,
}

// Authenticator handles Spotify OAuth2 authentication.
type Authenticator struct {
	auth *spotifyauth.Authenticator
	now  func() time.Time
}

// New creates an Authenticator for the given client and redirect URL.
// Returns ErrMissingCredentials if the id or secret is empty.
func New(clientID, clientSecret, redirectURL string) (*Authenticator, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrMissingCredentials
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(clientID),
		spotifyauth.WithClientSecret(clientSecret),
		spotifyauth.WithRedirectURL(redirectURL),
		spotifyauth.WithScopes(Scopes...),
	)

	return &Authenticator{auth: auth, now: time.Now}, nil
}

// NewState creates a random state string for OAuth.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// AuthURL returns the consent page URL carrying state.
func (a *Authenticator) AuthURL(state string) string {
	return a.auth.AuthURL(state)
}

// Exchange validates the callback request against expectedState and trades
// its code for a token.
func (a *Authenticator) Exchange(ctx context.Context, expectedState string, r *http.Request) (*oauth2.Token, error) {
	q := r.URL.Query()
	if q.Get("state") != expectedState || expectedState == "" {
		return nil, ErrStateMismatch
	}
	if errMsg := q.Get("error"); errMsg != "" {
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, errMsg)
	}

	token, err := a.auth.Token(ctx, expectedState, r)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}
	return token, nil
}

// NeedsRefresh reports whether tok expires within the refresh window.
// Tokens without an expiry never need refreshing.
func (a *Authenticator) NeedsRefresh(tok *oauth2.Token) bool {
	if tok.Expiry.IsZero() {
		return false
	}
	return tok.Expiry.Sub(a.now()) <= refreshWindow
}

// Refresh returns a fresh token when tok is about to expire, and tok itself
// otherwise. The boolean reports whether a new token was issued.
func (a *Authenticator) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, bool, error) {
	if !a.NeedsRefresh(tok) {
		return tok, false, nil
	}
	if tok.RefreshToken == "" {
		return nil, false, errors.New("token expired and has no refresh token")
	}

	fresh, err := a.auth.RefreshToken(ctx, tok)
	if err != nil {
		return nil, false, fmt.Errorf("refreshing token: %w", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	return fresh, true, nil
}

// HTTPClient returns an HTTP client that authorizes requests with tok.
func (a *Authenticator) HTTPClient(ctx context.Context, tok *oauth2.Token) *http.Client {
	return a.auth.Client(ctx, tok)
}
