package spotify

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// Upstream failure classes.
var (
	// ErrPermissionDenied means the API refused the call for this app or user (HTTP 403).
	ErrPermissionDenied = errors.New("spotify: permission denied")
	// ErrUnauthorized means the access token is missing, expired or revoked (HTTP 401).
	ErrUnauthorized = errors.New("spotify: unauthorized")
	// ErrUnavailable means the API is rate limiting or failing (HTTP 429 or 5xx).
	ErrUnavailable = errors.New("spotify: service unavailable")
)

// classify tags err with the sentinel matching its HTTP status.
// The original error stays in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}

	status := 0
	var apiErr spotify.Error
	var apiErrPtr *spotify.Error
	var retrieveErr *oauth2.RetrieveError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Status
	case errors.As(err, &apiErrPtr):
		status = apiErrPtr.Status
	case errors.As(err, &retrieveErr):
		// Token refresh failed: the grant is no longer usable.
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	switch {
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case status == http.StatusTooManyRequests, status >= 500:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}
