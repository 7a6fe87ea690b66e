package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Principal is the authenticated user of a request.
type Principal struct {
	SessionID        string
	UserID           string
	UserName         string
	Token            *oauth2.Token
	SessionCreatedAt time.Time
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// principalFrom returns the request's principal. Handlers behind requireAuth
// always have one.
func principalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	if p == nil {
		return &Principal{}
	}
	return p
}

// requireAuth resolves the session cookie, refreshes the Spotify token when
// it is about to expire, and stores the Principal in the request context.
func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := h.cookies.read(r, sessionCookieName)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: %w", errUnauthenticated, err))
			return
		}

		session, err := h.sessions.Get(ctx, id)
		if errors.Is(err, ErrSessionNotFound) {
			h.writeError(w, r, fmt.Errorf("%w: %w", errUnauthenticated, err))
			return
		}
		if err != nil {
			h.writeError(w, r, fmt.Errorf("loading session: %w", err))
			return
		}

		token, refreshed, err := h.auth.Refresh(ctx, session.Token)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: %w", errUnauthenticated, err))
			return
		}
		if refreshed {
			if err := h.sessions.UpdateToken(ctx, session.ID, token); err != nil {
				h.log.Warn("persisting refreshed token", zap.String("user_id", session.UserID), zap.Error(err))
			}
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, &Principal{
			SessionID:        session.ID,
			UserID:           session.UserID,
			UserName:         session.UserName,
			Token:            token,
			SessionCreatedAt: session.CreatedAt,
		})))
	})
}
