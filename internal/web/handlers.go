package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-auto-cleaner/internal/auth"
	"github.com/justestif/go-spotify-auto-cleaner/internal/cleaner"
	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
	"github.com/justestif/go-spotify-auto-cleaner/internal/db"
	"github.com/justestif/go-spotify-auto-cleaner/internal/eras"
	"github.com/justestif/go-spotify-auto-cleaner/internal/recommend"
	"github.com/justestif/go-spotify-auto-cleaner/internal/spotify"
)

// Authenticator runs the OAuth flow. *auth.Authenticator implements it.
type Authenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, expectedState string, r *http.Request) (*oauth2.Token, error)
	Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, bool, error)
	HTTPClient(ctx context.Context, tok *oauth2.Token) *http.Client
}

var _ Authenticator = (*auth.Authenticator)(nil)

// Upstream is the per-user Spotify API surface the handlers use.
type Upstream interface {
	cleaner.Catalog
	recommend.Source
	CurrentUser(ctx context.Context) (spotify.Profile, error)
}

var _ Upstream = (*spotify.Client)(nil)

// UpstreamFunc builds an Upstream authorized with tok.
type UpstreamFunc func(ctx context.Context, tok *oauth2.Token) Upstream

// UserStore persists user profiles. *db.UserRepository implements it.
type UserStore interface {
	Get(ctx context.Context, id string) (*db.User, error)
	Upsert(ctx context.Context, user *db.User) error
}

var _ UserStore = (*db.UserRepository)(nil)

// Cleaner performs the Auto Cleaner bulk actions.
type Cleaner interface {
	CreatePlaylistFromGroup(ctx context.Context, catalog cleaner.Catalog, userID string, groupName clustering.GroupName, customName string) (*cleaner.PlaylistResult, error)
	RemoveDuplicates(ctx context.Context, catalog cleaner.Catalog, userID string) (*cleaner.RemoveResult, error)
	ArchiveLowPlayed(ctx context.Context, catalog cleaner.Catalog, userID string, threshold float64) (*cleaner.ArchiveResult, error)
}

// TimeMachine groups the library by year and publishes era playlists.
type TimeMachine interface {
	Analyze(ctx context.Context, catalog cleaner.Catalog, userID string) (*eras.TimeMachineAnalysis, error)
	CreateEraPlaylist(ctx context.Context, catalog cleaner.Catalog, userID, year, customName string) (*eras.EraPlaylistResult, error)
}

// MoodBuilder clusters the library into mood eras.
type MoodBuilder interface {
	Generate(ctx context.Context, catalog cleaner.Catalog, numClusters int) (*eras.MoodResult, error)
}

// Recommender suggests tracks outside the library.
type Recommender interface {
	Recommend(ctx context.Context, src recommend.Source) ([]recommend.Recommendation, error)
}

// Services are the domain operations exposed over HTTP.
type Services struct {
	Analyzer    cleaner.AnalysisSource
	Cleaner     Cleaner
	TimeMachine TimeMachine
	MoodBuilder MoodBuilder
	Recommender Recommender

	// DefaultThreshold applies when an archive request names no threshold.
	DefaultThreshold float64
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth         Authenticator
	sessions     SessionManager
	users        UserStore
	cookies      *cookieSigner
	upstream     UpstreamFunc
	services     Services
	postLoginURL string
	log          *zap.Logger
}

// Health reports liveness (GET /api/health).
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Status: "ok"})
}

// Login starts the Spotify OAuth flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state, err := auth.NewState()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.cookies.set(w, stateCookieName, state, stateTTL); err != nil {
		h.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback completes the OAuth flow (GET /callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state, err := h.cookies.read(r, stateCookieName)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %w", auth.ErrStateMismatch, err))
		return
	}
	h.cookies.clear(w, stateCookieName)

	token, err := h.auth.Exchange(ctx, state, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if token.RefreshToken == "" {
		h.writeError(w, r, fmt.Errorf("%w: missing refresh token from Spotify", errBadRequest))
		return
	}

	profile, err := h.upstream(ctx, token).CurrentUser(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if h.users != nil {
		user := &db.User{ID: profile.ID, DisplayName: profile.DisplayName, Email: profile.Email}
		if err := h.users.Upsert(ctx, user); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	session, err := h.sessions.Create(ctx, token, profile.ID, profile.DisplayName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.cookies.set(w, sessionCookieName, session.ID, sessionTTL); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.log.Info("user logged in", zap.String("user_id", profile.ID))
	http.Redirect(w, r, h.postLoginURL, http.StatusTemporaryRedirect)
}

// Logout deletes the session and clears the cookies (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if id, err := h.cookies.read(r, sessionCookieName); err == nil {
		if err := h.sessions.Delete(r.Context(), id); err != nil {
			h.log.Warn("deleting session", zap.Error(err))
		}
	}
	h.cookies.clear(w, sessionCookieName)
	h.cookies.clear(w, stateCookieName)
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

type meResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// Me returns the logged-in user (GET /auth/me). The stored profile wins
// over the session when there is one.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	resp := meResponse{
		ID:          p.UserID,
		DisplayName: p.UserName,
		CreatedAt:   p.SessionCreatedAt.UTC().Format(time.RFC3339),
	}

	if h.users != nil {
		user, err := h.users.Get(r.Context(), p.UserID)
		switch {
		case errors.Is(err, db.ErrNotFound):
			// Not stored yet: answer from the session.
		case err != nil:
			h.writeError(w, r, err)
			return
		default:
			resp.DisplayName = user.DisplayName
			resp.Email = user.Email
			resp.CreatedAt = user.CreatedAt.UTC().Format(time.RFC3339)
		}
	}
	writeData(w, resp)
}

// Analyze returns the grouped library summary (POST /api/auto-cleaner/analyze).
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.services.Analyzer.Analyze(r.Context(), h.catalog(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, analysis)
}

type createPlaylistRequest struct {
	GroupName    string `json:"groupName"`
	PlaylistName string `json:"playlistName"`
}

// CreatePlaylist publishes one group as a playlist
// (POST /api/auto-cleaner/create-playlist).
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	p := principalFrom(r.Context())
	result, err := h.services.Cleaner.CreatePlaylistFromGroup(r.Context(), h.catalog(r), p.UserID,
		clustering.GroupName(req.GroupName), req.PlaylistName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, result)
}

// RemoveDuplicates unsaves duplicate tracks
// (POST /api/auto-cleaner/remove-duplicates).
func (h *Handlers) RemoveDuplicates(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	result, err := h.services.Cleaner.RemoveDuplicates(r.Context(), h.catalog(r), p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, result)
}

type archiveRequest struct {
	PopularityThreshold json.RawMessage `json:"popularityThreshold"`
}

// ArchiveLowPlayed moves low-popularity tracks to an archive playlist
// (POST /api/auto-cleaner/archive-low-played).
func (h *Handlers) ArchiveLowPlayed(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	threshold, err := parseThreshold(req.PopularityThreshold, h.services.DefaultThreshold)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	p := principalFrom(r.Context())
	result, err := h.services.Cleaner.ArchiveLowPlayed(r.Context(), h.catalog(r), p.UserID, threshold)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, result)
}

// parseThreshold accepts a JSON number or numeric string. Absent or null
// values take def. Clamping happens in the cleaner.
func parseThreshold(raw json.RawMessage, def float64) (float64, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return def, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		text = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: popularityThreshold must be a number", errBadRequest)
	}
	return v, nil
}

// TimeMachineAnalyze groups the library by year (GET /api/time-machine/analyze).
func (h *Handlers) TimeMachineAnalyze(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	analysis, err := h.services.TimeMachine.Analyze(r.Context(), h.catalog(r), p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, analysis)
}

type eraPlaylistRequest struct {
	Year       string `json:"year"`
	CustomName string `json:"customName"`
}

// TimeMachineCreatePlaylist publishes one year as a playlist
// (POST /api/time-machine/create-playlist).
func (h *Handlers) TimeMachineCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req eraPlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Year == "" {
		h.writeError(w, r, fmt.Errorf("%w: missing year", cleaner.ErrInvalidYear))
		return
	}

	p := principalFrom(r.Context())
	result, err := h.services.TimeMachine.CreateEraPlaylist(r.Context(), h.catalog(r), p.UserID, req.Year, req.CustomName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, result)
}

type moodRequest struct {
	Clusters int `json:"clusters"`
}

// MoodGenerate clusters the library into mood eras
// (POST /api/mood-builder/generate).
func (h *Handlers) MoodGenerate(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.services.MoodBuilder.Generate(r.Context(), h.catalog(r), req.Clusters)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, result)
}

// Recommendations suggests tracks the user has not saved
// (GET /api/recommendations).
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	recs, err := h.services.Recommender.Recommend(r.Context(), h.upstream(r.Context(), p.Token))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	writeData(w, recs)
}

// NotFound answers unknown routes with the failure envelope.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{
		Success: false,
		Message: fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path),
	})
}

// MethodNotAllowed answers known routes called with the wrong method.
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, envelope{
		Success: false,
		Message: fmt.Sprintf("Method not allowed: %s %s", r.Method, r.URL.Path),
	})
}

// catalog returns the Spotify client of the request's principal.
func (h *Handlers) catalog(r *http.Request) cleaner.Catalog {
	p := principalFrom(r.Context())
	return h.upstream(r.Context(), p.Token)
}
