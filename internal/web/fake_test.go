package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-auto-cleaner/internal/auth"
	"github.com/justestif/go-spotify-auto-cleaner/internal/cleaner"
	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
	"github.com/justestif/go-spotify-auto-cleaner/internal/db"
	"github.com/justestif/go-spotify-auto-cleaner/internal/eras"
	"github.com/justestif/go-spotify-auto-cleaner/internal/recommend"
	"github.com/justestif/go-spotify-auto-cleaner/internal/spotify"
)

const testSecret = "test-cookie-secret"

// fakeAuth accepts any code and optionally hands out a refreshed token.
type fakeAuth struct {
	token      *oauth2.Token
	refreshed  *oauth2.Token
	refreshErr error
}

func (f *fakeAuth) AuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (f *fakeAuth) Exchange(_ context.Context, expectedState string, r *http.Request) (*oauth2.Token, error) {
	if expectedState == "" || r.URL.Query().Get("state") != expectedState {
		return nil, auth.ErrStateMismatch
	}
	return f.token, nil
}

func (f *fakeAuth) Refresh(_ context.Context, tok *oauth2.Token) (*oauth2.Token, bool, error) {
	if f.refreshErr != nil {
		return nil, false, f.refreshErr
	}
	if f.refreshed != nil {
		return f.refreshed, true, nil
	}
	return tok, false, nil
}

func (f *fakeAuth) HTTPClient(context.Context, *oauth2.Token) *http.Client {
	return http.DefaultClient
}

// fakeUpstream is an in-memory Spotify account shared by every request.
type fakeUpstream struct {
	mu sync.Mutex

	profile  spotify.Profile
	tracks   []clustering.Track
	savedErr error

	topArtists   []spotify.Artist
	artistTracks map[string][]spotify.TrackSummary
	historyErr   error

	tokens       []string // access tokens clients were built with
	created      []spotify.Playlist
	descriptions []string
	added        [][]string
	removed      [][]string
}

func (f *fakeUpstream) factory(_ context.Context, tok *oauth2.Token) Upstream {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, tok.AccessToken)
	return f
}

func (f *fakeUpstream) CurrentUser(context.Context) (spotify.Profile, error) {
	return f.profile, nil
}

func (f *fakeUpstream) CurrentUserID(context.Context) (string, error) {
	return f.profile.ID, nil
}

func (f *fakeUpstream) SavedTracks(_ context.Context, offset, limit int) ([]clustering.Track, error) {
	if f.savedErr != nil {
		return nil, f.savedErr
	}
	if offset >= len(f.tracks) {
		return nil, nil
	}
	end := min(offset+limit, len(f.tracks))
	return append([]clustering.Track(nil), f.tracks[offset:end]...), nil
}

// AudioFeatures derives features from each track's popularity.
func (f *fakeUpstream) AudioFeatures(_ context.Context, ids []string) (map[string]spotify.Features, error) {
	byID := make(map[string]clustering.Track, len(f.tracks))
	for _, t := range f.tracks {
		byID[t.ID] = t
	}
	out := make(map[string]spotify.Features, len(ids))
	for _, id := range ids {
		p := float32(byID[id].Popularity) / 100
		out[id] = spotify.Features{Energy: p, Valence: 1 - p, Tempo: 120, Acousticness: p / 2}
	}
	return out, nil
}

func (f *fakeUpstream) CreatePlaylist(_ context.Context, _, name, description string, _ bool) (spotify.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "pl-" + strings.ReplaceAll(strings.ToLower(name), " ", "-")
	pl := spotify.Playlist{ID: id, URL: "https://open.spotify.com/playlist/" + id}
	f.created = append(f.created, pl)
	f.descriptions = append(f.descriptions, description)
	return pl, nil
}

func (f *fakeUpstream) AddTracksToPlaylist(_ context.Context, _ string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, append([]string(nil), ids...))
	return nil
}

func (f *fakeUpstream) RemoveSavedTracks(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, append([]string(nil), ids...))
	return nil
}

func (f *fakeUpstream) TopArtists(context.Context, spotify.TimeRange) ([]spotify.Artist, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.topArtists, nil
}

func (f *fakeUpstream) TopTracks(context.Context, spotify.TimeRange) ([]spotify.TrackSummary, error) {
	return nil, f.historyErr
}

func (f *fakeUpstream) RecentlyPlayed(context.Context) ([]spotify.TrackSummary, error) {
	return nil, f.historyErr
}

func (f *fakeUpstream) RelatedArtists(context.Context, string) ([]spotify.Artist, error) {
	return nil, nil
}

func (f *fakeUpstream) ArtistTopTracks(_ context.Context, id string) ([]spotify.TrackSummary, error) {
	return f.artistTracks[id], nil
}

func (f *fakeUpstream) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created) + len(f.added) + len(f.removed)
}

// fakeUserStore keeps profiles in memory. Created timestamps are fixed.
type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]db.User
	getErr error
}

var storedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func (f *fakeUserStore) Get(_ context.Context, id string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUserStore) Upsert(_ context.Context, user *db.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.users == nil {
		f.users = make(map[string]db.User)
	}
	user.CreatedAt = storedAt
	if prev, ok := f.users[user.ID]; ok {
		user.CreatedAt = prev.CreatedAt
	}
	user.UpdatedAt = storedAt
	f.users[user.ID] = *user
	return nil
}

type testEnv struct {
	server   *Server
	auth     *fakeAuth
	sessions *SessionStore
	users    *fakeUserStore
	upstream *fakeUpstream
}

// newTestEnv wires the real services in popularity mode against a fake
// upstream account.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	up := &fakeUpstream{profile: spotify.Profile{ID: "user-1", DisplayName: "Ana", Email: "ana@example.com"}}
	fa := &fakeAuth{token: &oauth2.Token{AccessToken: "access-1", RefreshToken: "refresh-1", Expiry: time.Now().Add(time.Hour)}}
	store := NewSessionStore()
	users := &fakeUserStore{}

	grouper, err := clustering.NewGrouper(clustering.ModePopularity)
	if err != nil {
		t.Fatalf("NewGrouper() error = %v", err)
	}
	fetcher := cleaner.NewFetcher(cleaner.FallbackStrict, nil)
	analyzer := cleaner.NewAnalyzer(fetcher, grouper, cleaner.DefaultAnalyzerConfig(), nil)
	publisher := cleaner.NewPublisher(cleaner.FallbackStrict, nil)
	recorder := cleaner.LogRecorder{}

	srv, err := NewServer(ServerConfig{
		Addr:         "127.0.0.1:0",
		Auth:         fa,
		Sessions:     store,
		Users:        users,
		CookieSecret: testSecret,
		Upstream:     up.factory,
		Services: Services{
			Analyzer:         analyzer,
			Cleaner:          cleaner.NewOrchestrator(analyzer, grouper, publisher, recorder, nil),
			TimeMachine:      eras.NewTimeMachine(fetcher, publisher, recorder, 0, nil),
			MoodBuilder:      eras.NewMoodBuilder(fetcher, 0, nil),
			Recommender:      recommend.NewEngine(nil),
			DefaultThreshold: clustering.DefaultLowPopularityThreshold,
		},
	}, nil)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	return &testEnv{server: srv, auth: fa, sessions: store, users: users, upstream: up}
}

// login creates a session for the fake user and returns its signed cookie.
func (e *testEnv) login(t *testing.T) (*Session, *http.Cookie) {
	t.Helper()
	session, err := e.sessions.Create(context.Background(), e.auth.token, "user-1", "Ana")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	value, err := e.server.handlers.cookies.sign(session.ID, sessionTTL)
	if err != nil {
		t.Fatalf("sign() error = %v", err)
	}
	return session, &http.Cookie{Name: sessionCookieName, Value: value}
}

func (e *testEnv) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("response not successful: %s", rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decoding data %q: %v", env.Data, err)
	}
}

func popTrack(id string, popularity int) clustering.Track {
	return clustering.Track{
		ID:         id,
		URI:        "spotify:track:" + id,
		Name:       "Song " + id,
		Artists:    []string{"Artist " + id},
		Popularity: popularity,
		AddedAt:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}
