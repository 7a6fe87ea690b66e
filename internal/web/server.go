// Package web serves the JSON API: OAuth login, the Auto Cleaner, the Time
// Machine and the Mood Builder.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/justestif/go-spotify-auto-cleaner/internal/logging"
	"github.com/justestif/go-spotify-auto-cleaner/internal/spotify"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr         string
	Auth         Authenticator
	Sessions     SessionManager
	Users        UserStore // optional
	CookieSecret string
	SecureCookie bool
	Services     Services

	// Upstream builds per-user Spotify clients. Defaults to a spotify.Client
	// over Auth.HTTPClient.
	Upstream UpstreamFunc

	// PostLoginURL is where the OAuth callback redirects (default: /auth/me).
	PostLoginURL string
}

// Server is the HTTP server for the API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	log      *zap.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig, log *zap.Logger) (*Server, error) {
	if cfg.Auth == nil || cfg.Sessions == nil {
		return nil, errors.New("web: authenticator and session manager are required")
	}
	if cfg.CookieSecret == "" {
		return nil, errors.New("web: cookie secret is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Upstream == nil {
		authn := cfg.Auth
		cfg.Upstream = func(ctx context.Context, tok *oauth2.Token) Upstream {
			return spotify.New(authn.HTTPClient(ctx, tok))
		}
	}
	if cfg.PostLoginURL == "" {
		cfg.PostLoginURL = "/auth/me"
	}

	handlers := &Handlers{
		auth:         cfg.Auth,
		sessions:     cfg.Sessions,
		users:        cfg.Users,
		cookies:      newCookieSigner(cfg.CookieSecret, cfg.SecureCookie),
		upstream:     cfg.Upstream,
		services:     cfg.Services,
		postLoginURL: cfg.PostLoginURL,
		log:          log,
	}

	s := &Server{
		router:   chi.NewRouter(),
		handlers: handlers,
		log:      log,
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.AccessLog(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.NotFound(h.NotFound)
	s.router.MethodNotAllowed(h.MethodNotAllowed)

	s.router.Get("/auth/login", h.Login)
	s.router.Get("/callback", h.Callback)
	s.router.Post("/auth/logout", h.Logout)
	s.router.With(h.requireAuth).Get("/auth/me", h.Me)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Route("/auto-cleaner", func(r chi.Router) {
				r.Post("/analyze", h.Analyze)
				r.Post("/create-playlist", h.CreatePlaylist)
				r.Post("/remove-duplicates", h.RemoveDuplicates)
				r.Post("/archive-low-played", h.ArchiveLowPlayed)
			})
			r.Route("/time-machine", func(r chi.Router) {
				r.Get("/analyze", h.TimeMachineAnalyze)
				r.Post("/create-playlist", h.TimeMachineCreatePlaylist)
			})
			r.Post("/mood-builder/generate", h.MoodGenerate)
			r.Get("/recommendations", h.Recommendations)
		})
	})
}

// ServeHTTP lets the server be used as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting server", zap.String("url", "http://"+s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		s.log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}
