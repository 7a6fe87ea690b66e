// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/justestif/go-spotify-auto-cleaner/internal/cleaner"
	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
	"github.com/justestif/go-spotify-auto-cleaner/internal/eras"
)

var (
	// ErrMissingCredentials is returned when SPOTIFY_ID or SPOTIFY_SECRET is not set.
	ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET environment variable")
	// ErrMissingCookieSecret is returned when COOKIE_SECRET is not set.
	ErrMissingCookieSecret = errors.New("missing COOKIE_SECRET environment variable")
)

// Config holds all runtime configuration.
type Config struct {
	// Spotify OAuth
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// Server
	Addr         string
	DatabaseURL  string // empty: in-memory sessions, log-only audit
	CookieSecret string

	// Analysis
	GroupingMode           clustering.Mode
	PermissionFallback     cleaner.FallbackPolicy
	CleanerMaxTracks       int
	TimeMachineMaxTracks   int
	LowPopularityThreshold float64 // clamped to [0, 100]

	// Logging
	LogLevel string
	Env      string // "production" selects JSON logs
}

// Load reads configuration from environment variables, after loading any
// of the given dotenv files (default ".env"). Missing files are skipped and
// variables already set in the environment win over file values.
func Load(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ClientID:     os.Getenv("SPOTIFY_ID"),
		ClientSecret: os.Getenv("SPOTIFY_SECRET"),
		RedirectURI:  envStr("SPOTIFY_REDIRECT_URI", "http://127.0.0.1:8080/callback"),
		Addr:         envStr("ADDR", "127.0.0.1:8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		CookieSecret: os.Getenv("COOKIE_SECRET"),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		Env:          envStr("ENV", "development"),
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return Config{}, ErrMissingCredentials
	}
	if cfg.CookieSecret == "" {
		return Config{}, ErrMissingCookieSecret
	}

	var err error
	if cfg.GroupingMode, err = clustering.ParseMode(envStr("GROUPING_MODE", string(clustering.ModeAudio))); err != nil {
		return Config{}, fmt.Errorf("GROUPING_MODE: %w", err)
	}
	if cfg.PermissionFallback, err = cleaner.ParseFallbackPolicy(envStr("PERMISSION_FALLBACK", string(cleaner.FallbackSynthetic))); err != nil {
		return Config{}, fmt.Errorf("PERMISSION_FALLBACK: %w", err)
	}
	if cfg.CleanerMaxTracks, err = envInt("CLEANER_MAX_TRACKS", cleaner.DefaultMaxTracks); err != nil {
		return Config{}, err
	}
	if cfg.TimeMachineMaxTracks, err = envInt("TIME_MACHINE_MAX_TRACKS", eras.DefaultTimeMachineMaxTracks); err != nil {
		return Config{}, err
	}
	threshold, err := envFloat("LOW_POPULARITY_THRESHOLD", clustering.DefaultLowPopularityThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.LowPopularityThreshold = clustering.ClampThreshold(threshold)

	return cfg, nil
}

// DatabaseURL returns DATABASE_URL after loading the dotenv files like Load.
// It needs no Spotify credentials, so schema migrations can run without them.
func DatabaseURL(envFiles ...string) (string, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return "", err
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", errors.New("DATABASE_URL is not set")
	}
	return url, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: want a positive integer, got %q", key, v)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: want a number, got %q", key, v)
	}
	return f, nil
}
