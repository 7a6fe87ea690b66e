package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/justestif/go-spotify-auto-cleaner/internal/auth"
	"github.com/justestif/go-spotify-auto-cleaner/internal/cleaner"
	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
	"github.com/justestif/go-spotify-auto-cleaner/internal/config"
	"github.com/justestif/go-spotify-auto-cleaner/internal/db"
	"github.com/justestif/go-spotify-auto-cleaner/internal/eras"
	"github.com/justestif/go-spotify-auto-cleaner/internal/logging"
	"github.com/justestif/go-spotify-auto-cleaner/internal/recommend"
	"github.com/justestif/go-spotify-auto-cleaner/internal/web"
)

func runServe(ctx context.Context, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	authenticator, err := auth.New(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI)
	if err != nil {
		return err
	}

	grouper, err := clustering.NewGrouper(cfg.GroupingMode)
	if err != nil {
		return err
	}

	serverCfg := web.ServerConfig{
		Addr:         cfg.Addr,
		Auth:         authenticator,
		CookieSecret: cfg.CookieSecret,
		SecureCookie: cfg.Env == "production",
	}

	var recorder cleaner.Recorder = cleaner.LogRecorder{Log: log}
	if cfg.DatabaseURL != "" {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()

		if n, err := database.Sessions().DeleteExpired(ctx); err != nil {
			log.Warn("deleting expired sessions", zap.Error(err))
		} else if n > 0 {
			log.Info("deleted expired sessions", zap.Int64("count", n))
		}

		serverCfg.Sessions = web.NewDBSessionStore(database)
		serverCfg.Users = database.Users()
		recorder = database.GeneratedPlaylists()
		log.Info("using postgres session store")
	} else {
		serverCfg.Sessions = web.NewSessionStore()
		log.Info("DATABASE_URL not set, using in-memory sessions")
	}

	fetcher := cleaner.NewFetcher(cfg.PermissionFallback, log.Named("fetcher"))
	publisher := cleaner.NewPublisher(cfg.PermissionFallback, log.Named("publisher"))
	analyzer := cleaner.NewAnalyzer(fetcher, grouper, cleaner.AnalyzerConfig{
		MaxTracks:              cfg.CleanerMaxTracks,
		LowPopularityThreshold: cfg.LowPopularityThreshold,
	}, log.Named("analyzer"))

	serverCfg.Services = web.Services{
		Analyzer:         analyzer,
		Cleaner:          cleaner.NewOrchestrator(analyzer, grouper, publisher, recorder, log.Named("cleaner")),
		TimeMachine:      eras.NewTimeMachine(fetcher, publisher, recorder, cfg.TimeMachineMaxTracks, log.Named("time_machine")),
		MoodBuilder:      eras.NewMoodBuilder(fetcher, cfg.CleanerMaxTracks, log.Named("mood_builder")),
		Recommender:      recommend.NewEngine(log.Named("recommend")),
		DefaultThreshold: cfg.LowPopularityThreshold,
	}

	server, err := web.NewServer(serverCfg, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	log.Info("configuration loaded",
		zap.String("grouping_mode", string(cfg.GroupingMode)),
		zap.String("permission_fallback", string(cfg.PermissionFallback)),
		zap.Int("cleaner_max_tracks", cfg.CleanerMaxTracks),
		zap.Int("time_machine_max_tracks", cfg.TimeMachineMaxTracks),
	)

	return server.Run()
}
