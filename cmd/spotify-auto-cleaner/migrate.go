package main

import (
	"context"
	"fmt"

	"github.com/justestif/go-spotify-auto-cleaner/internal/config"
	"github.com/justestif/go-spotify-auto-cleaner/internal/db"
)

func runMigrate(ctx context.Context, envFile string) error {
	url, err := config.DatabaseURL(envFile)
	if err != nil {
		return err
	}

	database, err := db.New(ctx, url)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}

	fmt.Println("schema applied")
	return nil
}
