package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GeneratedPlaylistRepository stores the audit log of generated playlists.
type GeneratedPlaylistRepository struct {
	pool *pgxpool.Pool
}

// Insert stores entry, assigning its ID when unset. CreatedAt is set by the
// database.
func (r *GeneratedPlaylistRepository) Insert(ctx context.Context, entry *GeneratedPlaylist) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	query := `
		INSERT INTO generated_playlists (id, user_id, type)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query, entry.ID, entry.UserID, entry.Type).Scan(&entry.CreatedAt); err != nil {
		return fmt.Errorf("inserting generated playlist: %w", err)
	}
	return nil
}

// Record inserts an audit entry of the given kind. It satisfies
// cleaner.Recorder.
func (r *GeneratedPlaylistRepository) Record(ctx context.Context, userID, kind string) error {
	return r.Insert(ctx, &GeneratedPlaylist{UserID: userID, Type: kind})
}
