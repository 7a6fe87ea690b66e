package cleaner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlaceholderUserID stands in for the profile id when the profile lookup is forbidden.
const PlaceholderUserID = "demo-user"

// PublishedPlaylist is a playlist created by a bulk action.
// URL is nil when no web link is known, which includes synthetic playlists.
type PublishedPlaylist struct {
	ID        string
	URL       *string
	Synthetic bool
}

// Publisher creates private playlists and fills them in batches of 100.
type Publisher struct {
	policy FallbackPolicy
	log    *zap.Logger
}

// NewPublisher creates a Publisher. A nil logger disables logging.
func NewPublisher(policy FallbackPolicy, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{policy: policy, log: log}
}

// Publish resolves the owner, creates the playlist and adds trackIDs to it.
//
// Under the synthetic policy a forbidden profile lookup uses
// PlaceholderUserID, and a forbidden creation returns a synthetic playlist
// without adding tracks. Add batches run sequentially; the first failure
// aborts the rest and earlier batches stay applied.
func (p *Publisher) Publish(ctx context.Context, catalog Catalog, name, description string, trackIDs []string) (PublishedPlaylist, error) {
	ownerID, err := catalog.CurrentUserID(ctx)
	if err != nil {
		if !p.policy.substitutes(err) {
			return PublishedPlaylist{}, fmt.Errorf("resolving profile: %w", err)
		}
		p.log.Warn("profile lookup forbidden, using placeholder owner", zap.Error(err))
		ownerID = PlaceholderUserID
	}

	playlist, err := catalog.CreatePlaylist(ctx, ownerID, name, description, false)
	if err != nil {
		if !p.policy.substitutes(err) {
			return PublishedPlaylist{}, fmt.Errorf("creating playlist: %w", err)
		}
		synthetic := PublishedPlaylist{ID: "mock-" + uuid.NewString(), Synthetic: true}
		p.log.Warn("playlist creation forbidden, returning synthetic playlist",
			zap.String("playlist_id", synthetic.ID), zap.Error(err))
		return synthetic, nil
	}

	err = inBatches(trackIDs, addBatch, func(batch []string) error {
		return catalog.AddTracksToPlaylist(ctx, playlist.ID, batch)
	})
	if err != nil {
		return PublishedPlaylist{}, fmt.Errorf("filling playlist %s: %w", playlist.ID, err)
	}

	p.log.Info("published playlist",
		zap.String("playlist_id", playlist.ID), zap.String("name", name), zap.Int("tracks", len(trackIDs)))

	out := PublishedPlaylist{ID: playlist.ID}
	if playlist.URL != "" {
		url := playlist.URL
		out.URL = &url
	}
	return out, nil
}
