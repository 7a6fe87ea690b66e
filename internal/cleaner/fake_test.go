package cleaner

import (
	"context"
	"errors"
	"fmt"

	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
	"github.com/justestif/go-spotify-auto-cleaner/internal/spotify"
)

var errForbidden = fmt.Errorf("%w: test", spotify.ErrPermissionDenied)

type createCall struct {
	ownerID, name, description string
	public                     bool
}

// fakeCatalog is an in-memory Catalog that records every call.
type fakeCatalog struct {
	tracks   []clustering.Track
	features map[string]spotify.Features

	savedErr    error
	featuresErr error
	profileErr  error
	createErr   error
	addErr      error
	removeErr   error
	removeErrAt int // 1-based remove batch that fails with removeErr; 0 means every batch

	pages          []int // requested offsets
	featureBatches [][]string
	profileCalls   int
	created        []createCall
	added          [][]string
	removed        [][]string
}

func (f *fakeCatalog) SavedTracks(_ context.Context, offset, limit int) ([]clustering.Track, error) {
	f.pages = append(f.pages, offset)
	if f.savedErr != nil {
		return nil, f.savedErr
	}
	if offset >= len(f.tracks) {
		return []clustering.Track{}, nil
	}
	end := min(offset+limit, len(f.tracks))
	return append([]clustering.Track(nil), f.tracks[offset:end]...), nil
}

func (f *fakeCatalog) AudioFeatures(_ context.Context, ids []string) (map[string]spotify.Features, error) {
	f.featureBatches = append(f.featureBatches, append([]string(nil), ids...))
	if f.featuresErr != nil {
		return nil, f.featuresErr
	}
	out := make(map[string]spotify.Features)
	for _, id := range ids {
		if feat, ok := f.features[id]; ok {
			out[id] = feat
		}
	}
	return out, nil
}

func (f *fakeCatalog) CurrentUserID(context.Context) (string, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return "", f.profileErr
	}
	return "owner-1", nil
}

func (f *fakeCatalog) CreatePlaylist(_ context.Context, ownerID, name, description string, public bool) (spotify.Playlist, error) {
	f.created = append(f.created, createCall{ownerID, name, description, public})
	if f.createErr != nil {
		return spotify.Playlist{}, f.createErr
	}
	id := fmt.Sprintf("pl%d", len(f.created))
	return spotify.Playlist{ID: id, URL: "https://open.spotify.com/playlist/" + id}, nil
}

func (f *fakeCatalog) AddTracksToPlaylist(_ context.Context, _ string, ids []string) error {
	f.added = append(f.added, append([]string(nil), ids...))
	return f.addErr
}

func (f *fakeCatalog) RemoveSavedTracks(_ context.Context, ids []string) error {
	f.removed = append(f.removed, append([]string(nil), ids...))
	if f.removeErr != nil && (f.removeErrAt == 0 || f.removeErrAt == len(f.removed)) {
		return f.removeErr
	}
	return nil
}

// mutationCalls counts calls beyond reading the library.
func (f *fakeCatalog) mutationCalls() int {
	return f.profileCalls + len(f.created) + len(f.added) + len(f.removed)
}

// fakeRecorder collects audit entries.
type fakeRecorder struct {
	entries []string
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, userID, kind string) error {
	r.entries = append(r.entries, userID+":"+kind)
	return r.err
}

func popTrack(id, name, artist string, popularity int) clustering.Track {
	return clustering.Track{
		ID:         id,
		URI:        "spotify:track:" + id,
		Name:       name,
		Artists:    []string{artist},
		Popularity: popularity,
	}
}

// popTracks builds n distinct tracks with the given popularity.
func popTracks(n, popularity int) []clustering.Track {
	tracks := make([]clustering.Track, n)
	for i := range tracks {
		tracks[i] = popTrack(fmt.Sprintf("t%03d", i), fmt.Sprintf("Song %d", i), "Artist", popularity)
	}
	return tracks
}

// allFeatures gives every track the same mid-range features.
func allFeatures(tracks []clustering.Track) map[string]spotify.Features {
	out := make(map[string]spotify.Features, len(tracks))
	for i, t := range tracks {
		out[t.ID] = spotify.Features{Energy: float32(i%10) / 10, Valence: 0.5, Tempo: 120, Acousticness: 0.3}
	}
	return out
}

func isForbidden(err error) bool {
	return errors.Is(err, spotify.ErrPermissionDenied)
}
