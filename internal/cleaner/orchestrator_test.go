package cleaner

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/justestif/go-spotify-auto-cleaner/internal/clustering"
)

func newTestOrchestrator(t *testing.T, mode clustering.Mode, policy FallbackPolicy, rec Recorder) *Orchestrator {
	t.Helper()
	analyzer := newTestAnalyzer(t, mode, policy)
	o := NewOrchestrator(analyzer, analyzer.Grouper(), NewPublisher(policy, nil), rec, nil)
	o.now = func() time.Time { return time.Date(2025, time.March, 9, 23, 30, 0, 0, time.UTC) }
	return o
}

func TestCreatePlaylistFromGroupValidation(t *testing.T) {
	tests := []struct {
		name      string
		group     clustering.GroupName
		tracks    []clustering.Track
		wantErr   error
		wantPages int
	}{
		{
			name:      "unknown group rejected before any call",
			group:     "Dance Floor",
			tracks:    popTracks(10, 90),
			wantErr:   ErrInvalidGroup,
			wantPages: 0,
		},
		{
			name:      "group from the other mode rejected",
			group:     clustering.GroupChill,
			tracks:    popTracks(10, 90),
			wantErr:   ErrInvalidGroup,
			wantPages: 0,
		},
		{
			name:      "empty group has nothing to act on",
			group:     clustering.GroupHiddenGems,
			tracks:    popTracks(10, 90),
			wantErr:   ErrNothingToActOn,
			wantPages: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := &fakeCatalog{tracks: tt.tracks}
			rec := &fakeRecorder{}
			o := newTestOrchestrator(t, clustering.ModePopularity, FallbackSynthetic, rec)

			_, err := o.CreatePlaylistFromGroup(context.Background(), cat, "user-1", tt.group, "")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreatePlaylistFromGroup() error = %v, want %v", err, tt.wantErr)
			}
			if len(cat.pages) != tt.wantPages {
				t.Errorf("read %d pages, want %d", len(cat.pages), tt.wantPages)
			}
			if cat.mutationCalls() != 0 {
				t.Errorf("made %d external calls, want 0", cat.mutationCalls())
			}
			if len(rec.entries) != 0 {
				t.Errorf("recorded %v, want nothing", rec.entries)
			}
		})
	}
}

func TestCreatePlaylistFromGroup(t *testing.T) {
	cat := &fakeCatalog{tracks: popTracks(230, 90)}
	rec := &fakeRecorder{}
	o := newTestOrchestrator(t, clustering.ModePopularity, FallbackStrict, rec)

	result, err := o.CreatePlaylistFromGroup(context.Background(), cat, "user-1", clustering.GroupMainstreamHits, "")
	if err != nil {
		t.Fatalf("CreatePlaylistFromGroup() error = %v", err)
	}

	want := createCall{ownerID: "owner-1", name: "FlowTune Mainstream Hits", description: "Auto-cleaned Mainstream Hits tracks by FlowTune"}
	if len(cat.created) != 1 || cat.created[0] != want {
		t.Errorf("created = %+v, want %+v", cat.created, want)
	}

	var sizes []int
	for _, b := range cat.added {
		sizes = append(sizes, len(b))
	}
	if !reflect.DeepEqual(sizes, []int{100, 100, 30}) {
		t.Errorf("add batch sizes = %v, want [100 100 30]", sizes)
	}

	if result.PlaylistID != "pl1" || result.TrackCount != 230 || result.GroupName != clustering.GroupMainstreamHits {
		t.Errorf("result = %+v", result)
	}
	if result.PlaylistURL == nil || *result.PlaylistURL != "https://open.spotify.com/playlist/pl1" {
		t.Errorf("PlaylistURL = %v", result.PlaylistURL)
	}
	if !reflect.DeepEqual(rec.entries, []string{"user-1:cleaner"}) {
		t.Errorf("audit entries = %v", rec.entries)
	}
}

func TestCreatePlaylistFromGroupCustomName(t *testing.T) {
	cat := &fakeCatalog{tracks: popTracks(3, 10)}
	o := newTestOrchestrator(t, clustering.ModePopularity, FallbackStrict, nil)

	_, err := o.CreatePlaylistFromGroup(context.Background(), cat, "user-1", clustering.GroupUnderground, "  Deep Cuts ")
	if err != nil {
		t.Fatalf("CreatePlaylistFromGroup() error = %v", err)
	}
	if cat.created[0].name != "Deep Cuts" {
		t.Errorf("playlist name = %q, want %q", cat.created[0].name, "Deep Cuts")
	}
}

func TestCreatePlaylistFromGroupForbidden(t *testing.T) {
	t.Run("synthetic policy returns a synthetic playlist", func(t *testing.T) {
		cat := &fakeCatalog{tracks: popTracks(5, 60), profileErr: errForbidden, createErr: errForbidden}
		rec := &fakeRecorder{}
		o := newTestOrchestrator(t, clustering.ModePopularity, FallbackSynthetic, rec)

		result, err := o.CreatePlaylistFromGroup(context.Background(), cat, "user-1", clustering.GroupPopularTracks, "")
		if err != nil {
			t.Fatalf("CreatePlaylistFromGroup() error = %v", err)
		}
		if cat.created[0].ownerID != PlaceholderUserID {
			t.Errorf("owner = %q, want placeholder", cat.created[0].ownerID)
		}
		if !strings.HasPrefix(result.PlaylistID, "mock-") || result.PlaylistURL != nil {
			t.Errorf("result = %+v, want synthetic playlist", result)
		}
		if len(cat.added) != 0 {
			t.Errorf("added %d batches to a synthetic playlist", len(cat.added))
		}
		if result.TrackCount != 5 || len(rec.entries) != 1 {
			t.Errorf("TrackCount = %d, audit = %v", result.TrackCount, rec.entries)
		}
	})

	t.Run("strict policy propagates", func(t *testing.T) {
		cat := &fakeCatalog{tracks: popTracks(5, 60), createErr: errForbidden}
		rec := &fakeRecorder{}
		o := newTestOrchestrator(t, clustering.ModePopularity, FallbackStrict, rec)

		_, err := o.CreatePlaylistFromGroup(context.Background(), cat, "user-1", clustering.GroupPopularTracks, "")
		if !isForbidden(err) {
			t.Errorf("CreatePlaylistFromGroup() error = %v, want permission denied", err)
		}
		if len(rec.entries) != 0 {
			t.Error("failed action was audited")
		}
	})
}

func TestCreatePlaylistAddBatchFailureAborts(t *testing.T) {
	cat := &fakeCatalog{tracks: popTracks(250, 90), addErr: errors.New("boom")}
	o := newTestOrchestrator(t, clustering.ModePopularity, FallbackSynthetic, nil)

	_, err := o.CreatePlaylistFromGroup(context.Background(), cat, "user-1", clustering.GroupMainstreamHits, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(cat.added) != 1 {
		t.Errorf("made %d add calls after failure, want 1", len(cat.added))
	}
}

func TestRemoveDuplicates(t *testing.T) {
	t.Run("three tracks with one duplicate", func(t *testing.T) {
		cat := &fakeCatalog{tracks: []clustering.Track{
			popTrack("1", "Song", "Artist", 70),
			popTrack("2", "Other", "Artist", 60),
			popTrack("3", " song ", "ARTIST", 55),
		}}
		o := newTestOrchestrator(t, clustering.ModePopularity, FallbackStrict, nil)

		result, err := o.RemoveDuplicates(context.Background(), cat, "user-1")
		if err != nil {
			t.Fatalf("RemoveDuplicates() error = %v", err)
		}
		if result.RemovedCount != 1 {
			t.Errorf("RemovedCount = %d, want 1", result.RemovedCount)
		}
		if !reflect.DeepEqual(cat.removed, [][]string{{"3"}}) {
			t.Errorf("removed = %v, want [[3]]", cat.removed)
		}
	})

	t.Run("batches of fifty", func(t *testing.T) {
		var tracks []clustering.Track
		for i := range 120 {
			tracks = append(tracks,
				popTrack(fmt.Sprintf("o%03d", i), fmt.Sprint("Song ", i), "A", 60),
				popTrack(fmt.Sprintf("d%03d", i), fmt.Sprint("Song ", i), "A", 60))
		}
		cat := &fakeCatalog{tracks: tracks}
		o := newTestOrchestrator(t, clustering.ModePopularity, FallbackStrict, nil)

		result, err := o.RemoveDuplicates(context.Background(), cat, "user-1")
		if err != nil {
			t.Fatalf("RemoveDuplicates() error = %v", err)
		}
		if result.RemovedCount != 120 {
			t.Errorf("RemovedCount = %d, want 120", result.RemovedCount)
		}
		var sizes []int
		for _, b := range cat.removed {
			sizes = append(sizes, len(b))
		}
		if !reflect.DeepEqual(sizes, []int{50, 50, 20}) {
			t.Errorf("remove batch sizes = %v, want [50 50 20]", sizes)
		}
	})

	t.Run("no duplicates makes no calls", func(t *testing.T) {
		cat := &fakeCatalog{tracks: popTracks(20, 50)}
		o := newTestOrchestrator(t, clustering.ModePopularity, FallbackStrict, nil)

		result, err := o.RemoveDuplicates(context.Background(), cat, "user-1")
		if err != nil || result.RemovedCount != 0 || cat.mutationCalls() != 0 {
			t.Errorf("result = %+v, err = %v, calls = %d", result, err, cat.mutationCalls())
		}
	})

	t.Run("forbidden delete reports full count under synthetic policy", func(t *testing.T) {
		var tracks []clustering.Track
		for i := range 60 {
			tracks = append(tracks,
				popTrack(fmt.Sprintf("o%03d", i), fmt.Sprint("Song ", i), "A", 60),
				popTrack(fmt.Sprintf("d%03d", i), fmt.Sprint("Song ", i), "A", 60))
		}
		cat := &fakeCatalog{tracks: tracks, removeErr: errForbidden}
		o := newTestOrchestrator(t, clustering.ModePopularity, FallbackSynthetic, nil)

		result, err := o.RemoveDuplicates(context.Background(), cat, "user-1")
		if err != nil {
			t.Fatalf("RemoveDuplicates() error = %v", err)
		}
		if result.RemovedCount != 60 || len(cat.removed) != 1 {
			t.Errorf("RemovedCount = %d after %d calls, want 60 after 1", result.RemovedCount, len(cat.removed))
		}
	})
}

func TestArchiveLowPlayed(t *testing.T) {
	t.Run("no candidates returns zero result without calls", func(t *testing.T) {
		cat := &fakeCatalog{tracks: popTracks(10, 80)}
		rec := &fakeRecorder{}
		o := newTestOrchestrator(t, clustering.ModePopularity, FallbackStrict, rec)

		result, err := o.ArchiveLowPlayed(context.Background(), cat, "user-1", 35)
		if err != nil {
			t.Fatalf("ArchiveLowPlayed() error = %v", err)
		}
		if *result != (ArchiveResult{}) {
			t.Errorf("result = %+v, want zero", result)
		}
		if cat.mutationCalls() != 0 || len(rec.entries) != 0 {
			t.Errorf("made %d calls and %d audit entries", cat.mutationCalls(), len(rec.entries))
		}
	})

	t.Run("archives then removes", func(t *testing.T) {
		tracks := append(popTracks(120, 20), popTrack("keep", "Hit", "Star", 90))
		cat := &fakeCatalog{tracks: tracks}
		rec := &fakeRecorder{}
		o := newTestOrchestrator(t, clustering.ModePopularity, FallbackStrict, rec)

		result, err := o.ArchiveLowPlayed(context.Background(), cat, "user-1", 35)
		if err != nil {
			t.Fatalf("ArchiveLowPlayed() error = %v", err)
		}

		want := createCall{ownerID: "owner-1", name: "FlowTune Archive 2025-03-09", description: "Archived low-popularity tracks by FlowTune (<= 35)"}
		if len(cat.created) != 1 || cat.created[0] != want {
			t.Errorf("created = %+v, want %+v", cat.created, want)
		}
		if len(cat.added) != 2 || len(cat.removed) != 3 {
			t.Errorf("add batches = %d, remove batches = %d, want 2 and 3", len(cat.added), len(cat.removed))
		}
		for _, batch := range cat.removed {
			for _, id := range batch {
				if id == "keep" {
					t.Error("popular track was removed")
				}
			}
		}
		if result.ArchivedCount != 120 || result.PlaylistID == nil || *result.PlaylistID != "pl1" || result.PlaylistURL == nil {
			t.Errorf("result = %+v", result)
		}
		if !reflect.DeepEqual(rec.entries, []string{"user-1:cleaner"}) {
			t.Errorf("audit entries = %v", rec.entries)
		}
	})

	t.Run("threshold is clamped", func(t *testing.T) {
		tests := []struct {
			threshold float64
			want      int
		}{
			{150, 3},
			{100, 3},
			{-10, 1},
			{0, 1},
		}
		for _, tt := range tests {
			cat := &fakeCatalog{tracks: []clustering.Track{
				popTrack("a", "A", "X", 0),
				popTrack("b", "B", "X", 50),
				popTrack("c", "C", "X", 100),
			}}
			o := newTestOrchestrator(t, clustering.ModePopularity, FallbackStrict, nil)

			result, err := o.ArchiveLowPlayed(context.Background(), cat, "user-1", tt.threshold)
			if err != nil {
				t.Fatalf("ArchiveLowPlayed(%v) error = %v", tt.threshold, err)
			}
			if result.ArchivedCount != tt.want {
				t.Errorf("ArchiveLowPlayed(%v) archived %d, want %d", tt.threshold, result.ArchivedCount, tt.want)
			}
		}
	})

	t.Run("failing remove batch aborts the rest", func(t *testing.T) {
		cat := &fakeCatalog{tracks: popTracks(120, 10), removeErr: errors.New("boom"), removeErrAt: 2}
		rec := &fakeRecorder{}
		o := newTestOrchestrator(t, clustering.ModePopularity, FallbackSynthetic, rec)

		_, err := o.ArchiveLowPlayed(context.Background(), cat, "user-1", 35)
		if err == nil {
			t.Fatal("expected error")
		}
		if len(cat.removed) != 2 {
			t.Errorf("made %d remove calls, want 2", len(cat.removed))
		}
		if len(rec.entries) != 0 {
			t.Error("failed archive was audited")
		}
	})

	t.Run("synthetic playlist keeps tracks", func(t *testing.T) {
		cat := &fakeCatalog{tracks: popTracks(10, 10), createErr: errForbidden}
		o := newTestOrchestrator(t, clustering.ModePopularity, FallbackSynthetic, nil)

		result, err := o.ArchiveLowPlayed(context.Background(), cat, "user-1", 35)
		if err != nil {
			t.Fatalf("ArchiveLowPlayed() error = %v", err)
		}
		if result.ArchivedCount != 10 || len(cat.removed) != 0 {
			t.Errorf("archived %d with %d remove calls", result.ArchivedCount, len(cat.removed))
		}
	})
}

func TestAuditFailureDoesNotFailAction(t *testing.T) {
	cat := &fakeCatalog{tracks: popTracks(3, 10)}
	rec := &fakeRecorder{err: errors.New("db down")}
	o := newTestOrchestrator(t, clustering.ModePopularity, FallbackStrict, rec)

	if _, err := o.CreatePlaylistFromGroup(context.Background(), cat, "user-1", clustering.GroupUnderground, ""); err != nil {
		t.Fatalf("CreatePlaylistFromGroup() error = %v", err)
	}
	if len(rec.entries) != 1 {
		t.Errorf("audit attempts = %d, want 1", len(rec.entries))
	}
}
