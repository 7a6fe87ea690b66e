package clustering

import (
	"strings"
	"testing"
)

func TestFormatGroupSummary(t *testing.T) {
	makeTrack := func(name string, artists ...string) Track {
		return Track{ID: name, Name: name, Artists: artists}
	}

	tests := []struct {
		name           string
		groups         []Group
		wantContains   []string
		wantNotContain []string
	}{
		{
			name:   "all groups empty",
			groups: BucketGrouper{}.Group(nil),
			wantContains: []string{
				"No tracks to group",
			},
			wantNotContain: []string{
				"Mainstream Hits",
			},
		},
		{
			name: "single group with 3 tracks",
			groups: []Group{
				{Name: GroupChill, Tracks: []Track{
					makeTrack("Song1", "Artist1"),
					makeTrack("Song2", "Artist2"),
					makeTrack("Song3", "Artist3"),
				}},
				{Name: GroupMixed, Tracks: []Track{}},
			},
			wantContains: []string{
				"Grouped 3 tracks into 1 of 2 groups",
				"Chill (3 tracks)",
				"Mixed (0 tracks)",
				`"Song1" - Artist1`,
				`"Song3" - Artist3`,
			},
			wantNotContain: []string{
				"more",
			},
		},
		{
			name: "five tracks shows and N more",
			groups: []Group{
				{Name: GroupHighEnergy, Tracks: []Track{
					makeTrack("Song1", "A", "B"),
					makeTrack("Song2", "A"),
					makeTrack("Song3", "A"),
					makeTrack("Song4", "A"),
					makeTrack("Song5", "A"),
				}},
			},
			wantContains: []string{
				`"Song1" - A, B`,
				"... and 2 more",
			},
			wantNotContain: []string{
				`"Song4"`,
			},
		},
		{
			name: "single track uses singular",
			groups: []Group{
				{Name: GroupEmotional, Tracks: []Track{makeTrack("Only", "Solo")}},
			},
			wantContains: []string{
				"Grouped 1 track into 1 of 1 groups",
				"Emotional (1 track)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatGroupSummary(tt.groups)

			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("FormatGroupSummary() missing expected content %q\nGot:\n%s", want, got)
				}
			}

			for _, notWant := range tt.wantNotContain {
				if strings.Contains(got, notWant) {
					t.Errorf("FormatGroupSummary() contains unexpected content %q\nGot:\n%s", notWant, got)
				}
			}
		})
	}
}
