package clustering

import (
	"fmt"
	"strings"
)

const sampleTrackCount = 3

// FormatGroupSummary returns a human-readable summary of grouped tracks.
// Shows the track count and first 3 sample tracks for each group.
func FormatGroupSummary(groups []Group) string {
	var sb strings.Builder

	total := 0
	nonEmpty := 0
	for _, g := range groups {
		total += len(g.Tracks)
		if len(g.Tracks) > 0 {
			nonEmpty++
		}
	}

	if total == 0 {
		sb.WriteString("No tracks to group\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Grouped %d %s into %d of %d groups\n",
		total, plural(total, "track"), nonEmpty, len(groups)))

	for _, g := range groups {
		sb.WriteString("\n")
		sb.WriteString(formatGroup(g))
	}

	return sb.String()
}

// formatGroup formats a single group with its sample tracks.
func formatGroup(g Group) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s (%d %s)\n", g.Name, len(g.Tracks), plural(len(g.Tracks), "track")))

	sampleCount := min(sampleTrackCount, len(g.Tracks))
	for i := 0; i < sampleCount; i++ {
		track := g.Tracks[i]
		sb.WriteString(fmt.Sprintf("  • \"%s\" - %s\n", track.Name, strings.Join(track.Artists, ", ")))
	}

	remaining := len(g.Tracks) - sampleTrackCount
	if remaining > 0 {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", remaining))
	}

	return sb.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
