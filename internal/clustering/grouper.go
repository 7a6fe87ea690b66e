package clustering

import (
	"fmt"
)

// Mode selects the grouping algorithm.
type Mode string

const (
	// ModeAudio clusters tracks by audio features with k-means.
	ModeAudio Mode = "audio"
	// ModePopularity buckets tracks by popularity thresholds.
	ModePopularity Mode = "popularity"
)

// Grouper partitions tracks into a fixed, ordered set of named groups.
// Every input track appears in exactly one output group and every name in
// Names() is present in the output, even when empty.
type Grouper interface {
	Group(tracks []Track) []Group
	Names() []GroupName
	// NeedsAudioFeatures reports whether tracks must carry audio features.
	NeedsAudioFeatures() bool
}

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAudio, ModePopularity:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown grouping mode %q (want %q or %q)", s, ModeAudio, ModePopularity)
	}
}

// NewGrouper returns the Grouper for the given mode.
func NewGrouper(mode Mode) (Grouper, error) {
	switch mode {
	case ModeAudio:
		return NewCentroidGrouper(), nil
	case ModePopularity:
		return BucketGrouper{}, nil
	default:
		return nil, fmt.Errorf("unknown grouping mode %q", mode)
	}
}

// IsValidGroupName reports whether name belongs to the grouper's enumeration.
func IsValidGroupName(g Grouper, name GroupName) bool {
	for _, n := range g.Names() {
		if n == name {
			return true
		}
	}
	return false
}
