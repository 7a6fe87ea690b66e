package clustering

import (
	"cmp"
	"slices"
	"strconv"
)

// YearEra groups the tracks added to the library in one calendar year.
type YearEra struct {
	Year   string  `json:"year"`
	Tracks []Track `json:"tracks"`
}

// GroupByYear partitions tracks by the UTC year of AddedAt.
// Eras are ordered newest year first; tracks inside an era newest-added first.
// Tracks with a zero AddedAt are skipped.
func GroupByYear(tracks []Track) []YearEra {
	byYear := make(map[int][]Track)
	for _, t := range tracks {
		if t.AddedAt.IsZero() {
			continue
		}
		y := t.AddedAt.UTC().Year()
		byYear[y] = append(byYear[y], t)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	slices.SortFunc(years, func(a, b int) int { return cmp.Compare(b, a) })

	eras := make([]YearEra, 0, len(years))
	for _, y := range years {
		ts := byYear[y]
		slices.SortStableFunc(ts, func(a, b Track) int {
			return b.AddedAt.Compare(a.AddedAt)
		})
		eras = append(eras, YearEra{Year: strconv.Itoa(y), Tracks: ts})
	}
	return eras
}
