package aggregate

import "sort"

// DefaultListSize is the published length of a top-songs list
const DefaultListSize = 10

// SelectTop sorts tracks by play count descending and truncates to n.
// Ties break on LastPlayedAt descending, with a timestamped track always
// ahead of one without; two untimestamped ties keep their merge order
// (the sort is stable).
func SelectTop(tracks []Track, n int) []Track {
	ranked := make([]Track, len(tracks))
	copy(ranked, tracks)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.PlayCount != b.PlayCount {
			return a.PlayCount > b.PlayCount
		}
		if a.LastPlayedAt == nil {
			return false
		}
		if b.LastPlayedAt == nil {
			return true
		}
		return a.LastPlayedAt.After(*b.LastPlayedAt)
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
