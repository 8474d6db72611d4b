package aggregate

import "time"

// Merge combines per-source track batches into one deduplicated list.
// Batches are processed fully in the order given (the sync engine passes
// Spotify before Apple Music); output order is insertion order, not rank.
//
// When a key repeats, the incoming track folds into the existing entry:
// play counts sum, source sets union, and url/isrc keep the existing value
// unless it is empty. LastPlayedAt keeps the later of the two timestamps;
// a missing timestamp never wins over a present one.
func Merge(batches ...[]Track) []Track {
	index := make(map[string]int)
	var merged []Track

	for _, batch := range batches {
		for _, track := range batch {
			key := Key(track)
			i, seen := index[key]
			if !seen {
				index[key] = len(merged)
				merged = append(merged, track)
				continue
			}

			existing := &merged[i]
			existing.PlayCount += track.PlayCount
			for _, src := range track.Sources {
				existing.addSource(src)
			}
			if existing.URL == "" && track.URL != "" {
				existing.URL = track.URL
			}
			if existing.ISRC == "" && track.ISRC != "" {
				existing.ISRC = track.ISRC
			}
			if existing.Album == "" && track.Album != "" {
				existing.Album = track.Album
			}
			if laterThan(track.LastPlayedAt, existing.LastPlayedAt) {
				existing.LastPlayedAt = track.LastPlayedAt
			}
		}
	}

	return merged
}

// laterThan reports whether a is a strictly later timestamp than b,
// treating nil as "no value"
func laterThan(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}
