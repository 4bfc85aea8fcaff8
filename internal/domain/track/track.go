// Package track provides the Track domain entity.
package track

import "time"

// Track represents a catalog track entity.
// Contains only information retrieved from the streaming provider.
type Track struct {
	ID        string        // Provider track ID
	Name      string        // Track name
	Artists   []string      // Artist names
	ArtistIDs []string      // Provider artist IDs
	Album     string        // Album name
	Duration  time.Duration // Track duration
	Genres    []string      // Genres (from artist info)
	BPM       float64       // Tempo in beats per minute (0 when unknown)
	URL       string        // Provider URL
}

// HasBPM reports whether a tempo reading is available for the track.
func (t *Track) HasBPM() bool {
	return t.BPM > 0
}

// MatchesGenre checks if the track carries any of the given genres.
func (t *Track) MatchesGenre(genres []string) bool {
	for _, g := range t.Genres {
		for _, want := range genres {
			if g == want {
				return true
			}
		}
	}
	return false
}
