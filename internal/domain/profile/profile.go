// Package profile provides the listener-profile domain entity.
package profile

// RankedTrack is a favorite track with its play count over the window.
type RankedTrack struct {
	ID    string
	Name  string
	Plays int
}

// RankedArtist is a favorite artist with its play count over the window.
type RankedArtist struct {
	ID    string
	Name  string
	Plays int
}

// Listener is a snapshot of listening behaviour over a lookback window.
// It is a value object: built once per request, never mutated afterwards.
type Listener struct {
	WindowDays           int
	TotalTracksPlayed    int
	TotalHours           float64
	FavoriteTracks       []RankedTrack  // ranked by plays desc, ties by most recent play
	FavoriteArtists      []RankedArtist // same ordering
	FavoriteGenres       []string
	PeakListeningHour    int            // hour with max plays, ties to the earliest hour
	ListeningPeriods     map[string]int // period name -> play count
	GenreDiversityScore  int            // 0-100
	ArtistDiversityScore int            // 0-100
	SkipRate             float64        // 0-1
	DominantMood         string         // "" when no mood data
	MoodTransitionCount  int
	EmergingArtists      []string // recent artists not yet in the all-window top 5
	Recommendations      []string
}

// SeedArtists returns up to n favorite artists to seed catalog lookups.
func (l *Listener) SeedArtists(n int) []RankedArtist {
	if len(l.FavoriteArtists) < n {
		n = len(l.FavoriteArtists)
	}
	return l.FavoriteArtists[:n]
}

// SeedTracks returns up to n favorite tracks to seed catalog lookups.
func (l *Listener) SeedTracks(n int) []RankedTrack {
	if len(l.FavoriteTracks) < n {
		n = len(l.FavoriteTracks)
	}
	return l.FavoriteTracks[:n]
}

// HasSeeds reports whether the profile carries any favorites at all.
func (l *Listener) HasSeeds() bool {
	return len(l.FavoriteArtists) > 0 || len(l.FavoriteTracks) > 0
}
