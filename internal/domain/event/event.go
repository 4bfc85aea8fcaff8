// Package event provides the listening-event domain entity.
package event

import "time"

// Listening represents a single recorded playback of a track.
// Events are immutable once recorded; the analytics layer only reads them.
type Listening struct {
	TrackID      string        // Provider track ID
	TrackName    string        // Track title
	ArtistID     string        // Provider artist ID
	ArtistName   string        // Primary artist name
	Genres       []string      // Genre tags (from artist metadata)
	PlayedAt     time.Time     // Time the play started (UTC)
	Mood         string        // Listener mood label at play time (optional)
	Skipped      bool          // Whether the track was skipped
	PlayDuration time.Duration // How long the track actually played
}

// Hour returns the hour of day (0-23) the event occurred at.
func (e Listening) Hour() int {
	return e.PlayedAt.Hour()
}

// Weekday returns the day of week (0=Sunday .. 6=Saturday).
func (e Listening) Weekday() int {
	return int(e.PlayedAt.Weekday())
}
