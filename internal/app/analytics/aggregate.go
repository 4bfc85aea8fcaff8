// Package analytics reduces listening events into frequency tables,
// diversity scores and listener-profile snapshots.
package analytics

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ottara/tunebox/internal/domain/event"
)

// MaxWindowDays caps the lookback window so a bad caller cannot force a
// scan over effectively unbounded history.
const MaxWindowDays = 3650

// ErrInvalidWindow is returned when the lookback window is not a
// positive number of days within MaxWindowDays.
var ErrInvalidWindow = errors.New("window must be between 1 and 3650 days")

// Tables holds one frequency table per aggregation dimension, produced
// in a single pass over the events inside the window.
type Tables struct {
	Track   Table[string]
	Artist  Table[string]
	Genre   Table[string]
	Mood    Table[string]
	Hour    Table[int] // hour of day, 0-23
	Weekday Table[int] // 0=Sunday .. 6=Saturday

	TotalEvents   int
	SkippedEvents int
	TotalPlay     time.Duration

	// Display names captured on first sight of each ID.
	TrackNames  map[string]string
	ArtistNames map[string]string
}

func newTables() Tables {
	return Tables{
		Track:       NewTable[string](),
		Artist:      NewTable[string](),
		Genre:       NewTable[string](),
		Mood:        NewTable[string](),
		Hour:        NewTable[int](),
		Weekday:     NewTable[int](),
		TrackNames:  make(map[string]string),
		ArtistNames: make(map[string]string),
	}
}

// SkipRate returns skipped/total plays, 0 when there are no plays.
func (t Tables) SkipRate() float64 {
	if t.TotalEvents == 0 {
		return 0
	}
	return float64(t.SkippedEvents) / float64(t.TotalEvents)
}

// Aggregate reduces events inside the lookback window ending at now into
// frequency tables. Events older than the window are ignored. An empty
// input yields zeroed tables and no error.
func Aggregate(events []event.Listening, windowDays int, now time.Time) (Tables, error) {
	if windowDays <= 0 || windowDays > MaxWindowDays {
		return Tables{}, errors.Wrapf(ErrInvalidWindow, "got %d", windowDays)
	}

	since := now.AddDate(0, 0, -windowDays)
	tables := newTables()

	for _, ev := range events {
		if ev.PlayedAt.Before(since) {
			continue
		}

		tables.TotalEvents++
		tables.TotalPlay += ev.PlayDuration
		if ev.Skipped {
			tables.SkippedEvents++
		}

		tables.Track.Observe(ev.TrackID, ev.PlayedAt)
		if _, ok := tables.TrackNames[ev.TrackID]; !ok {
			tables.TrackNames[ev.TrackID] = ev.TrackName
		}

		if ev.ArtistID != "" {
			tables.Artist.Observe(ev.ArtistID, ev.PlayedAt)
			if _, ok := tables.ArtistNames[ev.ArtistID]; !ok {
				tables.ArtistNames[ev.ArtistID] = ev.ArtistName
			}
		}

		for _, g := range ev.Genres {
			tables.Genre.Observe(g, ev.PlayedAt)
		}

		if ev.Mood != "" {
			tables.Mood.Observe(ev.Mood, ev.PlayedAt)
		}

		tables.Hour.Observe(ev.Hour(), ev.PlayedAt)
		tables.Weekday.Observe(ev.Weekday(), ev.PlayedAt)
	}

	return tables, nil
}
