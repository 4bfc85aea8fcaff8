package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/avast/retry-go"
	zlog "github.com/rs/zerolog/log"

	"github.com/ottara/tunebox/internal/domain/event"
	"github.com/ottara/tunebox/internal/domain/profile"
)

const (
	favoriteCount      = 10
	emergingWindowDays = 7
)

// Listening periods by hour of day.
var periods = []struct {
	name     string
	from, to int // inclusive hour range
}{
	{"madrugada", 0, 5},
	{"manhã", 6, 11},
	{"tarde", 12, 17},
	{"noite", 18, 23},
}

// EventStore is the read-only query surface over recorded listening
// events. Results are not required to be ordered; the builder sorts when
// it needs temporal order.
type EventStore interface {
	Query(ctx context.Context, from, to time.Time) ([]event.Listening, error)
}

// Builder composes the aggregator and score engine into listener-profile
// snapshots.
type Builder struct {
	store EventStore
	now   func() time.Time
}

// NewBuilder creates a profile builder over the given event store.
func NewBuilder(store EventStore) *Builder {
	return &Builder{store: store, now: time.Now}
}

// Build queries the event store over the lookback window and derives a
// listener profile. A store that keeps failing after one retry degrades
// to the empty "no data" profile rather than failing the request. An
// invalid window is a caller bug and is surfaced immediately.
func (b *Builder) Build(ctx context.Context, windowDays int) (*profile.Listener, error) {
	if windowDays <= 0 || windowDays > MaxWindowDays {
		return nil, ErrInvalidWindow
	}

	now := b.now()
	since := now.AddDate(0, 0, -windowDays)

	var events []event.Listening
	err := retry.Do(
		func() error {
			var qerr error
			events, qerr = b.store.Query(ctx, since, now)
			return qerr
		},
		retry.Attempts(2),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		zlog.Warn().Err(err).Int("window_days", windowDays).
			Msg("event store unavailable, returning empty profile")
		return emptyProfile(windowDays), nil
	}

	return BuildFromEvents(events, windowDays, now)
}

// BuildFromEvents derives a listener profile from an already loaded
// event set. Building twice from the same events and window yields
// identical profiles.
func BuildFromEvents(events []event.Listening, windowDays int, now time.Time) (*profile.Listener, error) {
	tables, err := Aggregate(events, windowDays, now)
	if err != nil {
		return nil, err
	}

	p := emptyProfile(windowDays)
	p.TotalTracksPlayed = tables.TotalEvents
	p.TotalHours = tables.TotalPlay.Hours()
	p.SkipRate = tables.SkipRate()
	p.GenreDiversityScore = DiversityScore(tables.Genre)
	p.ArtistDiversityScore = DiversityScore(tables.Artist)

	for _, r := range tables.Track.Top(favoriteCount) {
		p.FavoriteTracks = append(p.FavoriteTracks, profile.RankedTrack{
			ID:    r.Key,
			Name:  tables.TrackNames[r.Key],
			Plays: r.Count,
		})
	}
	for _, r := range tables.Artist.Top(favoriteCount) {
		p.FavoriteArtists = append(p.FavoriteArtists, profile.RankedArtist{
			ID:    r.Key,
			Name:  tables.ArtistNames[r.Key],
			Plays: r.Count,
		})
	}
	for _, r := range tables.Genre.Top(favoriteCount) {
		p.FavoriteGenres = append(p.FavoriteGenres, r.Key)
	}

	if hour, ok := tables.Hour.Max(); ok {
		p.PeakListeningHour = hour
	}
	for _, period := range periods {
		count := 0
		for h := period.from; h <= period.to; h++ {
			count += tables.Hour.Count(h)
		}
		p.ListeningPeriods[period.name] = count
	}

	if mood, ok := tables.Mood.Max(); ok && tables.Mood.Len() > 0 {
		p.DominantMood = mood
	}
	p.MoodTransitionCount = moodTransitions(events, now.AddDate(0, 0, -windowDays))

	p.EmergingArtists = emergingArtists(events, p.FavoriteArtists, now)
	p.Recommendations = recommendations(p, tables)

	return p, nil
}

// moodTransitions counts adjacent mood changes across mood-labelled
// events inside the window, ordered by timestamp.
func moodTransitions(events []event.Listening, since time.Time) int {
	moods := make([]event.Listening, 0, len(events))
	for _, ev := range events {
		if ev.Mood != "" && !ev.PlayedAt.Before(since) {
			moods = append(moods, ev)
		}
	}
	sort.Slice(moods, func(i, j int) bool {
		return moods[i].PlayedAt.Before(moods[j].PlayedAt)
	})

	transitions := 0
	for i := 1; i < len(moods); i++ {
		if moods[i].Mood != moods[i-1].Mood {
			transitions++
		}
	}
	return transitions
}

// emergingArtists lists artists played in the last week that are not in
// the listener's all-window top 5.
func emergingArtists(events []event.Listening, favorites []profile.RankedArtist, now time.Time) []string {
	weekAgo := now.AddDate(0, 0, -emergingWindowDays)
	recent := NewTable[string]()
	names := make(map[string]string)
	for _, ev := range events {
		if ev.ArtistID == "" || ev.PlayedAt.Before(weekAgo) {
			continue
		}
		recent.Observe(ev.ArtistID, ev.PlayedAt)
		if _, ok := names[ev.ArtistID]; !ok {
			names[ev.ArtistID] = ev.ArtistName
		}
	}

	established := make(map[string]bool)
	for i, fav := range favorites {
		if i >= 5 {
			break
		}
		established[fav.ID] = true
	}

	var emerging []string
	for _, r := range recent.Top(favoriteCount) {
		if !established[r.Key] {
			emerging = append(emerging, names[r.Key])
		}
	}
	return emerging
}

func emptyProfile(windowDays int) *profile.Listener {
	return &profile.Listener{
		WindowDays:        windowDays,
		PeakListeningHour: 12,
		ListeningPeriods:  make(map[string]int),
	}
}
