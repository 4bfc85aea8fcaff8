package planner

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/ottara/tunebox/internal/domain/playlist"
	"github.com/ottara/tunebox/internal/domain/profile"
	"github.com/ottara/tunebox/internal/domain/track"
)

// ErrInsufficientCatalog is returned when the catalog cannot supply a
// single track for some phase even at the widest BPM tolerance.
var ErrInsufficientCatalog = errors.New("catalog cannot fill the playlist")

const (
	// MaxLength bounds a single playlist request.
	MaxLength = 50

	// Widest slack applied around the activity envelope before giving up.
	envelopeSlackBPM = 15

	// Fallback duration estimate for tracks without a known length.
	defaultTrackLength = 210 * time.Second
)

// Catalog is the injected track-lookup capability for playlist
// synthesis. A nil or empty genres slice means no genre restriction.
type Catalog interface {
	TracksByBPM(ctx context.Context, genres []string, minBPM, maxBPM float64, limit int) ([]track.Track, error)
}

// Planner builds ordered playlists for activities.
type Planner struct {
	catalog    Catalog
	activities map[string]Activity
	rng        *rand.Rand
}

// Option configures a Planner.
type Option func(*Planner)

// WithActivities replaces or extends the canonical activity table.
func WithActivities(overrides map[string]Activity) Option {
	return func(p *Planner) {
		for tag, a := range overrides {
			p.activities[strings.ToLower(tag)] = a
		}
	}
}

// WithRand injects the random source used for playlist naming, so
// callers can make naming deterministic.
func WithRand(rng *rand.Rand) Option {
	return func(p *Planner) {
		p.rng = rng
	}
}

// New creates a planner over the given catalog.
func New(catalog Catalog, opts ...Option) *Planner {
	p := &Planner{
		catalog:    catalog,
		activities: DefaultActivities(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Activities returns the configured activity table keyed by tag.
func (p *Planner) Activities() map[string]Activity {
	out := make(map[string]Activity, len(p.activities))
	for tag, a := range p.activities {
		out[tag] = a
	}
	return out
}

// Plan builds an ordered track sequence of exactly length slots for the
// activity, honoring its BPM envelope and energy arc. The activity tag
// is matched case-insensitively. Tracks already among the listener's
// favorites are preferred over novel catalog picks within each phase.
func (p *Planner) Plan(ctx context.Context, activityTag string, prof *profile.Listener, length int) (*playlist.Plan, error) {
	activity, ok := p.activities[strings.ToLower(strings.TrimSpace(activityTag))]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownActivity, "%q", activityTag)
	}
	if length < 1 || length > MaxLength {
		return nil, errors.Newf("playlist length must be between 1 and %d, got %d", MaxLength, length)
	}

	genres := genrePool(prof, activity)
	slots := allocateSlots(length, activity.Arc)
	favorites := favoriteTrackIDs(prof)

	plan := &playlist.Plan{
		ID:       uuid.NewString(),
		Activity: activity.Tag,
		Name:     p.generateName(activity.Tag),
	}

	used := make(map[string]bool)
	for i, phase := range activity.Arc {
		if slots[i] == 0 {
			continue
		}

		picks, err := p.fillPhase(ctx, activity, phase, genres, slots[i], favorites, used)
		if err != nil {
			return nil, err
		}

		orderByArc(picks, direction(activity.Arc, i))
		for _, t := range picks {
			bpm := t.BPM
			if !t.HasBPM() {
				bpm = activity.TargetBPM(phase.Energy)
			}
			plan.Entries = append(plan.Entries, playlist.Entry{
				TrackID:   t.ID,
				TrackName: t.Name,
				TargetBPM: bpm,
				Phase:     phase.Name,
			})
			if t.Duration > 0 {
				plan.TotalDuration += t.Duration
			} else {
				plan.TotalDuration += defaultTrackLength
			}
		}
	}

	zlog.Debug().Str("activity", activity.Tag).Int("length", length).
		Str("name", plan.Name).Msg("playlist planned")
	return plan, nil
}

// fillPhase selects count tracks whose BPM falls inside the phase's
// interpolated window, widening the tolerance and relaxing the genre
// restriction until the phase is filled.
func (p *Planner) fillPhase(ctx context.Context, activity Activity, phase Phase, genres []string, count int, favorites map[string]bool, used map[string]bool) ([]track.Track, error) {
	target := activity.TargetBPM(phase.Energy)
	span := activity.BPMMax - activity.BPMMin
	baseTolerance := span * 0.15
	if baseTolerance < 4 {
		baseTolerance = 4
	}

	windows := [][2]float64{
		{target - baseTolerance, target + baseTolerance},
		{target - 2*baseTolerance, target + 2*baseTolerance},
		{activity.BPMMin - envelopeSlackBPM, activity.BPMMax + envelopeSlackBPM},
	}
	genreTiers := [][]string{genres, activity.Genres, nil}

	var picks []track.Track
	for _, tier := range genreTiers {
		for _, window := range windows {
			if len(picks) >= count {
				return picks[:count], nil
			}

			pool, err := p.lookupTracks(ctx, tier, window[0], window[1], count*3)
			if err != nil {
				return nil, errors.Wrapf(err, "phase %s: catalog lookup failed", phase.Name)
			}

			preferFavorites(pool, favorites)
			for _, t := range pool {
				if used[t.ID] {
					continue
				}
				used[t.ID] = true
				picks = append(picks, t)
				if len(picks) >= count {
					return picks, nil
				}
			}
		}
	}

	if len(picks) == 0 {
		return nil, errors.Wrapf(ErrInsufficientCatalog,
			"phase %s needs %d tracks around %.0f BPM", phase.Name, count, target)
	}
	return nil, errors.Wrapf(ErrInsufficientCatalog,
		"phase %s: only %d of %d tracks available", phase.Name, len(picks), count)
}

// lookupTracks queries the catalog with a single retry.
func (p *Planner) lookupTracks(ctx context.Context, genres []string, minBPM, maxBPM float64, limit int) ([]track.Track, error) {
	var pool []track.Track
	err := retry.Do(
		func() error {
			var lerr error
			pool, lerr = p.catalog.TracksByBPM(ctx, genres, minBPM, maxBPM, limit)
			return lerr
		},
		retry.Attempts(2),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	return pool, err
}

// generateName combines the activity tag with an adjective drawn from a
// fixed pool using the injected random source.
func (p *Planner) generateName(tag string) string {
	adjectives := []string{
		"Electric", "Golden", "Midnight", "Velvet",
		"Neon", "Wild", "Cosmic", "Smooth",
	}
	adj := adjectives[p.rng.Intn(len(adjectives))]

	words := strings.Split(tag, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return adj + " " + strings.Join(words, " ") + " Session"
}

// genrePool intersects the listener's favorite genres with the
// activity's preferred genres, falling back to the activity's own list
// when the intersection is empty.
func genrePool(prof *profile.Listener, activity Activity) []string {
	if prof == nil {
		return activity.Genres
	}

	preferred := make(map[string]bool, len(activity.Genres))
	for _, g := range activity.Genres {
		preferred[strings.ToLower(g)] = true
	}

	var pool []string
	for _, g := range prof.FavoriteGenres {
		if preferred[strings.ToLower(g)] {
			pool = append(pool, g)
		}
	}
	if len(pool) == 0 {
		return activity.Genres
	}
	return pool
}

// direction resolves whether phase i of the arc is rising or falling,
// so track BPM can be ordered monotonically along it.
func direction(arc []Phase, i int) int {
	switch {
	case len(arc) == 1:
		return 1
	case i+1 < len(arc):
		if arc[i+1].Energy >= arc[i].Energy {
			return 1
		}
		return -1
	default:
		if arc[i].Energy >= arc[i-1].Energy {
			return 1
		}
		return -1
	}
}

func orderByArc(tracks []track.Track, dir int) {
	sort.SliceStable(tracks, func(i, j int) bool {
		if dir >= 0 {
			return tracks[i].BPM < tracks[j].BPM
		}
		return tracks[i].BPM > tracks[j].BPM
	})
}

// preferFavorites stably moves the listener's favorites to the front of
// the pool so they win over novel picks.
func preferFavorites(pool []track.Track, favorites map[string]bool) {
	sort.SliceStable(pool, func(i, j int) bool {
		return favorites[pool[i].ID] && !favorites[pool[j].ID]
	})
}

func favoriteTrackIDs(prof *profile.Listener) map[string]bool {
	out := make(map[string]bool)
	if prof == nil {
		return out
	}
	for _, t := range prof.FavoriteTracks {
		out[t.ID] = true
	}
	return out
}
