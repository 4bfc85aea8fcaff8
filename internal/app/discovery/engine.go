// Package discovery surfaces artist and track candidates from catalog
// signals using similarity and popularity-inversion heuristics.
package discovery

import (
	"context"
	"fmt"
	"sort"

	"github.com/avast/retry-go"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/ottara/tunebox/internal/domain/discovery"
	"github.com/ottara/tunebox/internal/domain/profile"
)

// ErrNoSeedData is returned when the profile carries no favorite
// artists or tracks to seed catalog lookups. This is a defined
// empty-precondition outcome, not a fault: the caller should ask the
// user for more listening history.
var ErrNoSeedData = errors.New("profile has no favorite artists or tracks to seed discovery")

const (
	seedCount      = 5
	maxPerCategory = 5

	// Underrated gate: close to the seed's taste but far below its reach.
	underratedMinSimilarity = 0.6
	underratedMaxPopularity = 0.3
)

// Catalog is the injected lookup capability over the music catalog.
// All affinity and popularity signals must arrive pre-normalized to
// [0,1]; adapters own that normalization.
type Catalog interface {
	SimilarArtists(ctx context.Context, artistID string) ([]discovery.Ref, error)
	CollaborationsOf(ctx context.Context, artistID string) ([]discovery.Ref, error)
	RemixesOf(ctx context.Context, trackID string) ([]discovery.Ref, error)
	HistoricalInfluences(ctx context.Context, artistID string) ([]discovery.Ref, error)
	TrendingInGenre(ctx context.Context, genre string) ([]discovery.Ref, error)
	ArtistPopularity(ctx context.Context, artistID string) (float64, error)
}

// Engine produces ranked discovery candidates for a listener profile.
type Engine struct {
	catalog Catalog
}

// New creates a discovery engine over the given catalog.
func New(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Discover queries the catalog seeded by the profile's favorites and
// returns candidates grouped by category in the requested order. A
// category whose lookups keep failing after one retry is dropped from
// the result; only when every requested category fails does Discover
// return an error. Candidates already among the favorites are excluded.
func (e *Engine) Discover(ctx context.Context, p *profile.Listener, categories []discovery.Category) ([]discovery.Candidate, error) {
	if !p.HasSeeds() {
		return nil, ErrNoSeedData
	}
	if len(categories) == 0 {
		categories = discovery.Categories()
	}

	known := favoriteSet(p)
	var out []discovery.Candidate
	failed := 0
	var lastErr error

	for _, cat := range categories {
		if !cat.Valid() {
			zlog.Warn().Str("category", string(cat)).Msg("skipping unknown discovery category")
			failed++
			continue
		}

		candidates, err := e.discoverCategory(ctx, p, cat, known)
		if err != nil {
			zlog.Warn().Err(err).Str("category", string(cat)).
				Msg("discovery category failed, returning partial results")
			failed++
			lastErr = err
			continue
		}
		out = append(out, candidates...)
	}

	if failed == len(categories) {
		if lastErr != nil {
			return nil, errors.Wrap(lastErr, "all discovery categories failed")
		}
		return nil, errors.New("no valid discovery categories requested")
	}
	return out, nil
}

func (e *Engine) discoverCategory(ctx context.Context, p *profile.Listener, cat discovery.Category, known map[string]bool) ([]discovery.Candidate, error) {
	var (
		candidates []discovery.Candidate
		calls      int
		failures   int
		lastErr    error
	)

	collect := func(refs []discovery.Ref, seedPop float64, rationale string) {
		for _, ref := range refs {
			if ref.ID == "" || known[ref.ID] {
				continue
			}

			c := discovery.Candidate{
				ID:         ref.ID,
				Name:       ref.Name,
				Category:   cat,
				Similarity: clamp01(ref.Affinity),
				Popularity: relativePopularity(ref.Popularity, seedPop),
				Rationale:  rationale,
			}
			// A ref that misses the gate stays eligible for other
			// categories and seeds; only accepted candidates count as
			// consumed.
			if cat == discovery.CategoryUnderrated &&
				(c.Similarity < underratedMinSimilarity || c.Popularity > underratedMaxPopularity) {
				continue
			}
			known[ref.ID] = true
			candidates = append(candidates, c)
		}
	}

	lookup := func(fn func() ([]discovery.Ref, error)) ([]discovery.Ref, error) {
		calls++
		var refs []discovery.Ref
		err := retry.Do(
			func() error {
				var lerr error
				refs, lerr = fn()
				return lerr
			},
			retry.Attempts(2),
			retry.Context(ctx),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			failures++
			lastErr = err
		}
		return refs, err
	}

	switch cat {
	case discovery.CategoryUnderrated:
		for _, seed := range p.SeedArtists(seedCount) {
			seedPop := e.seedPopularity(ctx, seed.ID)
			refs, err := lookup(func() ([]discovery.Ref, error) {
				return e.catalog.SimilarArtists(ctx, seed.ID)
			})
			if err != nil {
				continue
			}
			collect(refs, seedPop, fmt.Sprintf("close to %s, with a fraction of the listeners", seed.Name))
		}

	case discovery.CategoryRareCollaboration:
		for _, seed := range p.SeedArtists(seedCount) {
			refs, err := lookup(func() ([]discovery.Ref, error) {
				return e.catalog.CollaborationsOf(ctx, seed.ID)
			})
			if err != nil {
				continue
			}
			collect(refs, 1, fmt.Sprintf("recorded with %s", seed.Name))
		}

	case discovery.CategoryRemix:
		for _, seed := range p.SeedTracks(seedCount) {
			refs, err := lookup(func() ([]discovery.Ref, error) {
				return e.catalog.RemixesOf(ctx, seed.ID)
			})
			if err != nil {
				continue
			}
			collect(refs, 1, fmt.Sprintf("alternate take on %s", seed.Name))
		}

	case discovery.CategoryHistoricalInfluence:
		for _, seed := range p.SeedArtists(seedCount) {
			refs, err := lookup(func() ([]discovery.Ref, error) {
				return e.catalog.HistoricalInfluences(ctx, seed.ID)
			})
			if err != nil {
				continue
			}
			collect(refs, 1, fmt.Sprintf("shaped the sound behind %s", seed.Name))
		}

	case discovery.CategoryEmergingTrend:
		genres := p.FavoriteGenres
		if len(genres) > seedCount {
			genres = genres[:seedCount]
		}
		for _, genre := range genres {
			refs, err := lookup(func() ([]discovery.Ref, error) {
				return e.catalog.TrendingInGenre(ctx, genre)
			})
			if err != nil {
				continue
			}
			collect(refs, 1, fmt.Sprintf("picking up steam in %s", genre))
		}
	}

	if calls > 0 && failures == calls {
		return nil, errors.Wrapf(lastErr, "category %s: all catalog lookups failed", cat)
	}

	sortCandidates(candidates)
	if len(candidates) > maxPerCategory {
		candidates = candidates[:maxPerCategory]
	}
	return candidates, nil
}

// seedPopularity resolves the seed artist's own popularity for relative
// normalization. Lookup failure falls back to 1 so candidate popularity
// passes through unscaled.
func (e *Engine) seedPopularity(ctx context.Context, artistID string) float64 {
	pop, err := e.catalog.ArtistPopularity(ctx, artistID)
	if err != nil || pop <= 0 {
		return 1
	}
	return clamp01(pop)
}

// sortCandidates orders by similarity descending, then popularity
// ascending to favor under-the-radar items, then name for determinism.
func sortCandidates(candidates []discovery.Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.Popularity != b.Popularity {
			return a.Popularity < b.Popularity
		}
		return a.Name < b.Name
	})
}

func favoriteSet(p *profile.Listener) map[string]bool {
	known := make(map[string]bool)
	for _, t := range p.FavoriteTracks {
		known[t.ID] = true
	}
	for _, a := range p.FavoriteArtists {
		known[a.ID] = true
	}
	return known
}

func relativePopularity(candidate, seed float64) float64 {
	if seed <= 0 {
		seed = 1
	}
	return clamp01(clamp01(candidate) / seed)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
