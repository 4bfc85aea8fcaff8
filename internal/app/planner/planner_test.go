package planner

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottara/tunebox/internal/domain/profile"
	"github.com/ottara/tunebox/internal/domain/track"
)

// fakeCatalog serves tracks from a fixed pool, filtering by BPM window
// and genre the way a real provider would.
type fakeCatalog struct {
	tracks []track.Track
	err    error
	calls  [][]string
}

func (c *fakeCatalog) TracksByBPM(ctx context.Context, genres []string, minBPM, maxBPM float64, limit int) ([]track.Track, error) {
	c.calls = append(c.calls, genres)
	if c.err != nil {
		return nil, c.err
	}

	var out []track.Track
	for _, t := range c.tracks {
		if t.BPM < minBPM || t.BPM > maxBPM {
			continue
		}
		if len(genres) > 0 && !t.MatchesGenre(genres) {
			continue
		}
		out = append(out, t)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// denseCatalog generates three tracks per integer BPM from 40 to 170,
// enough to fill any default activity at any length.
func denseCatalog() *fakeCatalog {
	c := &fakeCatalog{}
	for bpm := 40; bpm <= 170; bpm++ {
		for i := 0; i < 3; i++ {
			c.tracks = append(c.tracks, track.Track{
				ID:     fmt.Sprintf("trk-%d-%d", bpm, i),
				Name:   fmt.Sprintf("Track %d-%d", bpm, i),
				BPM:    float64(bpm),
				Genres: []string{"electronic"},
			})
		}
	}
	return c
}

func TestPlanner_Plan_LengthMatchesRequest(t *testing.T) {
	p := New(denseCatalog())

	for length := 1; length <= MaxLength; length++ {
		plan, err := p.Plan(context.Background(), "workout", nil, length)
		require.NoError(t, err, "length %d", length)
		assert.Equal(t, length, plan.Len(), "length %d", length)
	}
}

func TestPlanner_Plan_AllDefaultActivities(t *testing.T) {
	p := New(denseCatalog())

	for tag := range DefaultActivities() {
		t.Run(tag, func(t *testing.T) {
			plan, err := p.Plan(context.Background(), tag, nil, 12)
			require.NoError(t, err)
			assert.Equal(t, 12, plan.Len())
			assert.Equal(t, tag, plan.Activity)
			assert.NotEmpty(t, plan.Name)
			assert.Positive(t, plan.TotalDuration)
		})
	}
}

func TestPlanner_Plan_WorkoutArc(t *testing.T) {
	p := New(denseCatalog())

	plan, err := p.Plan(context.Background(), "workout", nil, 20)
	require.NoError(t, err)

	counts := plan.PhaseCounts()
	assert.Equal(t, 5, counts["warmup"])
	assert.Equal(t, 10, counts["push"])
	assert.Equal(t, 5, counts["peak"])

	// Warmup sits near the low end of the envelope, peak near the top.
	first, last := plan.Entries[0], plan.Entries[len(plan.Entries)-1]
	assert.Equal(t, "warmup", first.Phase)
	assert.InDelta(t, 134, first.TargetBPM, 4)
	assert.Equal(t, "peak", last.Phase)
	assert.InDelta(t, 150, last.TargetBPM, 4)

	// BPM rises monotonically within each rising phase.
	for i := 1; i < len(plan.Entries); i++ {
		if plan.Entries[i].Phase != plan.Entries[i-1].Phase {
			continue
		}
		assert.GreaterOrEqual(t, plan.Entries[i].TargetBPM, plan.Entries[i-1].TargetBPM)
	}
}

func TestPlanner_Plan_UnknownActivity(t *testing.T) {
	p := New(denseCatalog())

	_, err := p.Plan(context.Background(), "skydiving", nil, 10)
	assert.ErrorIs(t, err, ErrUnknownActivity)
}

func TestPlanner_Plan_TagCaseInsensitive(t *testing.T) {
	p := New(denseCatalog())

	plan, err := p.Plan(context.Background(), "  WORKOUT ", nil, 5)
	require.NoError(t, err)
	assert.Equal(t, "workout", plan.Activity)
}

func TestPlanner_Plan_LengthBounds(t *testing.T) {
	p := New(denseCatalog())

	_, err := p.Plan(context.Background(), "workout", nil, 0)
	assert.Error(t, err)

	_, err = p.Plan(context.Background(), "workout", nil, MaxLength+1)
	assert.Error(t, err)
}

func TestPlanner_Plan_EmptyCatalog(t *testing.T) {
	p := New(&fakeCatalog{})

	_, err := p.Plan(context.Background(), "workout", nil, 10)
	assert.ErrorIs(t, err, ErrInsufficientCatalog)
}

func TestPlanner_Plan_CatalogFailure(t *testing.T) {
	p := New(&fakeCatalog{err: errors.New("provider down")})

	_, err := p.Plan(context.Background(), "workout", nil, 10)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientCatalog)
	assert.Contains(t, err.Error(), "catalog lookup failed")
}

func TestPlanner_Plan_PrefersFavorites(t *testing.T) {
	catalog := denseCatalog()
	p := New(catalog)

	// Without the preference the warmup phase fills from the lowest
	// BPMs first and never reaches this track.
	prof := &profile.Listener{
		FavoriteTracks: []profile.RankedTrack{{ID: "trk-134-2", Name: "Track 134-2", Plays: 9}},
	}

	plan, err := p.Plan(context.Background(), "workout", prof, 20)
	require.NoError(t, err)
	assert.Contains(t, plan.TrackIDs(), "trk-134-2")
}

func TestPlanner_Plan_GenreTiers(t *testing.T) {
	catalog := denseCatalog()
	p := New(catalog)

	// "hip hop" intersects the workout genres but matches nothing in
	// the catalog, so the planner must fall back to the activity's own
	// genre list before filling.
	prof := &profile.Listener{FavoriteGenres: []string{"hip hop", "sertanejo"}}

	plan, err := p.Plan(context.Background(), "workout", prof, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, plan.Len())

	require.NotEmpty(t, catalog.calls)
	assert.Equal(t, []string{"hip hop"}, catalog.calls[0])

	broadened := false
	for _, genres := range catalog.calls {
		if len(genres) == len(DefaultActivities()["workout"].Genres) {
			broadened = true
		}
	}
	assert.True(t, broadened, "expected a fallback call with the activity genre list")
}

func TestPlanner_Plan_NameDeterministicWithSeed(t *testing.T) {
	a := New(denseCatalog(), WithRand(rand.New(rand.NewSource(42))))
	b := New(denseCatalog(), WithRand(rand.New(rand.NewSource(42))))

	planA, err := a.Plan(context.Background(), "work_focus", nil, 6)
	require.NoError(t, err)
	planB, err := b.Plan(context.Background(), "work_focus", nil, 6)
	require.NoError(t, err)

	assert.Equal(t, planA.Name, planB.Name)
	assert.True(t, strings.HasSuffix(planA.Name, "Work Focus Session"), planA.Name)
}

func TestPlanner_Plan_ActivityOverride(t *testing.T) {
	override := Activity{
		Tag: "spin", BPMMin: 100, BPMMax: 120,
		Genres: []string{"electronic"},
		Arc: []Phase{
			{Name: "ride", Energy: 0.5, Fraction: 1},
		},
	}
	p := New(denseCatalog(), WithActivities(map[string]Activity{"Spin": override}))

	plan, err := p.Plan(context.Background(), "spin", nil, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, plan.Len())
	for _, e := range plan.Entries {
		assert.Equal(t, "ride", e.Phase)
		assert.GreaterOrEqual(t, e.TargetBPM, 100.0)
		assert.LessOrEqual(t, e.TargetBPM, 120.0)
	}
}
