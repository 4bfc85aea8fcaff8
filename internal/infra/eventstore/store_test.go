package eventstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottara/tunebox/internal/domain/event"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func listenAt(trackID string, at time.Time) event.Listening {
	return event.Listening{
		TrackID:      trackID,
		TrackName:    "Track " + trackID,
		ArtistID:     "a1",
		ArtistName:   "Artist One",
		Genres:       []string{"indie rock", "shoegaze"},
		Mood:         "feliz",
		PlayedAt:     at,
		PlayDuration: 3 * time.Minute,
	}
}

func TestStore_AppendAndQueryRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	ev := listenAt("t1", base)
	ev.Skipped = true
	require.NoError(t, store.Append(ctx, ev))

	got, err := store.Query(ctx, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "t1", got[0].TrackID)
	assert.Equal(t, "Track t1", got[0].TrackName)
	assert.Equal(t, "a1", got[0].ArtistID)
	assert.Equal(t, "Artist One", got[0].ArtistName)
	assert.Equal(t, []string{"indie rock", "shoegaze"}, got[0].Genres)
	assert.Equal(t, "feliz", got[0].Mood)
	assert.True(t, got[0].Skipped)
	assert.Equal(t, 3*time.Minute, got[0].PlayDuration)
	assert.True(t, got[0].PlayedAt.Equal(base))
}

func TestStore_QueryRangeAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	batch := []event.Listening{
		listenAt("t3", base.Add(72*time.Hour)),
		listenAt("t1", base.Add(1*time.Hour)),
		listenAt("t2", base.Add(24*time.Hour)),
	}
	require.NoError(t, store.AppendBatch(ctx, batch))

	got, err := store.Query(ctx, base, base.Add(48*time.Hour))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].TrackID)
	assert.Equal(t, "t2", got[1].TrackID)
}

func TestStore_QueryBoundsInclusive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, listenAt("t1", base)))

	got, err := store.Query(ctx, base, base)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = store.Query(ctx, base.Add(time.Second), base.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_AppendBatchEmpty(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AppendBatch(context.Background(), nil))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_Count(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	batch := make([]event.Listening, 0, 5)
	for i := 0; i < 5; i++ {
		batch = append(batch, listenAt("t1", base.Add(time.Duration(i)*time.Minute)))
	}
	require.NoError(t, store.AppendBatch(ctx, batch))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}

func TestStore_EmptyGenresRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	ev := listenAt("t1", base)
	ev.Genres = nil
	require.NoError(t, store.Append(ctx, ev))

	got, err := store.Query(ctx, base.Add(-time.Minute), base.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Genres)
}
