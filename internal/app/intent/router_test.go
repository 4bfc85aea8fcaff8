package intent

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottara/tunebox/internal/app/analytics"
	appdiscovery "github.com/ottara/tunebox/internal/app/discovery"
	"github.com/ottara/tunebox/internal/app/planner"
	"github.com/ottara/tunebox/internal/domain/discovery"
	"github.com/ottara/tunebox/internal/domain/event"
	"github.com/ottara/tunebox/internal/domain/track"
)

var testMessages = Messages{
	Unhandled:           "I did not catch that.",
	DefaultError:        "Something went wrong.",
	InvalidWindow:       "That lookback window is out of range.",
	NoSeedData:          "I need more listening history first.",
	UnknownActivity:     "I do not know that activity.",
	InsufficientCatalog: "I could not find enough tracks.",
}

type stubHandler struct {
	label string
	reply Reply
	err   error
}

func (h *stubHandler) Name() string { return h.label }

func (h *stubHandler) Handle(ctx context.Context, slots map[string]string) (Reply, error) {
	return h.reply, h.err
}

func TestRouter_Route_Dispatch(t *testing.T) {
	r := NewRouter(testMessages)
	r.Register(&stubHandler{label: "GREET", reply: Reply{Text: "hello"}})

	reply := r.Route(context.Background(), Result{Label: "GREET"})

	assert.True(t, reply.Handled)
	assert.Equal(t, "hello", reply.Text)
}

func TestRouter_Route_UnknownLabel(t *testing.T) {
	r := NewRouter(testMessages)
	r.Register(&stubHandler{label: "GREET"})

	reply := r.Route(context.Background(), Result{Label: "WEATHER"})

	assert.False(t, reply.Handled)
	assert.Equal(t, testMessages.Unhandled, reply.Text)
}

func TestRouter_Route_TranslatesSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "invalid window",
			err:  analytics.ErrInvalidWindow,
			want: testMessages.InvalidWindow,
		},
		{
			name: "wrapped invalid window",
			err:  errors.Wrap(analytics.ErrInvalidWindow, "handler"),
			want: testMessages.InvalidWindow,
		},
		{
			name: "no seed data",
			err:  appdiscovery.ErrNoSeedData,
			want: testMessages.NoSeedData,
		},
		{
			name: "unknown activity",
			err:  errors.Wrapf(planner.ErrUnknownActivity, "%q", "skydiving"),
			want: testMessages.UnknownActivity,
		},
		{
			name: "insufficient catalog",
			err:  planner.ErrInsufficientCatalog,
			want: testMessages.InsufficientCatalog,
		},
		{
			name: "anything else gets the default text",
			err:  errors.New("connection reset"),
			want: testMessages.DefaultError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(testMessages)
			r.Register(&stubHandler{label: "FAIL", err: tt.err})

			reply := r.Route(context.Background(), Result{Label: "FAIL"})

			assert.True(t, reply.Handled)
			assert.Equal(t, tt.want, reply.Text)
			assert.Nil(t, reply.Profile)
			assert.Nil(t, reply.Plan)
		})
	}
}

func TestRouter_Labels(t *testing.T) {
	r := NewRouter(testMessages)
	r.Register(&stubHandler{label: "A"})
	r.Register(&stubHandler{label: "B"})

	assert.ElementsMatch(t, []string{"A", "B"}, r.Labels())
}

type fakeStore struct {
	events []event.Listening
}

func (s *fakeStore) Query(ctx context.Context, from, to time.Time) ([]event.Listening, error) {
	var out []event.Listening
	for _, ev := range s.events {
		if !ev.PlayedAt.Before(from) && !ev.PlayedAt.After(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func recentEvents(n int) []event.Listening {
	events := make([]event.Listening, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, event.Listening{
			TrackID:      "t1",
			TrackName:    "Song",
			ArtistID:     "a1",
			ArtistName:   "Artist",
			Genres:       []string{"indie rock"},
			PlayedAt:     time.Now().Add(-time.Duration(i+1) * time.Hour),
			PlayDuration: 3 * time.Minute,
		})
	}
	return events
}

func TestAnalyzeHandler_Handle(t *testing.T) {
	h := &AnalyzeHandler{
		Builder:           analytics.NewBuilder(&fakeStore{events: recentEvents(4)}),
		DefaultWindowDays: 30,
	}

	reply, err := h.Handle(context.Background(), nil)
	require.NoError(t, err)

	require.NotNil(t, reply.Profile)
	assert.Equal(t, 30, reply.Profile.WindowDays)
	assert.Equal(t, 4, reply.Profile.TotalTracksPlayed)
	assert.Contains(t, reply.Text, "4 tracks")
}

func TestAnalyzeHandler_Handle_WindowSlot(t *testing.T) {
	h := &AnalyzeHandler{
		Builder:           analytics.NewBuilder(&fakeStore{}),
		DefaultWindowDays: 30,
	}

	reply, err := h.Handle(context.Background(), map[string]string{SlotWindowDays: "7"})
	require.NoError(t, err)
	assert.Equal(t, 7, reply.Profile.WindowDays)
	assert.Contains(t, reply.Text, "No plays recorded")

	_, err = h.Handle(context.Background(), map[string]string{SlotWindowDays: "soon"})
	assert.ErrorIs(t, err, analytics.ErrInvalidWindow)

	_, err = h.Handle(context.Background(), map[string]string{SlotWindowDays: "-3"})
	assert.ErrorIs(t, err, analytics.ErrInvalidWindow)
}

type nopCatalog struct{}

func (nopCatalog) SimilarArtists(context.Context, string) ([]discovery.Ref, error) {
	return nil, nil
}

func (nopCatalog) CollaborationsOf(context.Context, string) ([]discovery.Ref, error) {
	return nil, nil
}

func (nopCatalog) RemixesOf(context.Context, string) ([]discovery.Ref, error) {
	return nil, nil
}

func (nopCatalog) HistoricalInfluences(context.Context, string) ([]discovery.Ref, error) {
	return nil, nil
}

func (nopCatalog) TrendingInGenre(context.Context, string) ([]discovery.Ref, error) {
	return nil, nil
}

func (nopCatalog) ArtistPopularity(context.Context, string) (float64, error) {
	return 1, nil
}

type emptyTrackCatalog struct{}

func (emptyTrackCatalog) TracksByBPM(context.Context, []string, float64, float64, int) ([]track.Track, error) {
	return nil, nil
}

func TestDiscoveryHandler_Handle_NoSeeds(t *testing.T) {
	h := &DiscoveryHandler{
		Builder:           analytics.NewBuilder(&fakeStore{}),
		Engine:            appdiscovery.New(nopCatalog{}),
		DefaultWindowDays: 30,
	}

	_, err := h.Handle(context.Background(), nil)
	assert.ErrorIs(t, err, appdiscovery.ErrNoSeedData)
}

func TestActivityPlaylistHandler_Handle_UnknownActivity(t *testing.T) {
	h := &ActivityPlaylistHandler{
		Builder:           analytics.NewBuilder(&fakeStore{events: recentEvents(2)}),
		Planner:           planner.New(emptyTrackCatalog{}),
		DefaultWindowDays: 30,
		DefaultLength:     20,
	}

	_, err := h.Handle(context.Background(), map[string]string{SlotActivity: "skydiving"})
	assert.ErrorIs(t, err, planner.ErrUnknownActivity)
}

func TestCategories_SlotParsing(t *testing.T) {
	got := categories(map[string]string{
		SlotCategories: " Underrated, remix ,,EMERGING_TREND ",
	})

	require.Len(t, got, 3)
	assert.Equal(t, "underrated", string(got[0]))
	assert.Equal(t, "remix", string(got[1]))
	assert.Equal(t, "emerging_trend", string(got[2]))

	assert.Nil(t, categories(nil))
	assert.Nil(t, categories(map[string]string{SlotCategories: "  "}))
}
