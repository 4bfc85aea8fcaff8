package lastfm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "test-key"})
	require.NoError(t, err)
	client.baseURL = server.URL + "/"
	return client
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestClient_ArtistInfluences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "artist.getSimilar", r.URL.Query().Get("method"))
		assert.Equal(t, "Caetano Veloso", r.URL.Query().Get("artist"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		w.Write([]byte(`{
			"similarartists": {
				"artist": [
					{"name": "Gilberto Gil", "match": "0.92"},
					{"name": "Gal Costa", "match": "0.78"}
				]
			}
		}`))
	})

	refs, err := client.ArtistInfluences(context.Background(), "Caetano Veloso", 10)
	require.NoError(t, err)

	require.Len(t, refs, 2)
	assert.Equal(t, "lastfm:artist:Gilberto Gil", refs[0].ID)
	assert.Equal(t, "Gilberto Gil", refs[0].Name)
	assert.InDelta(t, 0.92, refs[0].Affinity, 1e-9)
	assert.Equal(t, unknownPopularity, refs[0].Popularity)
	assert.InDelta(t, 0.78, refs[1].Affinity, 1e-9)
}

func TestClient_ArtistInfluences_RequiresName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.ArtistInfluences(context.Background(), "", 10)
	assert.Error(t, err)
}

func TestClient_ArtistInfluences_Cached(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"similarartists": {"artist": [{"name": "Tom Zé", "match": "0.5"}]}}`))
	})

	for i := 0; i < 3; i++ {
		refs, err := client.ArtistInfluences(context.Background(), "Os Mutantes", 10)
		require.NoError(t, err)
		require.Len(t, refs, 1)
	}
	assert.EqualValues(t, 1, hits.Load())

	// A different limit is a different cache entry.
	_, err := client.ArtistInfluences(context.Background(), "Os Mutantes", 5)
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load())
}

func TestClient_TrendingInGenre(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tag.getTopArtists", r.URL.Query().Get("method"))
		assert.Equal(t, "mpb", r.URL.Query().Get("tag"))

		w.Write([]byte(`{
			"topartists": {
				"artist": [
					{"name": "First"},
					{"name": "Second"},
					{"name": "Third"}
				]
			}
		}`))
	})

	refs, err := client.TrendingInGenre(context.Background(), "mpb")
	require.NoError(t, err)

	require.Len(t, refs, 3)
	// Affinity decays with rank, bottoming out at 0.5.
	assert.Equal(t, 1.0, refs[0].Affinity)
	assert.InDelta(t, 0.75, refs[1].Affinity, 1e-9)
	assert.InDelta(t, 0.5, refs[2].Affinity, 1e-9)
}

func TestClient_APIErrorPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": 6, "message": "The artist you supplied could not be found"}`))
	})

	_, err := client.ArtistInfluences(context.Background(), "Nobody", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "last.fm API error 6")
}

func TestClient_MalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := client.TrendingInGenre(context.Background(), "mpb")
	assert.Error(t, err)
}
