// Package spotify provides the catalog adapter over the Spotify API.
package spotify

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/ottara/tunebox/internal/domain/discovery"
	"github.com/ottara/tunebox/internal/domain/track"
)

// Client is a Spotify catalog adapter. All affinity and popularity
// signals leave this adapter normalized to [0,1]; the engines never see
// raw provider counts.
type Client struct {
	client  *spotify.Client
	market  string
	limiter *rate.Limiter
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string
}

// New creates a new Spotify catalog adapter.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopePlaylistModifyPrivate,
		),
	)

	token := &oauth2.Token{RefreshToken: cfg.RefreshToken}
	httpClient := auth.Client(ctx, token)

	market := cfg.Market
	if market == "" {
		market = "BR"
	}

	return &Client{
		client:  spotify.New(httpClient),
		market:  market,
		limiter: rate.NewLimiter(rate.Limit(8), 4),
	}, nil
}

// SimilarArtists returns artists related to the given one. Spotify does
// not expose a numeric match signal, so affinity is derived from the
// provider's own ranking of the related list.
func (c *Client) SimilarArtists(ctx context.Context, artistID string) ([]discovery.Ref, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	artists, err := c.client.GetRelatedArtists(ctx, spotify.ID(artistID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get related artists")
	}

	refs := make([]discovery.Ref, 0, len(artists))
	for i, a := range artists {
		refs = append(refs, discovery.Ref{
			ID:         string(a.ID),
			Name:       a.Name,
			Affinity:   rankAffinity(i, len(artists)),
			Popularity: normalizePopularity(int(a.Popularity)),
		})
	}
	return refs, nil
}

// ArtistPopularity returns the artist's own popularity in [0,1].
func (c *Client) ArtistPopularity(ctx context.Context, artistID string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, errors.Wrap(err, "rate limiter")
	}

	artist, err := c.client.GetArtist(ctx, spotify.ID(artistID))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get artist")
	}
	return normalizePopularity(int(artist.Popularity)), nil
}

// ArtistName resolves an artist ID to its display name.
func (c *Client) ArtistName(ctx context.Context, artistID string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "rate limiter")
	}

	artist, err := c.client.GetArtist(ctx, spotify.ID(artistID))
	if err != nil {
		return "", errors.Wrap(err, "failed to get artist")
	}
	return artist.Name, nil
}

// CollaborationsOf returns artists that appear on tracks together with
// the given artist.
func (c *Client) CollaborationsOf(ctx context.Context, artistID string) ([]discovery.Ref, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	artist, err := c.client.GetArtist(ctx, spotify.ID(artistID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get artist")
	}

	result, err := c.search(ctx, `artist:"`+artist.Name+`"`, 50)
	if err != nil {
		return nil, err
	}

	seen := make(map[spotify.ID]bool)
	var refs []discovery.Ref
	for _, t := range result {
		if len(t.Artists) < 2 {
			continue
		}
		for _, co := range t.Artists {
			if co.ID == spotify.ID(artistID) || seen[co.ID] {
				continue
			}
			seen[co.ID] = true
			refs = append(refs, discovery.Ref{
				ID:   string(co.ID),
				Name: co.Name,
				// Sharing a recording is the affinity signal here.
				Affinity:   0.8,
				Popularity: normalizePopularity(int(t.Popularity)),
			})
		}
	}
	return refs, nil
}

// RemixesOf returns remixes and alternate versions of the given track.
func (c *Client) RemixesOf(ctx context.Context, trackID string) ([]discovery.Ref, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	original, err := c.client.GetTrack(ctx, spotify.ID(trackID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get track")
	}

	result, err := c.search(ctx, original.Name+" remix", 20)
	if err != nil {
		return nil, err
	}

	var refs []discovery.Ref
	for i, t := range result {
		if t.ID == spotify.ID(trackID) {
			continue
		}
		refs = append(refs, discovery.Ref{
			ID:         string(t.ID),
			Name:       t.Name,
			Affinity:   rankAffinity(i, len(result)),
			Popularity: normalizePopularity(int(t.Popularity)),
		})
	}
	return refs, nil
}

// TracksByBPM returns tracks inside the BPM range via the provider's
// recommendation endpoint, seeded by genres when given. Tempo readings
// come from the audio-features endpoint.
func (c *Client) TracksByBPM(ctx context.Context, genres []string, minBPM, maxBPM float64, limit int) ([]track.Track, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	seeds := spotify.Seeds{Genres: seedGenres(genres)}
	attrs := spotify.NewTrackAttributes().
		MinTempo(minBPM).
		MaxTempo(maxBPM)

	recs, err := c.client.GetRecommendations(ctx, seeds, attrs, spotify.Limit(limit), spotify.Market(c.market))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recommendations")
	}

	ids := make([]spotify.ID, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		ids = append(ids, t.ID)
	}
	tempos, err := c.tempos(ctx, ids)
	if err != nil {
		return nil, err
	}

	tracks := make([]track.Track, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		tracks = append(tracks, convertTrack(t, genres, tempos[t.ID]))
	}
	return tracks, nil
}

// convertTrack converts a provider track to the domain entity. Genres
// come from the request seeds because the simplified track payload does
// not carry artist genre tags.
func convertTrack(t spotify.SimpleTrack, genres []string, bpm float64) track.Track {
	url := t.ExternalURLs["spotify"]
	if url == "" {
		url = "https://open.spotify.com/track/" + string(t.ID)
	}
	return track.Track{
		ID:        string(t.ID),
		Name:      t.Name,
		Artists:   artistNames(t.Artists),
		ArtistIDs: artistIDs(t.Artists),
		Album:     t.Album.Name,
		Duration:  time.Duration(t.Duration) * time.Millisecond,
		Genres:    genres,
		BPM:       bpm,
		URL:       url,
	}
}

// CreatePlaylist materializes a plan as a real playlist on the current
// user's account and returns its ID.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string, trackIDs []string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", errors.Wrap(err, "rate limiter")
	}

	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get current user")
	}

	playlist, err := c.client.CreatePlaylistForUser(ctx, user.ID, name, description, false, false)
	if err != nil {
		return "", errors.Wrap(err, "failed to create playlist")
	}

	// Spotify accepts at most 100 tracks per add call.
	for start := 0; start < len(trackIDs); start += 100 {
		end := start + 100
		if end > len(trackIDs) {
			end = len(trackIDs)
		}
		ids := make([]spotify.ID, 0, end-start)
		for _, id := range trackIDs[start:end] {
			ids = append(ids, spotify.ID(id))
		}
		if _, err := c.client.AddTracksToPlaylist(ctx, playlist.ID, ids...); err != nil {
			return "", errors.Wrap(err, "failed to add tracks to playlist")
		}
	}

	return string(playlist.ID), nil
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]spotify.FullTrack, error) {
	result, err := c.client.Search(ctx, query, spotify.SearchTypeTrack,
		spotify.Limit(limit), spotify.Market(c.market))
	if err != nil {
		return nil, errors.Wrap(err, "search failed")
	}
	if result.Tracks == nil {
		return nil, nil
	}
	return result.Tracks.Tracks, nil
}

// tempos fetches audio features in one batch and maps track ID to BPM.
func (c *Client) tempos(ctx context.Context, ids []spotify.ID) (map[spotify.ID]float64, error) {
	out := make(map[spotify.ID]float64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	features, err := c.client.GetAudioFeatures(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get audio features")
	}
	for _, f := range features {
		if f != nil {
			out[f.ID] = float64(f.Tempo)
		}
	}
	return out, nil
}

// normalizePopularity maps Spotify's 0-100 popularity to [0,1].
func normalizePopularity(p int) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 1
	}
	return float64(p) / 100
}

// rankAffinity converts a position in a provider-ranked list into a
// [0.5,1] affinity signal, best first.
func rankAffinity(index, total int) float64 {
	if total <= 1 {
		return 1
	}
	return 1 - float64(index)/float64(2*(total-1))
}

// seedGenres lowercases and caps genre seeds at the provider limit of 5.
func seedGenres(genres []string) []string {
	out := make([]string, 0, 5)
	for _, g := range genres {
		if len(out) == 5 {
			break
		}
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			out = append(out, g)
		}
	}
	return out
}

func artistNames(artists []spotify.SimpleArtist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}

func artistIDs(artists []spotify.SimpleArtist) []string {
	ids := make([]string, len(artists))
	for i, a := range artists {
		ids[i] = string(a.ID)
	}
	return ids
}
