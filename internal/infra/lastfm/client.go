// Package lastfm provides a client for the Last.fm API, used as the
// trend and influence signal source for discovery.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ottara/tunebox/internal/domain/discovery"
)

// Popularity reported when Last.fm supplies no listener signal for a
// result. Mid-scale keeps such candidates out of the underrated gate.
const unknownPopularity = 0.5

// Client is a Last.fm API client with in-memory response caches.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	similarCache map[string][]discovery.Ref
	tagCache     map[string][]discovery.Ref
	cacheMu      sync.RWMutex
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey string
}

// LastFMError represents an error response from the Last.fm API.
type LastFMError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// getSimilarResponse represents the response from artist.getSimilar.
type getSimilarResponse struct {
	SimilarArtists struct {
		Artist []struct {
			Name  string `json:"name"`
			Match string `json:"match"`
		} `json:"artist"`
	} `json:"similarartists"`
}

// tagTopArtistsResponse represents the response from tag.getTopArtists.
type tagTopArtistsResponse struct {
	TopArtists struct {
		Artist []struct {
			Name string `json:"name"`
		} `json:"artist"`
	} `json:"topartists"`
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      "https://ws.audioscrobbler.com/2.0/",
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		similarCache: make(map[string][]discovery.Ref),
		tagCache:     make(map[string][]discovery.Ref),
	}, nil
}

// ArtistInfluences retrieves artists similar to the given one, ordered
// by the provider's match signal. The match value maps directly to
// affinity; Last.fm supplies no listener counts here, so popularity is
// reported as unknown.
// Reference: https://www.last.fm/api/show/artist.getSimilar
func (c *Client) ArtistInfluences(ctx context.Context, artistName string, limit int) ([]discovery.Ref, error) {
	if artistName == "" {
		return nil, errors.New("artist name is required")
	}
	limit = clampLimit(limit, 20)

	cacheKey := fmt.Sprintf("similar:%s:%d", artistName, limit)
	if refs, ok := c.cached(c.similarCache, cacheKey); ok {
		return refs, nil
	}

	params := url.Values{}
	params.Set("method", "artist.getSimilar")
	params.Set("artist", artistName)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("autocorrect", "1")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var response getSimilarResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	refs := make([]discovery.Ref, 0, len(response.SimilarArtists.Artist))
	for _, a := range response.SimilarArtists.Artist {
		match, _ := strconv.ParseFloat(a.Match, 64)
		refs = append(refs, discovery.Ref{
			Name:       a.Name,
			ID:         "lastfm:artist:" + a.Name,
			Affinity:   match,
			Popularity: unknownPopularity,
		})
	}

	c.store(c.similarCache, cacheKey, refs)
	return refs, nil
}

// TrendingInGenre retrieves the current top artists for a genre tag.
// Affinity decays with the provider's rank.
// Reference: https://www.last.fm/api/show/tag.getTopArtists
func (c *Client) TrendingInGenre(ctx context.Context, genre string) ([]discovery.Ref, error) {
	if genre == "" {
		return nil, errors.New("genre is required")
	}

	cacheKey := "tag:" + genre
	if refs, ok := c.cached(c.tagCache, cacheKey); ok {
		return refs, nil
	}

	params := url.Values{}
	params.Set("method", "tag.getTopArtists")
	params.Set("tag", genre)
	params.Set("limit", "20")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var response tagTopArtistsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	artists := response.TopArtists.Artist
	refs := make([]discovery.Ref, 0, len(artists))
	for i, a := range artists {
		affinity := 1.0
		if len(artists) > 1 {
			affinity = 1 - float64(i)/float64(2*(len(artists)-1))
		}
		refs = append(refs, discovery.Ref{
			Name:       a.Name,
			ID:         "lastfm:artist:" + a.Name,
			Affinity:   affinity,
			Popularity: unknownPopularity,
		})
	}

	c.store(c.tagCache, cacheKey, refs)
	return refs, nil
}

// get performs one API call and surfaces Last.fm error payloads.
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	var apiError LastFMError
	if err := json.Unmarshal(body, &apiError); err == nil && apiError.Error != 0 {
		return nil, errors.Newf("last.fm API error %d: %s", apiError.Error, apiError.Message)
	}
	return body, nil
}

func (c *Client) cached(cache map[string][]discovery.Ref, key string) ([]discovery.Ref, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	refs, ok := cache[key]
	return refs, ok
}

func (c *Client) store(cache map[string][]discovery.Ref, key string, refs []discovery.Ref) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	cache[key] = refs
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 100 {
		return 100
	}
	return limit
}
