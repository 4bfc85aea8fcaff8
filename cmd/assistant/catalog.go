package main

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/ottara/tunebox/internal/domain/discovery"
	"github.com/ottara/tunebox/internal/domain/track"
	"github.com/ottara/tunebox/internal/infra/lastfm"
	"github.com/ottara/tunebox/internal/infra/spotify"
)

// catalogFacade composes the Spotify and Last.fm adapters into the
// single catalog capability the engines consume. Last.fm is optional;
// the categories that need it degrade when it is not configured.
type catalogFacade struct {
	spotify *spotify.Client
	lastfm  *lastfm.Client
}

func (c *catalogFacade) SimilarArtists(ctx context.Context, artistID string) ([]discovery.Ref, error) {
	return c.spotify.SimilarArtists(ctx, artistID)
}

func (c *catalogFacade) CollaborationsOf(ctx context.Context, artistID string) ([]discovery.Ref, error) {
	return c.spotify.CollaborationsOf(ctx, artistID)
}

func (c *catalogFacade) RemixesOf(ctx context.Context, trackID string) ([]discovery.Ref, error) {
	return c.spotify.RemixesOf(ctx, trackID)
}

func (c *catalogFacade) ArtistPopularity(ctx context.Context, artistID string) (float64, error) {
	return c.spotify.ArtistPopularity(ctx, artistID)
}

func (c *catalogFacade) HistoricalInfluences(ctx context.Context, artistID string) ([]discovery.Ref, error) {
	if c.lastfm == nil {
		return nil, errors.New("last.fm is not configured")
	}
	name, err := c.spotify.ArtistName(ctx, artistID)
	if err != nil {
		return nil, err
	}
	return c.lastfm.ArtistInfluences(ctx, name, 20)
}

func (c *catalogFacade) TrendingInGenre(ctx context.Context, genre string) ([]discovery.Ref, error) {
	if c.lastfm == nil {
		return nil, errors.New("last.fm is not configured")
	}
	return c.lastfm.TrendingInGenre(ctx, genre)
}

func (c *catalogFacade) TracksByBPM(ctx context.Context, genres []string, minBPM, maxBPM float64, limit int) ([]track.Track, error) {
	return c.spotify.TracksByBPM(ctx, genres, minBPM, maxBPM, limit)
}
