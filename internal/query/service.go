package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pbarbosa/descobre/internal/app"
	"github.com/pbarbosa/descobre/pkg/spotify"
)

// Service is the query layer between the web handlers and the Spotify
// client. All catalog reads go through it; it owns the result cache and
// drives the store's loading and error state.
type Service struct {
	client *spotify.Client
	store  *app.Store
	cache  *cache
	logger zerolog.Logger

	// sleep is swappable so tests do not wait out real backoff delays.
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewService creates the query layer over client, writing loading and
// error state into store.
func NewService(client *spotify.Client, store *app.Store, logger zerolog.Logger) *Service {
	return &Service{
		client: client,
		store:  store,
		cache:  newCache(),
		logger: logger.With().Str("component", "query").Logger(),
		sleep:  sleepCtx,
	}
}

// SearchArtists returns one page of artist search results.
//
// A blank query short-circuits to an empty page without touching the
// network. Every artist in a fetched page is also written into the
// single-artist cache and the store's artist map, so a following detail
// view needs no request.
func (s *Service) SearchArtists(ctx context.Context, rawQuery string, page int) (*spotify.ArtistPage, error) {
	q := strings.TrimSpace(rawQuery)
	if q == "" {
		return &spotify.ArtistPage{Items: []spotify.Artist{}, Limit: spotify.PageSize}, nil
	}

	key := searchArtistsKey(q, page)
	return fetch(ctx, s, key, policySearchArtists, true, func(ctx context.Context) (*spotify.ArtistPage, error) {
		result, err := s.client.Search().Artists(ctx, q, page)
		if err != nil {
			return nil, err
		}

		for i := range result.Items {
			artist := result.Items[i]
			s.store.SetArtist(artist.ID, &artist)
			s.cache.store(artistKey(artist.ID), &artist, policyArtist)
		}

		return result, nil
	})
}

// SearchAlbums returns one page of album search results. A blank query
// short-circuits to an empty page without touching the network.
func (s *Service) SearchAlbums(ctx context.Context, rawQuery string, page int) (*spotify.AlbumPage, error) {
	q := strings.TrimSpace(rawQuery)
	if q == "" {
		return &spotify.AlbumPage{Items: []spotify.Album{}, Limit: spotify.PageSize}, nil
	}

	key := searchAlbumsKey(q, page)
	return fetch(ctx, s, key, policySearchAlbums, true, func(ctx context.Context) (*spotify.AlbumPage, error) {
		return s.client.Search().Albums(ctx, q, page)
	})
}

// GetArtist returns a single artist, served from cache when a search
// already populated it.
func (s *Service) GetArtist(ctx context.Context, id string) (*spotify.Artist, error) {
	return fetch(ctx, s, artistKey(id), policyArtist, true, func(ctx context.Context) (*spotify.Artist, error) {
		artist, err := s.client.Artists().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		s.store.SetArtist(id, artist)
		return artist, nil
	})
}

// GetArtistAlbums returns one page of an artist's albums.
func (s *Service) GetArtistAlbums(ctx context.Context, id string, page int) (*spotify.AlbumPage, error) {
	key := fmt.Sprintf("artist-albums|%s|%d", id, page)
	return fetch(ctx, s, key, policyArtistAlbums, true, func(ctx context.Context) (*spotify.AlbumPage, error) {
		return s.client.Artists().Albums(ctx, id, page)
	})
}

// GetArtistTopTracks returns an artist's top tracks for a market.
func (s *Service) GetArtistTopTracks(ctx context.Context, id, market string) ([]spotify.Track, error) {
	key := fmt.Sprintf("top-tracks|%s|%s", id, market)
	return fetch(ctx, s, key, policyTopTracks, true, func(ctx context.Context) ([]spotify.Track, error) {
		return s.client.Artists().TopTracks(ctx, id, market)
	})
}

// PrefetchNextPage warms the cache with the page after the given one
// for the current query and type. It is a no-op when that page is
// already cached, and it never drives the store's loading flag: the
// user has not asked for this data yet.
func (s *Service) PrefetchNextPage(ctx context.Context, rawQuery string, searchType spotify.SearchType, currentPage int) {
	q := strings.TrimSpace(rawQuery)
	if q == "" {
		return
	}
	nextPage := currentPage + 1

	var key string
	switch searchType {
	case spotify.SearchTypeAlbum:
		key = searchAlbumsKey(q, nextPage)
	default:
		key = searchArtistsKey(q, nextPage)
	}

	if s.cache.has(key) {
		return
	}

	s.logger.Debug().Str("query", q).Int("page", nextPage).Str("type", string(searchType)).Msg("prefetching next page")

	go func() {
		var err error
		if searchType == spotify.SearchTypeAlbum {
			_, err = fetch(ctx, s, key, policySearchAlbums, false, func(ctx context.Context) (*spotify.AlbumPage, error) {
				return s.client.Search().Albums(ctx, q, nextPage)
			})
		} else {
			_, err = fetch(ctx, s, key, policySearchArtists, false, func(ctx context.Context) (*spotify.ArtistPage, error) {
				return s.client.Search().Artists(ctx, q, nextPage)
			})
		}
		if err != nil {
			// Prefetch failures are invisible to the user; the page is
			// fetched normally if they actually navigate to it.
			s.logger.Debug().Err(err).Str("query", q).Int("page", nextPage).Msg("prefetch failed")
		}
	}()
}

// Sweep evicts cache entries whose last update is older than one hour
// and clears the store's artist map. A coarse time-boxed sweep, not
// LRU.
func (s *Service) Sweep() {
	evicted := s.cache.sweep(maxEntryAge)
	s.store.ClearArtists()
	if evicted > 0 {
		s.logger.Debug().Int("evicted", evicted).Msg("cache sweep")
	}
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Msg("cache sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// CacheSize returns the number of cached query results.
func (s *Service) CacheSize() int {
	return s.cache.size()
}

func searchArtistsKey(query string, page int) string {
	return fmt.Sprintf("search-artists|%s|%d", query, page)
}

func searchAlbumsKey(query string, page int) string {
	return fmt.Sprintf("search-albums|%s|%d", query, page)
}

func artistKey(id string) string {
	return fmt.Sprintf("artist|%s", id)
}
