package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ArtistService provides artist lookup operations.
type ArtistService struct {
	client *Client
}

// Get fetches a single artist by id.
func (s *ArtistService) Get(ctx context.Context, id string) (*Artist, error) {
	if id == "" {
		return nil, fmt.Errorf("spotify: artist id is required")
	}

	var artist Artist
	if err := s.client.get(ctx, "/artists/"+url.PathEscape(id), nil, &artist); err != nil {
		return nil, fmt.Errorf("artist lookup failed: %w", err)
	}
	return &artist, nil
}

// Albums fetches one page of an artist's albums. Only full albums are
// included (singles and compilations are filtered server-side). Pages
// are 1-based with a fixed size of PageSize.
func (s *ArtistService) Albums(ctx context.Context, id string, page int) (*AlbumPage, error) {
	if id == "" {
		return nil, fmt.Errorf("spotify: artist id is required")
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(PageSize))
	params.Set("type", "album")
	params.Set("include_groups", "album")
	params.Set("offset", strconv.Itoa(pageOffset(page)))

	var albums AlbumPage
	if err := s.client.get(ctx, "/artists/"+url.PathEscape(id)+"/albums", params, &albums); err != nil {
		return nil, fmt.Errorf("artist albums lookup failed: %w", err)
	}
	return &albums, nil
}

// TopTracks fetches an artist's top tracks for a market (ISO 3166-1
// country code, e.g. "BR").
func (s *ArtistService) TopTracks(ctx context.Context, id, market string) ([]Track, error) {
	if id == "" {
		return nil, fmt.Errorf("spotify: artist id is required")
	}

	params := url.Values{}
	params.Set("market", market)

	var resp struct {
		Tracks []Track `json:"tracks"`
	}
	if err := s.client.get(ctx, "/artists/"+url.PathEscape(id)+"/top-tracks", params, &resp); err != nil {
		return nil, fmt.Errorf("top tracks lookup failed: %w", err)
	}
	return resp.Tracks, nil
}
