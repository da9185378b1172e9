package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// SearchType selects the result domain of a catalog search.
type SearchType string

const (
	SearchTypeArtist SearchType = "artist"
	SearchTypeAlbum  SearchType = "album"
)

// ParseSearchType validates a search type string. Returns false for
// anything other than the exact values "artist" and "album".
func ParseSearchType(s string) (SearchType, bool) {
	switch SearchType(s) {
	case SearchTypeArtist, SearchTypeAlbum:
		return SearchType(s), true
	default:
		return "", false
	}
}

// SearchService provides catalog search operations.
type SearchService struct {
	client *Client
}

// Artists searches the catalog for artists matching the query. Pages
// are 1-based with a fixed size of PageSize.
func (s *SearchService) Artists(ctx context.Context, query string, page int) (*ArtistPage, error) {
	var resp struct {
		Artists ArtistPage `json:"artists"`
	}
	if err := s.client.get(ctx, "/search", searchParams(query, SearchTypeArtist, page), &resp); err != nil {
		return nil, fmt.Errorf("artist search failed: %w", err)
	}
	return &resp.Artists, nil
}

// Albums searches the catalog for albums matching the query. Pages are
// 1-based with a fixed size of PageSize.
func (s *SearchService) Albums(ctx context.Context, query string, page int) (*AlbumPage, error) {
	var resp struct {
		Albums AlbumPage `json:"albums"`
	}
	if err := s.client.get(ctx, "/search", searchParams(query, SearchTypeAlbum, page), &resp); err != nil {
		return nil, fmt.Errorf("album search failed: %w", err)
	}
	return &resp.Albums, nil
}

func searchParams(query string, searchType SearchType, page int) url.Values {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", string(searchType))
	params.Set("limit", strconv.Itoa(PageSize))
	params.Set("offset", strconv.Itoa(pageOffset(page)))
	return params
}
