// Package app holds the application state store: search/UI state, the
// artist-by-id cache, and navigation breadcrumbs.
package app

import (
	"sync"

	"github.com/pbarbosa/descobre/pkg/spotify"
)

// SearchState is the UI-facing search state. A single instance exists
// per store; it is mutated only through the store's command methods.
type SearchState struct {
	Query     string             // Current search text
	Page      int                // Current result page, 1-based
	Type      spotify.SearchType // Result domain (artist or album)
	Loading   bool               // Whether a fetch is in flight
	LastError string             // Last fetch error, empty when none
}

// Breadcrumb is a navigation history entry for optional trail display.
type Breadcrumb struct {
	Label string
	Path  string
}

// Store manages application state with thread-safe access.
//
// Store is the sole owner of SearchState and the artist map. Changing
// the query or the search type always resets the page to 1: pagination
// position is never valid across a query or type change.
type Store struct {
	mu           sync.RWMutex
	search       SearchState
	artists      map[string]*spotify.Artist
	breadcrumbs  []Breadcrumb
	previousPage string
}

// NewStore creates a store with the initial search state.
func NewStore() *Store {
	return &Store{
		search: SearchState{
			Page: 1,
			Type: spotify.SearchTypeArtist,
		},
		artists: make(map[string]*spotify.Artist),
	}
}

// SetArtist stores an artist in the by-id cache, replacing any previous
// value wholesale.
func (s *Store) SetArtist(id string, artist *spotify.Artist) {
	if id == "" || artist == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.artists[id] = artist
}

// Artist returns the cached artist for id, or nil if not cached.
func (s *Store) Artist(id string) *spotify.Artist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artists[id]
}

// ClearArtists empties the artist cache.
func (s *Store) ClearArtists() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artists = make(map[string]*spotify.Artist)
}

// ArtistCount returns the number of cached artists.
func (s *Store) ArtistCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artists)
}

// SetLoading sets the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.Loading = loading
}

// SetSearchQuery sets the search text, resets the page to 1 and clears
// the last error.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.Query = query
	s.search.Page = 1
	s.search.LastError = ""
}

// SetPage sets the current result page. Values below 1 are normalized
// to 1.
func (s *Store) SetPage(page int) {
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.Page = page
}

// SetSearchType sets the result domain and resets the page to 1.
func (s *Store) SetSearchType(searchType spotify.SearchType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.Type = searchType
	s.search.Page = 1
}

// SetError records the last fetch error. An empty string clears it.
func (s *Store) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.LastError = message
}

// SetPreviousPage records the path of the page the user navigated away
// from.
func (s *Store) SetPreviousPage(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previousPage = path
}

// PreviousPage returns the recorded previous page path.
func (s *Store) PreviousPage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previousPage
}

// AddBreadcrumb appends a navigation breadcrumb.
func (s *Store) AddBreadcrumb(label, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breadcrumbs = append(s.breadcrumbs, Breadcrumb{Label: label, Path: path})
}

// ClearBreadcrumbs removes all breadcrumbs.
func (s *Store) ClearBreadcrumbs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breadcrumbs = nil
}

// Breadcrumbs returns a copy of the breadcrumb trail.
func (s *Store) Breadcrumbs() []Breadcrumb {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Breadcrumb, len(s.breadcrumbs))
	copy(out, s.breadcrumbs)
	return out
}

// Search returns a copy of the current search state.
func (s *Store) Search() SearchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}
