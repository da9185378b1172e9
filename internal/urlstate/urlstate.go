// Package urlstate maps between the search page's query-string
// parameters and the application's search state.
//
// Parsing happens once per browsing session, when the search page is
// first requested; afterwards the URL is only written, never re-read.
// This one-way-after-init design avoids feedback loops between
// state-driven URL writes and URL-driven state writes.
package urlstate

import (
	"net/url"
	"strconv"

	"github.com/pbarbosa/descobre/internal/app"
	"github.com/pbarbosa/descobre/pkg/spotify"
)

// InitialState is the search state carried by a deep-linked URL.
type InitialState struct {
	Query   string
	Page    int
	Type    spotify.SearchType
	HasType bool
}

// ParseInitial extracts search state from URL query parameters.
//
// Rules, in order of application:
//   - nothing is parsed when q is absent or empty
//   - type is honored only if it is exactly "artist" or "album"
//   - page is honored only if it parses as an integer greater than 1;
//     page 1 is the implicit default and never dispatched
func ParseInitial(values url.Values) InitialState {
	state := InitialState{Page: 1}

	query := values.Get("q")
	if query == "" {
		return state
	}
	state.Query = query

	if searchType, ok := spotify.ParseSearchType(values.Get("type")); ok {
		state.Type = searchType
		state.HasType = true
	}

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page > 1 {
		state.Page = page
	}

	return state
}

// Apply dispatches the parsed state into the store: type first, then
// page (only when above the default), then the query. The query goes
// last because setting it resets the page.
func (s InitialState) Apply(store *app.Store) {
	if s.Query == "" {
		return
	}

	if s.HasType {
		store.SetSearchType(s.Type)
	}

	store.SetSearchQuery(s.Query)

	if s.Page > 1 {
		store.SetPage(s.Page)
	}
}

// BuildURL serializes search state into a locale-rooted URL. An empty
// query yields the bare locale root, clearing all parameters.
func BuildURL(locale, query string, page int, searchType spotify.SearchType) string {
	root := "/" + locale
	if query == "" {
		return root
	}

	// Built by hand to keep the parameter order stable (q, page, type)
	// instead of url.Values' alphabetical encoding.
	return root + "?q=" + url.QueryEscape(query) +
		"&page=" + strconv.Itoa(page) +
		"&type=" + url.QueryEscape(string(searchType))
}
