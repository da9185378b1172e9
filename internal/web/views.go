package web

import (
	"fmt"
	"net/url"

	"github.com/pbarbosa/descobre/internal/app"
	"github.com/pbarbosa/descobre/internal/i18n"
	"github.com/pbarbosa/descobre/pkg/spotify"
)

// basePage carries what every template needs: the locale, translation
// helpers and the language switcher.
type basePage struct {
	Locale i18n.Locale
}

// T translates a key for the page's locale.
func (p basePage) T(key string) string {
	return i18n.T(p.Locale, i18n.Key(key))
}

// Root is the locale-rooted home path.
func (p basePage) Root() string {
	return "/" + string(p.Locale)
}

// Locales lists the supported locales for the language switcher.
func (p basePage) Locales() []i18n.Locale {
	return i18n.Locales
}

// Duration formats a track duration in milliseconds as m:ss.
func (p basePage) Duration(ms int) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Image picks the first (largest) image URL, or "" when there is none.
func (p basePage) Image(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// searchPage is the view model for the search/results page.
type searchPage struct {
	basePage

	Query     string
	Page      int
	Type      spotify.SearchType
	HasSearch bool // query long enough to have been searched
	ErrMsg    string

	Artists []spotify.Artist
	Albums  []spotify.Album
	Total   int
	Counter string
	Heading string

	ArtistsTabURL string
	AlbumsTabURL  string

	HasPrev bool
	HasNext bool
	PrevURL string
	NextURL string

	PrefetchURL string
}

// IsArtists reports whether the artist tab is active.
func (p searchPage) IsArtists() bool {
	return p.Type != spotify.SearchTypeAlbum
}

// HasResults reports whether the current page has any items.
func (p searchPage) HasResults() bool {
	return len(p.Artists) > 0 || len(p.Albums) > 0
}

// ArtistURL links a result row to its artist page, carrying the search
// state so the snapshot can be written on arrival.
func (p searchPage) ArtistURL(id string) string {
	return p.Root() + "/artist/" + url.PathEscape(id) +
		"?q=" + url.QueryEscape(p.Query) +
		"&page=" + fmt.Sprint(p.Page) +
		"&type=" + url.QueryEscape(string(p.Type))
}

// artistPage is the view model for the artist detail page.
type artistPage struct {
	basePage

	Artist         *spotify.Artist
	FollowersLabel string

	Tracks    []spotify.Track
	TracksErr bool

	Albums        []spotify.Album
	AlbumsErr     bool
	AlbumsCounter string
	AlbumsHasPrev bool
	AlbumsHasNext bool
	AlbumsPrevURL string
	AlbumsNextURL string

	BackURL     string
	Breadcrumbs []app.Breadcrumb
}

// errorPage is the view model for error responses.
type errorPage struct {
	basePage

	Title    string
	Subtitle string
}
