package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pbarbosa/descobre/internal/i18n"
	"github.com/pbarbosa/descobre/internal/session"
	"github.com/pbarbosa/descobre/internal/urlstate"
	"github.com/pbarbosa/descobre/pkg/spotify"
)

const (
	sessionCookie = "descobre_session"

	// minQueryLength is the shortest trimmed query that triggers a
	// search. Shorter input renders the welcome state.
	minQueryLength = 3
)

// ensureSession returns the request's session id, minting one (and
// setting the cookie) when absent.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// handleRoot redirects to the best locale: the session's stored choice
// when present, otherwise the Accept-Language match. Query parameters
// survive the redirect so deep links work on the bare root.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	sid := s.ensureSession(w, r)

	locale := i18n.MatchLocale(r.Header.Get("Accept-Language"))
	if sid != "" {
		if stored, err := s.sessions.Language(r.Context(), sid); err == nil {
			if l, ok := i18n.ParseLocale(stored); ok {
				locale = l
			}
		}
	}

	target := "/" + string(locale)
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// syncSearchState folds the request's query parameters into the
// session's store.
//
// The session's first request applies them as a deep-link
// initialization; after that, parameters only register as user actions
// when they differ from the current state. A page change suppresses the
// prefetch observer for a moment, because the page scrolls to the top
// on its own.
func (s *Server) syncSearchState(r *http.Request, st *sessionState) {
	params := r.URL.Query()

	st.init.Do(func() {
		urlstate.ParseInitial(params).Apply(st.store)
	})

	if searchType, ok := spotify.ParseSearchType(params.Get("type")); ok {
		if searchType != st.store.Search().Type {
			st.store.SetSearchType(searchType)
		}
	}

	if params.Has("q") {
		if q := params.Get("q"); q != st.store.Search().Query {
			st.store.SetSearchQuery(q)
		}
	}

	if page, err := strconv.Atoi(params.Get("page")); err == nil && page >= 1 {
		if page != st.store.Search().Page {
			st.scroll.Suppress()
			st.store.SetPage(page)
		}
	}
}

// handleSearch renders the search page for a locale, running the search
// when the query is long enough.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	locale, ok := i18n.ParseLocale(r.PathValue("locale"))
	if !ok {
		s.renderNotFound(w)
		return
	}

	sid := s.ensureSession(w, r)
	st := s.state(sid)
	s.rememberLanguage(r, sid, locale)
	s.syncSearchState(r, st)

	state := st.store.Search()

	// An implausible page parameter on a deep link redirects to the
	// canonical URL for the normalized state.
	params := r.URL.Query()
	if params.Get("q") != "" && params.Has("page") {
		if p, err := strconv.Atoi(params.Get("page")); err != nil || p < 1 {
			http.Redirect(w, r, urlstate.BuildURL(string(locale), state.Query, state.Page, state.Type), http.StatusFound)
			return
		}
	}

	pg := searchPage{
		basePage: basePage{Locale: locale},
		Query:    state.Query,
		Page:     state.Page,
		Type:     state.Type,
	}
	pg.ArtistsTabURL = urlstate.BuildURL(string(locale), state.Query, 1, spotify.SearchTypeArtist)
	pg.AlbumsTabURL = urlstate.BuildURL(string(locale), state.Query, 1, spotify.SearchTypeAlbum)

	trimmed := strings.TrimSpace(state.Query)
	if len([]rune(trimmed)) < minQueryLength {
		s.render(w, http.StatusOK, "search.html", pg)
		return
	}

	pg.HasSearch = true
	pg.Heading = i18n.Tr(locale, i18n.KeySearchResults, "query", trimmed)

	var offset, count int
	switch state.Type {
	case spotify.SearchTypeAlbum:
		result, err := s.queries.SearchAlbums(r.Context(), state.Query, state.Page)
		if err != nil {
			pg.ErrMsg = i18n.T(locale, i18n.KeyErrorSubtitle)
			s.render(w, http.StatusOK, "search.html", pg)
			return
		}
		pg.Albums = result.Items
		pg.Total = result.Total
		offset, count = result.Offset, len(result.Items)
	default:
		result, err := s.queries.SearchArtists(r.Context(), state.Query, state.Page)
		if err != nil {
			pg.ErrMsg = i18n.T(locale, i18n.KeyErrorSubtitle)
			s.render(w, http.StatusOK, "search.html", pg)
			return
		}
		pg.Artists = result.Items
		pg.Total = result.Total
		offset, count = result.Offset, len(result.Items)
	}

	if count > 0 {
		pg.Counter = resultsCounter(locale, offset, count, pg.Total)
	}

	pg.HasPrev = state.Page > 1
	pg.HasNext = offset+count < pg.Total
	if pg.HasPrev {
		pg.PrevURL = urlstate.BuildURL(string(locale), state.Query, state.Page-1, state.Type)
	}
	if pg.HasNext {
		pg.NextURL = urlstate.BuildURL(string(locale), state.Query, state.Page+1, state.Type)
		pg.PrefetchURL = "/" + string(locale) + "/prefetch?" + searchParams(state.Query, state.Page, state.Type)
	}

	s.render(w, http.StatusOK, "search.html", pg)
}

// handleArtist renders an artist's profile, top tracks and albums. The
// search state carried by the link is saved as the session's snapshot
// so the back link can restore the results page.
func (s *Server) handleArtist(w http.ResponseWriter, r *http.Request) {
	locale, ok := i18n.ParseLocale(r.PathValue("locale"))
	if !ok {
		s.renderNotFound(w)
		return
	}

	sid := s.ensureSession(w, r)
	st := s.state(sid)
	s.rememberLanguage(r, sid, locale)
	id := r.PathValue("id")

	params := r.URL.Query()
	if q := params.Get("q"); q != "" && sid != "" {
		snap := session.Snapshot{
			Query: q,
			Page:  1,
			Type:  string(spotify.SearchTypeArtist),
		}
		if page, err := strconv.Atoi(params.Get("page")); err == nil && page >= 1 {
			snap.Page = page
		}
		if searchType, ok := spotify.ParseSearchType(params.Get("type")); ok {
			snap.Type = string(searchType)
		}
		if err := s.sessions.SaveSnapshot(r.Context(), sid, snap); err != nil {
			s.logger.Warn().Err(err).Msg("failed to save search snapshot")
		}
		st.store.SetPreviousPage(urlstate.BuildURL(string(locale), snap.Query, snap.Page, spotify.SearchType(snap.Type)))
	}

	artist, err := s.queries.GetArtist(r.Context(), id)
	if err != nil {
		var apiErr *spotify.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			s.render(w, http.StatusNotFound, "error.html", errorPage{
				basePage: basePage{Locale: locale},
				Title:    i18n.T(locale, i18n.KeyErrorArtistNotFound),
				Subtitle: i18n.T(locale, i18n.KeyErrorSubtitle),
			})
			return
		}
		s.render(w, http.StatusBadGateway, "error.html", errorPage{
			basePage: basePage{Locale: locale},
			Title:    i18n.T(locale, i18n.KeyErrorTitle),
			Subtitle: i18n.T(locale, i18n.KeyErrorSubtitle),
		})
		return
	}

	crumbs := st.store.Breadcrumbs()
	if len(crumbs) == 0 || crumbs[len(crumbs)-1].Path != r.URL.Path {
		st.store.AddBreadcrumb(artist.Name, r.URL.Path)
		crumbs = st.store.Breadcrumbs()
	}

	pg := artistPage{
		basePage:       basePage{Locale: locale},
		Artist:         artist,
		FollowersLabel: i18n.Tr(locale, i18n.KeyArtistFollowers, "count", formatCount(locale, artist.Followers.Total)),
		BackURL:        "/" + string(locale) + "/back",
		Breadcrumbs:    crumbs,
	}

	// Section failures degrade to their empty states instead of sinking
	// the whole page.
	tracks, err := s.queries.GetArtistTopTracks(r.Context(), id, s.cfg.Market)
	if err != nil {
		s.logger.Warn().Err(err).Str("artist", id).Msg("top tracks unavailable")
		pg.TracksErr = true
	} else {
		pg.Tracks = tracks
	}

	albumsPage := 1
	if p, err := strconv.Atoi(params.Get("albums_page")); err == nil && p >= 1 {
		albumsPage = p
	}
	albums, err := s.queries.GetArtistAlbums(r.Context(), id, albumsPage)
	if err != nil {
		s.logger.Warn().Err(err).Str("artist", id).Msg("albums unavailable")
		pg.AlbumsErr = true
	} else {
		pg.Albums = albums.Items
		if len(albums.Items) > 0 {
			pg.AlbumsCounter = resultsCounter(locale, albums.Offset, len(albums.Items), albums.Total)
		}
		pg.AlbumsHasPrev = albumsPage > 1
		pg.AlbumsHasNext = albums.Offset+len(albums.Items) < albums.Total
		if pg.AlbumsHasPrev {
			pg.AlbumsPrevURL = artistAlbumsURL(locale, id, albumsPage-1)
		}
		if pg.AlbumsHasNext {
			pg.AlbumsNextURL = artistAlbumsURL(locale, id, albumsPage+1)
		}
	}

	s.render(w, http.StatusOK, "artist.html", pg)
}

// handleBack consumes the session's search snapshot and redirects to
// the results page it describes. Without a snapshot it falls back to
// the locale root.
func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	locale, ok := i18n.ParseLocale(r.PathValue("locale"))
	if !ok {
		s.renderNotFound(w)
		return
	}

	sid := s.ensureSession(w, r)
	st := s.state(sid)
	target := "/" + string(locale)

	if sid != "" {
		snap, err := s.sessions.TakeSnapshot(r.Context(), sid)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read search snapshot")
		}
		if snap != nil && snap.Query != "" {
			searchType := spotify.SearchTypeArtist
			if t, ok := spotify.ParseSearchType(snap.Type); ok {
				searchType = t
			}
			page := snap.Page
			if page < 1 {
				page = 1
			}
			target = urlstate.BuildURL(string(locale), snap.Query, page, searchType)
		}
	}

	st.store.ClearBreadcrumbs()
	http.Redirect(w, r, target, http.StatusFound)
}

// handlePrefetch warms the next result page's cache. Triggers arriving
// inside the post-page-change suppression window are dropped.
func (s *Server) handlePrefetch(w http.ResponseWriter, r *http.Request) {
	if _, ok := i18n.ParseLocale(r.PathValue("locale")); !ok {
		s.renderNotFound(w)
		return
	}

	sid := s.ensureSession(w, r)
	st := s.state(sid)
	if st.scroll.Suppressed() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	params := r.URL.Query()
	page := 1
	if p, err := strconv.Atoi(params.Get("page")); err == nil && p >= 1 {
		page = p
	}
	searchType := spotify.SearchTypeArtist
	if t, ok := spotify.ParseSearchType(params.Get("type")); ok {
		searchType = t
	}

	// The server's base context, not the request's: the prefetch should
	// outlive this handler.
	s.queries.PrefetchNextPage(s.baseCtx, params.Get("q"), searchType, page)
	w.WriteHeader(http.StatusNoContent)
}

// rememberLanguage persists the locale the user is browsing under when
// it differs from the stored choice.
func (s *Server) rememberLanguage(r *http.Request, sid string, locale i18n.Locale) {
	if sid == "" {
		return
	}
	stored, err := s.sessions.Language(r.Context(), sid)
	if err != nil || stored == string(locale) {
		return
	}
	if err := s.sessions.SetLanguage(r.Context(), sid, string(locale)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store language")
	}
}

func (s *Server) renderNotFound(w http.ResponseWriter) {
	locale := i18n.DefaultLocale
	s.render(w, http.StatusNotFound, "error.html", errorPage{
		basePage: basePage{Locale: locale},
		Title:    i18n.T(locale, i18n.KeyErrorTitle),
		Subtitle: i18n.T(locale, i18n.KeyErrorSubtitle),
	})
}

func searchParams(query string, page int, searchType spotify.SearchType) string {
	v := make([]string, 0, 3)
	v = append(v, "q="+url.QueryEscape(query))
	v = append(v, "page="+strconv.Itoa(page))
	v = append(v, "type="+string(searchType))
	return strings.Join(v, "&")
}

func artistAlbumsURL(locale i18n.Locale, id string, page int) string {
	return "/" + string(locale) + "/artist/" + id + "?albums_page=" + strconv.Itoa(page)
}

// printers group digits the way each locale writes numbers.
var printers = map[i18n.Locale]*message.Printer{
	i18n.LocalePTBR: message.NewPrinter(language.BrazilianPortuguese),
	i18n.LocaleEN:   message.NewPrinter(language.English),
}

// formatCount renders an integer with the locale's thousands
// separators.
func formatCount(locale i18n.Locale, n int) string {
	p, ok := printers[locale]
	if !ok {
		p = printers[i18n.DefaultLocale]
	}
	return p.Sprintf("%d", n)
}
