// Package i18n provides the UI string tables for the supported
// locales.
//
// Translations are flat key-value maps with typed keys (generated from
// the nested design-time structure). A missing key falls back to the
// key string itself, so an untranslated page renders its token rather
// than failing.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale is a supported UI locale, as it appears in the URL path.
type Locale string

const (
	LocalePTBR Locale = "pt-BR"
	LocaleEN   Locale = "en"

	// DefaultLocale is used when nothing matches.
	DefaultLocale = LocalePTBR
)

// Locales lists the supported locales in preference order.
var Locales = []Locale{LocalePTBR, LocaleEN}

// ParseLocale validates a URL path segment as a supported locale.
// Matching is exact; unrecognized segments are rejected.
func ParseLocale(segment string) (Locale, bool) {
	for _, l := range Locales {
		if string(l) == segment {
			return l, true
		}
	}
	return "", false
}

// matcher resolves Accept-Language headers against the supported set.
var matcher = language.NewMatcher([]language.Tag{
	language.BrazilianPortuguese, // pt-BR, also catches bare "pt"
	language.English,
})

// MatchLocale picks the best supported locale for an Accept-Language
// header value. Unparseable or empty headers yield the default.
func MatchLocale(acceptLanguage string) Locale {
	if acceptLanguage == "" {
		return DefaultLocale
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}

	_, index, _ := matcher.Match(tags...)
	if index >= 0 && index < len(Locales) {
		return Locales[index]
	}
	return DefaultLocale
}

// Key identifies one translatable string.
type Key string

const (
	KeySearchPlaceholder Key = "search.placeholder"
	KeySearchButton      Key = "search.button"
	KeySearchResults     Key = "search.results"

	KeyFilterArtists Key = "filters.artists"
	KeyFilterAlbums  Key = "filters.albums"

	KeyEmptyTitle           Key = "empty.title"
	KeyEmptySubtitle        Key = "empty.subtitle"
	KeyEmptyWelcomeTitle    Key = "empty.welcomeTitle"
	KeyEmptyWelcomeSubtitle Key = "empty.welcomeSubtitle"

	KeyErrorTitle          Key = "error.title"
	KeyErrorSubtitle       Key = "error.subtitle"
	KeyErrorArtistNotFound Key = "error.artistNotFound"
	KeyErrorGoHome         Key = "error.goHome"

	KeyArtistFollowers  Key = "artist.followers"
	KeyArtistTopTracks  Key = "artist.topTracks"
	KeyArtistAlbums     Key = "artist.albums"
	KeyArtistNoTracks   Key = "artist.noTopTracks"
	KeyArtistNoAlbums   Key = "artist.noAlbums"
	KeyArtistPopularity Key = "artistProfile.popularity"
	KeyArtistGenres     Key = "artistProfile.genres"
	KeyArtistOpenLink   Key = "artistProfile.openOnSpotify"
	KeyBackToResults    Key = "artistHeader.backToResults"

	KeyPaginationPrevious Key = "pagination.previous"
	KeyPaginationNext     Key = "pagination.next"
	KeyPaginationShowing  Key = "pagination.showing"

	KeyHeaderTitle    Key = "header.title"
	KeyHeaderSubtitle Key = "header.subtitle"
)

var tables = map[Locale]map[Key]string{
	LocalePTBR: {
		KeySearchPlaceholder: "Buscar artistas ou álbuns...",
		KeySearchButton:      "Buscar",
		KeySearchResults:     `Resultados para "{{query}}"`,

		KeyFilterArtists: "Artistas",
		KeyFilterAlbums:  "Álbuns",

		KeyEmptyTitle:           "Nenhum resultado encontrado",
		KeyEmptySubtitle:        "Tente buscar com um termo diferente ou verifique a ortografia.",
		KeyEmptyWelcomeTitle:    "Descubra Artistas e Álbuns",
		KeyEmptyWelcomeSubtitle: "Use a barra de pesquisa acima para encontrar seus artistas favoritos e explorar seus álbuns no Spotify.",

		KeyErrorTitle:          "Ops! Algo deu errado",
		KeyErrorSubtitle:       "Não foi possível carregar os dados.",
		KeyErrorArtistNotFound: "Artista não encontrado",
		KeyErrorGoHome:         "Ir para a página inicial",

		KeyArtistFollowers:  "{{count}} seguidores",
		KeyArtistTopTracks:  "Top Faixas",
		KeyArtistAlbums:     "Álbuns",
		KeyArtistNoTracks:   "Nenhuma faixa popular encontrada",
		KeyArtistNoAlbums:   "Nenhum álbum encontrado",
		KeyArtistPopularity: "Popularidade",
		KeyArtistGenres:     "Gêneros",
		KeyArtistOpenLink:   "Abrir no Spotify",
		KeyBackToResults:    "Voltar aos resultados",

		KeyPaginationPrevious: "Anterior",
		KeyPaginationNext:     "Próxima",
		KeyPaginationShowing:  "Mostrando {{start}} - {{end}} de {{total}}",

		KeyHeaderTitle:    "Descobre",
		KeyHeaderSubtitle: "Descubra música",
	},
	LocaleEN: {
		KeySearchPlaceholder: "Search artists or albums...",
		KeySearchButton:      "Search",
		KeySearchResults:     `Results for "{{query}}"`,

		KeyFilterArtists: "Artists",
		KeyFilterAlbums:  "Albums",

		KeyEmptyTitle:           "No results found",
		KeyEmptySubtitle:        "Try searching with a different term or check the spelling.",
		KeyEmptyWelcomeTitle:    "Discover Artists and Albums",
		KeyEmptyWelcomeSubtitle: "Use the search bar above to find your favorite artists and explore their albums on Spotify.",

		KeyErrorTitle:          "Oops! Something went wrong",
		KeyErrorSubtitle:       "Could not load the data.",
		KeyErrorArtistNotFound: "Artist not found",
		KeyErrorGoHome:         "Go to homepage",

		KeyArtistFollowers:  "{{count}} followers",
		KeyArtistTopTracks:  "Top Tracks",
		KeyArtistAlbums:     "Albums",
		KeyArtistNoTracks:   "No popular tracks found",
		KeyArtistNoAlbums:   "No albums found",
		KeyArtistPopularity: "Popularity",
		KeyArtistGenres:     "Genres",
		KeyArtistOpenLink:   "Open on Spotify",
		KeyBackToResults:    "Back to results",

		KeyPaginationPrevious: "Previous",
		KeyPaginationNext:     "Next",
		KeyPaginationShowing:  "Showing {{start}} - {{end}} of {{total}}",

		KeyHeaderTitle:    "Descobre",
		KeyHeaderSubtitle: "Discover music",
	},
}

// T returns the translation of key for locale. A missing key (or an
// unknown locale) returns the key string itself.
func T(locale Locale, key Key) string {
	table, ok := tables[locale]
	if !ok {
		table = tables[DefaultLocale]
	}
	if s, ok := table[key]; ok {
		return s
	}
	return string(key)
}

// Tr translates key and substitutes {{name}} placeholders from
// name/value pairs:
//
//	i18n.Tr(locale, i18n.KeyPaginationShowing, "start", "91", "end", "95", "total", "95")
func Tr(locale Locale, key Key, pairs ...string) string {
	s := T(locale, key)
	if len(pairs) < 2 {
		return s
	}

	oldnew := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		oldnew = append(oldnew, "{{"+pairs[i]+"}}", pairs[i+1])
	}
	return strings.NewReplacer(oldnew...).Replace(s)
}
