package urlstate

import (
	"net/url"
	"strings"
	"testing"

	"github.com/pbarbosa/descobre/internal/app"
	"github.com/pbarbosa/descobre/pkg/spotify"
)

func TestParseInitial(t *testing.T) {
	tests := []struct {
		name      string
		rawQuery  string
		wantQuery string
		wantPage  int
		wantType  spotify.SearchType
		hasType   bool
	}{
		{
			name:      "full deep link",
			rawQuery:  "q=Beatles&page=2&type=artist",
			wantQuery: "Beatles",
			wantPage:  2,
			wantType:  spotify.SearchTypeArtist,
			hasType:   true,
		},
		{
			name:      "album type",
			rawQuery:  "q=Revolver&page=3&type=album",
			wantQuery: "Revolver",
			wantPage:  3,
			wantType:  spotify.SearchTypeAlbum,
			hasType:   true,
		},
		{
			name:      "page 1 is the implicit default",
			rawQuery:  "q=test&page=1",
			wantQuery: "test",
			wantPage:  1,
		},
		{
			name:      "page zero ignored",
			rawQuery:  "q=test&page=0",
			wantQuery: "test",
			wantPage:  1,
		},
		{
			name:      "negative page ignored",
			rawQuery:  "q=test&page=-2",
			wantQuery: "test",
			wantPage:  1,
		},
		{
			name:      "non-numeric page ignored",
			rawQuery:  "q=test&page=abc",
			wantQuery: "test",
			wantPage:  1,
		},
		{
			name:      "unknown type ignored",
			rawQuery:  "q=test&type=track",
			wantQuery: "test",
			wantPage:  1,
		},
		{
			name:     "no query means nothing is parsed",
			rawQuery: "page=5&type=album",
			wantPage: 1,
		},
		{
			name:      "percent-encoded query decoded",
			rawQuery:  "q=AC%2FDC+%26+Friends&page=1&type=artist",
			wantQuery: "AC/DC & Friends",
			wantPage:  1,
			wantType:  spotify.SearchTypeArtist,
			hasType:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.rawQuery)
			if err != nil {
				t.Fatalf("failed to parse query: %v", err)
			}

			state := ParseInitial(values)
			if state.Query != tt.wantQuery {
				t.Errorf("query = %q, want %q", state.Query, tt.wantQuery)
			}
			if state.Page != tt.wantPage {
				t.Errorf("page = %d, want %d", state.Page, tt.wantPage)
			}
			if state.HasType != tt.hasType {
				t.Errorf("hasType = %v, want %v", state.HasType, tt.hasType)
			}
			if tt.hasType && state.Type != tt.wantType {
				t.Errorf("type = %q, want %q", state.Type, tt.wantType)
			}
		})
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name       string
		locale     string
		query      string
		page       int
		searchType spotify.SearchType
		want       string
	}{
		{
			name:       "special characters encoded",
			locale:     "pt-BR",
			query:      "AC/DC & Friends",
			page:       1,
			searchType: spotify.SearchTypeArtist,
			want:       "/pt-BR?q=AC%2FDC+%26+Friends&page=1&type=artist",
		},
		{
			name:       "album search page 3",
			locale:     "en",
			query:      "Revolver",
			page:       3,
			searchType: spotify.SearchTypeAlbum,
			want:       "/en?q=Revolver&page=3&type=album",
		},
		{
			name:   "empty query clears parameters",
			locale: "pt-BR",
			query:  "",
			page:   4,
			want:   "/pt-BR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildURL(tt.locale, tt.query, tt.page, tt.searchType)
			if got != tt.want {
				t.Errorf("BuildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildURLParseInitialRoundTrip(t *testing.T) {
	built := BuildURL("pt-BR", "Beatles", 2, spotify.SearchTypeArtist)

	_, rawQuery, found := strings.Cut(built, "?")
	if !found {
		t.Fatalf("expected query string in %q", built)
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		t.Fatalf("failed to parse built URL: %v", err)
	}

	state := ParseInitial(values)
	if state.Query != "Beatles" {
		t.Errorf("round-trip query = %q, want Beatles", state.Query)
	}
	if state.Page != 2 {
		t.Errorf("round-trip page = %d, want 2", state.Page)
	}
	if !state.HasType || state.Type != spotify.SearchTypeArtist {
		t.Errorf("round-trip type = %q (has=%v), want artist", state.Type, state.HasType)
	}
}

func TestInitialState_Apply(t *testing.T) {
	t.Run("applies type, query and page", func(t *testing.T) {
		store := app.NewStore()
		values, _ := url.ParseQuery("q=Beatles&page=2&type=album")

		ParseInitial(values).Apply(store)

		state := store.Search()
		if state.Query != "Beatles" {
			t.Errorf("query = %q, want Beatles", state.Query)
		}
		if state.Page != 2 {
			t.Errorf("page = %d, want 2", state.Page)
		}
		if state.Type != spotify.SearchTypeAlbum {
			t.Errorf("type = %q, want album", state.Type)
		}
	})

	t.Run("page 1 is not dispatched", func(t *testing.T) {
		store := app.NewStore()
		values, _ := url.ParseQuery("q=test&page=1")

		ParseInitial(values).Apply(store)

		state := store.Search()
		if state.Query != "test" {
			t.Errorf("query = %q, want test", state.Query)
		}
		if state.Page != 1 {
			t.Errorf("page = %d, want 1", state.Page)
		}
	})

	t.Run("no query applies nothing", func(t *testing.T) {
		store := app.NewStore()
		store.SetSearchQuery("previous")
		store.SetPage(3)
		values, _ := url.ParseQuery("page=5&type=album")

		ParseInitial(values).Apply(store)

		state := store.Search()
		if state.Query != "previous" {
			t.Errorf("query = %q, want previous", state.Query)
		}
		if state.Page != 3 {
			t.Errorf("page = %d, want 3", state.Page)
		}
		if state.Type != spotify.SearchTypeArtist {
			t.Errorf("type = %q, want artist default", state.Type)
		}
	})
}
