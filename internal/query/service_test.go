package query

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pbarbosa/descobre/internal/app"
	"github.com/pbarbosa/descobre/pkg/spotify"
)

// fixture wires a fake Spotify API, a store and a Service together.
type fixture struct {
	service  *Service
	store    *app.Store
	requests atomic.Int64
	handler  atomic.Value // func(w http.ResponseWriter, r *http.Request)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{}
	f.handler.Store(func(w http.ResponseWriter, r *http.Request) {
		artistSearchResponse(w, "a1", "Elis Regina")
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/token" {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "token-1",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
			return
		}
		f.requests.Add(1)
		f.handler.Load().(func(http.ResponseWriter, *http.Request))(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := spotify.NewClient(spotify.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		BaseURL:      server.URL,
		TokenURL:     server.URL + "/api/token",
	})
	if err != nil {
		t.Fatalf("failed to create spotify client: %v", err)
	}

	f.store = app.NewStore()
	f.service = NewService(client, f.store, zerolog.Nop())
	// Tests must not wait out real backoff delays.
	f.service.sleep = func(ctx context.Context, d time.Duration) bool { return true }

	return f
}

func (f *fixture) setHandler(h func(w http.ResponseWriter, r *http.Request)) {
	f.handler.Store(h)
}

func artistSearchResponse(w http.ResponseWriter, id, name string) {
	fmt.Fprintf(w, `{
		"artists": {
			"items": [{"id": %q, "name": %q, "popularity": 70,
			           "followers": {"total": 1000}, "genres": ["mpb"]}],
			"total": 1, "limit": 20, "offset": 0
		}
	}`, id, name)
}

func TestService_BlankQuerySkipsNetwork(t *testing.T) {
	f := newFixture(t)
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no network request expected for blank query")
	})
	ctx := context.Background()

	for _, q := range []string{"", "   ", "\t"} {
		page, err := f.service.SearchArtists(ctx, q, 1)
		if err != nil {
			t.Fatalf("SearchArtists(%q) failed: %v", q, err)
		}
		if len(page.Items) != 0 || page.Total != 0 {
			t.Errorf("expected empty result for blank query %q, got %+v", q, page)
		}

		albums, err := f.service.SearchAlbums(ctx, q, 1)
		if err != nil {
			t.Fatalf("SearchAlbums(%q) failed: %v", q, err)
		}
		if len(albums.Items) != 0 {
			t.Errorf("expected empty album result for blank query %q", q)
		}
	}

	if got := f.requests.Load(); got != 0 {
		t.Errorf("expected 0 network requests, got %d", got)
	}
}

func TestService_FreshCacheHitSkipsRefetch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.SearchArtists(ctx, "elis", 1)
	if err != nil {
		t.Fatalf("first search failed: %v", err)
	}
	second, err := f.service.SearchArtists(ctx, "elis", 1)
	if err != nil {
		t.Fatalf("second search failed: %v", err)
	}

	if first.Items[0].ID != second.Items[0].ID {
		t.Error("expected identical results from cache")
	}
	if got := f.requests.Load(); got != 1 {
		t.Errorf("expected 1 network request for repeated search, got %d", got)
	}

	// A different page is a different key.
	if _, err := f.service.SearchArtists(ctx, "elis", 2); err != nil {
		t.Fatalf("page 2 search failed: %v", err)
	}
	if got := f.requests.Load(); got != 2 {
		t.Errorf("expected 2 network requests after new page, got %d", got)
	}
}

func TestService_SearchPopulatesArtistCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.SearchArtists(ctx, "elis", 1); err != nil {
		t.Fatalf("search failed: %v", err)
	}

	// The artist detail view must be served without a second request.
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s after search populated the cache", r.URL.Path)
	})

	artist, err := f.service.GetArtist(ctx, "a1")
	if err != nil {
		t.Fatalf("GetArtist failed: %v", err)
	}
	if artist.Name != "Elis Regina" {
		t.Errorf("expected Elis Regina, got %q", artist.Name)
	}

	// The store's artist map was populated too.
	if got := f.store.Artist("a1"); got == nil {
		t.Error("expected artist a1 in the store after search")
	}
}

func TestService_RetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var failures atomic.Int64
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		if failures.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		artistSearchResponse(w, "a1", "Elis Regina")
	})

	page, err := f.service.SearchArtists(ctx, "elis", 1)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(page.Items) != 1 {
		t.Errorf("expected 1 artist, got %d", len(page.Items))
	}
	if got := f.requests.Load(); got != 3 {
		t.Errorf("expected 3 requests (2 failures + success), got %d", got)
	}
}

func TestService_GivesUpAfterMaxRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := f.service.SearchArtists(ctx, "elis", 1); err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	// Initial attempt plus three retries.
	if got := f.requests.Load(); got != 4 {
		t.Errorf("expected 4 requests, got %d", got)
	}

	state := f.store.Search()
	if state.LastError == "" {
		t.Error("expected last error recorded in the store")
	}
	if state.Loading {
		t.Error("expected loading flag cleared after failure")
	}
}

func TestService_ClientErrorsAreNotRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"status":404,"message":"non existing id"}}`))
	})

	if _, err := f.service.GetArtist(ctx, "nope"); err == nil {
		t.Fatal("expected error for 404")
	}
	if got := f.requests.Load(); got != 1 {
		t.Errorf("expected exactly 1 request for a client error, got %d", got)
	}
}

func TestService_BackoffSchedule(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: time.Second},
		{attempt: 1, want: 2 * time.Second},
		{attempt: 2, want: 4 * time.Second},
		{attempt: 5, want: 30 * time.Second},
		{attempt: 40, want: 30 * time.Second},
	}

	for _, tt := range tests {
		if got := backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestService_InflightDeduplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	release := make(chan struct{})
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		<-release
		artistSearchResponse(w, "a1", "Elis Regina")
	})

	var wg sync.WaitGroup
	results := make([]*spotify.ArtistPage, 5)
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.service.SearchArtists(ctx, "elis", 1)
		}(i)
	}

	// Let the goroutines pile up on the same key, then release the
	// single underlying request.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("concurrent search %d failed: %v", i, errs[i])
		}
		if len(results[i].Items) != 1 {
			t.Errorf("concurrent search %d: expected 1 item, got %d", i, len(results[i].Items))
		}
	}

	if got := f.requests.Load(); got != 1 {
		t.Errorf("expected 1 deduplicated request, got %d", got)
	}
}

func TestService_PrefetchNextPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.SearchArtists(ctx, "elis", 1); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	before := f.requests.Load()

	f.service.PrefetchNextPage(ctx, "elis", spotify.SearchTypeArtist, 1)

	waitFor(t, func() bool { return f.requests.Load() == before+1 })

	// The prefetched page now serves from cache with no new request.
	if _, err := f.service.SearchArtists(ctx, "elis", 2); err != nil {
		t.Fatalf("search page 2 failed: %v", err)
	}
	if got := f.requests.Load(); got != before+1 {
		t.Errorf("expected prefetched page served from cache, got %d requests", got)
	}

	// Prefetching an already-cached page is a no-op.
	f.service.PrefetchNextPage(ctx, "elis", spotify.SearchTypeArtist, 1)
	time.Sleep(50 * time.Millisecond)
	if got := f.requests.Load(); got != before+1 {
		t.Errorf("expected no request for cached prefetch, got %d", got)
	}

	// Prefetch never drives the loading flag.
	if f.store.Search().Loading {
		t.Error("prefetch must not set the loading flag")
	}
}

func TestService_PrefetchBlankQueryIsNoop(t *testing.T) {
	f := newFixture(t)
	f.setHandler(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for blank prefetch")
	})

	f.service.PrefetchNextPage(context.Background(), "  ", spotify.SearchTypeArtist, 1)
	time.Sleep(50 * time.Millisecond)
}

func TestService_Sweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.SearchArtists(ctx, "elis", 1); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if f.service.CacheSize() == 0 {
		t.Fatal("expected cache entries after search")
	}
	if f.store.ArtistCount() == 0 {
		t.Fatal("expected artists in the store after search")
	}

	// Entries are younger than one hour: only the artist map is
	// cleared.
	f.service.Sweep()
	if f.service.CacheSize() == 0 {
		t.Error("expected young cache entries to survive the sweep")
	}
	if got := f.store.ArtistCount(); got != 0 {
		t.Errorf("expected artist map cleared by sweep, got %d", got)
	}

	// Age everything past the one-hour cutoff.
	f.service.cache.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	f.service.Sweep()
	if got := f.service.CacheSize(); got != 0 {
		t.Errorf("expected all entries evicted, got %d", got)
	}
}

func TestService_GCTimeTreatsOldEntryAsAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.SearchArtists(ctx, "elis", 1); err != nil {
		t.Fatalf("search failed: %v", err)
	}

	// Past the 10-minute gc window for searches the entry is gone and a
	// refetch happens.
	f.service.cache.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	if _, err := f.service.SearchArtists(ctx, "elis", 1); err != nil {
		t.Fatalf("search after gc failed: %v", err)
	}
	if got := f.requests.Load(); got != 2 {
		t.Errorf("expected refetch after gc expiry, got %d requests", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
