// Package spotify provides a client library for the Spotify Web API.
//
// # Overview
//
// This package implements the subset of the Web API needed for catalog
// browsing: artist and album search, artist lookups, an artist's albums
// and top tracks. It handles the client-credentials token lifecycle
// transparently, including refresh on expiry and a single retry after a
// 401 response.
//
// # Quick Start
//
// Create a client with your application credentials:
//
//	client, err := spotify.NewClient(spotify.Config{
//	    ClientID:     "your-client-id",
//	    ClientSecret: "your-client-secret",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	page, err := client.Search().Artists(ctx, "Elis Regina", 1)
//
// # Authentication
//
// The client uses the OAuth2 client-credentials grant: the static id and
// secret are exchanged for a bearer token, which is cached in memory and
// replaced wholesale once it is within five minutes of expiring. Callers
// never see the token; every request gets the current one attached.
//
// If the API answers 401, the cached token is discarded, a fresh one is
// fetched, and the request is retried exactly once. A second failure is
// returned to the caller. This bounds the cost of a permanently invalid
// credential to one wasted round-trip per request.
//
// # Error Handling
//
// API failures are returned as *Error carrying the HTTP status code:
//
//	page, err := client.Search().Artists(ctx, query, 1)
//	if err != nil {
//	    var apiErr *spotify.Error
//	    if errors.As(err, &apiErr) && apiErr.ClientError() {
//	        // 4xx: retrying is futile
//	    }
//	}
//
// Token exchange failures are wrapped in ErrAuthFailed; the package does
// not distinguish network from credential problems to the caller.
//
// # Context Support
//
// All API methods accept a context.Context for cancellation and
// timeouts.
//
// # Configuration
//
// BaseURL and TokenURL can be overridden for testing, and a custom
// *http.Client may be supplied:
//
//	client, err := spotify.NewClient(spotify.Config{
//	    ClientID:     "id",
//	    ClientSecret: "secret",
//	    HTTPClient:   &http.Client{Timeout: 30 * time.Second},
//	    BaseURL:      server.URL,
//	    TokenURL:     server.URL + "/api/token",
//	})
package spotify
