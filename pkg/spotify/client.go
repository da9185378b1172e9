package spotify

import (
	"fmt"
	"net/http"
)

// Config holds client configuration.
type Config struct {
	ClientID     string       // Required: Spotify application client id
	ClientSecret string       // Required: Spotify application client secret
	HTTPClient   *http.Client // Optional: HTTP client (defaults to http.DefaultClient)
	BaseURL      string       // Optional: API base URL (defaults to the Web API, used for testing)
	TokenURL     string       // Optional: token endpoint (defaults to accounts.spotify.com, used for testing)
	Logger       Logger       // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for Spotify Web API operations.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     Logger

	tokens  *TokenSource
	search  *SearchService
	artists *ArtistService
}

const (
	// DefaultBaseURL is the default Spotify Web API endpoint.
	DefaultBaseURL = "https://api.spotify.com/v1"

	// DefaultTokenURL is the default token exchange endpoint.
	DefaultTokenURL = "https://accounts.spotify.com/api/token"

	// PageSize is the fixed page size used for all paginated requests.
	PageSize = 20
)

// NewClient creates a new Spotify Web API client.
//
// Returns an error if required configuration (ClientID, ClientSecret)
// is missing.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("spotify: ClientID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("spotify: ClientSecret is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     cfg.Logger,
	}

	c.tokens = &TokenSource{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     tokenURL,
		httpClient:   httpClient,
	}
	c.search = &SearchService{client: c}
	c.artists = &ArtistService{client: c}

	return c, nil
}

// Search returns the search service.
func (c *Client) Search() *SearchService {
	return c.search
}

// Artists returns the artist service.
func (c *Client) Artists() *ArtistService {
	return c.artists
}

// Tokens returns the token source backing this client.
//
// Exposed so callers can discard a cached token explicitly; normal use
// never needs it.
func (c *Client) Tokens() *TokenSource {
	return c.tokens
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
