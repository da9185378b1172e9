package spotify

// Image is an artwork rendition at a particular size.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ExternalURLs holds links to an entity on external sites.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// Followers holds an artist's follower count.
type Followers struct {
	Total int `json:"total"`
}

// SimpleArtist is the reduced artist reference embedded in albums and
// tracks.
type SimpleArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Artist is a full artist object. Immutable once fetched; re-fetching
// replaces the whole value, never a partial merge.
type Artist struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Popularity   int          `json:"popularity"`
	Followers    Followers    `json:"followers"`
	Genres       []string     `json:"genres"`
	Images       []Image      `json:"images"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// Album is an album as returned by search and artist-albums listings.
type Album struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	AlbumType    string         `json:"album_type"`
	ReleaseDate  string         `json:"release_date"`
	TotalTracks  int            `json:"total_tracks"`
	Images       []Image        `json:"images"`
	Artists      []SimpleArtist `json:"artists"`
	ExternalURLs ExternalURLs   `json:"external_urls"`
}

// TrackAlbum is the album reference embedded in a track.
type TrackAlbum struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Track is a track from an artist's top-tracks listing.
type Track struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	DurationMs  int            `json:"duration_ms"`
	Explicit    bool           `json:"explicit"`
	Popularity  int            `json:"popularity"`
	PreviewURL  string         `json:"preview_url"`
	TrackNumber int            `json:"track_number"`
	Album       TrackAlbum     `json:"album"`
	Artists     []SimpleArtist `json:"artists"`
}

// Paging is one page of a paginated result set.
type Paging[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ArtistPage is a page of artists from a search.
type ArtistPage = Paging[Artist]

// AlbumPage is a page of albums from a search or artist listing.
type AlbumPage = Paging[Album]
