// Package metadata defines the remote metadata provider contract.
package metadata

import (
	"context"
	"errors"

	"github.com/streambridge/streambridge/internal/library"
)

var (
	// ErrNotFound means the provider has no record for the requested id.
	ErrNotFound = errors.New("metadata not found")
)

// Result is the full metadata record fetched from a remote provider.
//
// MediaType starts as whatever the provider reported and may be overridden
// locally before persistence; providers themselves never speak "anime", so
// anime titles are requested as series and reclassified afterward.
type Result struct {
	ImdbID    string
	TmdbID    int
	Title     string
	Year      int
	MediaType library.MediaType
	Overview  string
	PosterURL string
	Genres    []string
	Runtime   int

	// StremioID is stamped by the resolution pipeline just before
	// persistence so insertion can be traced back to the placeholder
	// that produced it.
	StremioID string
}

// SearchResult is a lightweight catalog hit used at search time. ImdbID may
// be empty; TmdbID is always set for TMDB-backed results. Genres is only
// populated by providers that return genre names at search time.
type SearchResult struct {
	ImdbID    string
	TmdbID    int
	Title     string
	Year      int
	MediaType library.MediaType
	PosterURL string
	Genres    []string
}

// Provider fetches metadata from a remote catalog.
type Provider interface {
	Name() string
	IsConfigured() bool

	// Fetch retrieves the full record for an external id. The media type
	// must be movie or series; anime has no provider-side representation.
	Fetch(ctx context.Context, externalID string, mediaType library.MediaType) (*Result, error)

	// Search queries the catalog by title.
	Search(ctx context.Context, query string, mediaType library.MediaType) ([]SearchResult, error)
}
