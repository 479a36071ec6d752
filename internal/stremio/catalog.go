package stremio

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/streambridge/streambridge/internal/library"
	"github.com/streambridge/streambridge/internal/metadata"
)

// ItemLookup resolves a catalog hit to an already-persisted library item.
// externalID is an IMDb id or a bare numeric TMDB id.
type ItemLookup interface {
	FindByExternalID(ctx context.Context, externalID string, userID int64) (*library.Item, error)
}

// CatalogEntry is a search hit merged with library state. Exactly one of
// PlaceholderID and ItemID is set: hits already in the library point at the
// canonical item, everything else gets a freshly minted placeholder.
type CatalogEntry struct {
	PlaceholderID string            `json:"placeholderId,omitempty"`
	ItemID        int64             `json:"itemId,omitempty"`
	Title         string            `json:"title"`
	Year          int               `json:"year,omitempty"`
	MediaType     library.MediaType `json:"mediaType"`
	PosterURL     string            `json:"posterUrl,omitempty"`
	InLibrary     bool              `json:"inLibrary"`
}

// Catalog searches the external catalog and mints placeholders for
// unindexed hits.
type Catalog struct {
	provider   metadata.Provider
	store      *Store
	items      ItemLookup
	maxResults int
	logger     zerolog.Logger
}

// NewCatalog creates a catalog search service.
func NewCatalog(provider metadata.Provider, store *Store, items ItemLookup, maxResults int, logger zerolog.Logger) *Catalog {
	if maxResults <= 0 {
		maxResults = 25
	}
	return &Catalog{
		provider:   provider,
		store:      store,
		items:      items,
		maxResults: maxResults,
		logger:     logger.With().Str("component", "catalog").Logger(),
	}
}

// Search queries the provider and returns entries merged with the user's
// library state, minting a placeholder per unindexed hit.
func (c *Catalog) Search(ctx context.Context, query string, mediaType library.MediaType, userID int64) ([]CatalogEntry, error) {
	if !mediaType.Valid() || mediaType == library.MediaTypeAnime {
		mediaType = library.MediaTypeSeries
	}

	hits, err := c.provider.Search(ctx, query, mediaType)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}
	if len(hits) > c.maxResults {
		hits = hits[:c.maxResults]
	}

	entries := make([]CatalogEntry, 0, len(hits))
	for _, hit := range hits {
		entry := CatalogEntry{
			Title:     hit.Title,
			Year:      hit.Year,
			MediaType: hit.MediaType,
			PosterURL: hit.PosterURL,
		}

		externalID := hit.ImdbID
		if externalID == "" && hit.TmdbID > 0 {
			externalID = strconv.Itoa(hit.TmdbID)
		}

		if item := c.findExisting(ctx, externalID, userID); item != nil {
			entry.ItemID = item.ID
			entry.InLibrary = true
		} else {
			entry.PlaceholderID = c.store.Put(Meta{
				ExternalID: externalID,
				Title:      hit.Title,
				Year:       hit.Year,
				MediaType:  hit.MediaType,
				PosterURL:  hit.PosterURL,
				Genres:     hit.Genres,
			})
		}
		entries = append(entries, entry)
	}

	c.logger.Debug().Str("query", query).Int("results", len(entries)).Msg("Catalog search completed")
	return entries, nil
}

func (c *Catalog) findExisting(ctx context.Context, externalID string, userID int64) *library.Item {
	if externalID == "" {
		return nil
	}
	item, err := c.items.FindByExternalID(ctx, externalID, userID)
	if err != nil {
		return nil
	}
	return item
}
