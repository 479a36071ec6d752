package resolver

import (
	"context"
	"errors"
	"strconv"

	"github.com/streambridge/streambridge/internal/library"
	"github.com/streambridge/streambridge/internal/metadata"
	"github.com/streambridge/streambridge/internal/stremio"
)

// findExisting checks the library for a canonical item already representing
// the candidate, using only the search-time metadata. It runs before the
// remote fetch so a knowable duplicate never costs a network call, and
// before any lock acquisition since no write is attempted on this path.
// The candidate's external id may be an IMDb id or a bare numeric TMDB id;
// both match.
//
// The check is read-only and may race with an insertion in flight for the
// same title; that is safe, because the insertion path re-checks under the
// lock and the unique indexes backstop both.
func (p *Pipeline) findExisting(ctx context.Context, meta *stremio.Meta, userID int64) (*library.Item, error) {
	if meta.ExternalID == "" {
		return nil, nil
	}
	return p.lookupItem(ctx, meta.ExternalID, userID)
}

// findCanonical locates the canonical item for fully fetched metadata,
// preferring the IMDb id and falling back to the TMDB id. The locked insert
// section uses it so lock successors converge on the winner's item. Returns
// nil when the record carries no external id at all.
func (p *Pipeline) findCanonical(ctx context.Context, full *metadata.Result, userID int64) (*library.Item, error) {
	externalID := full.ImdbID
	if externalID == "" && full.TmdbID > 0 {
		externalID = strconv.Itoa(full.TmdbID)
	}
	if externalID == "" {
		return nil, nil
	}
	return p.lookupItem(ctx, externalID, userID)
}

func (p *Pipeline) lookupItem(ctx context.Context, externalID string, userID int64) (*library.Item, error) {
	item, err := p.items.FindByExternalID(ctx, externalID, userID)
	if err != nil {
		if errors.Is(err, library.ErrItemNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}
