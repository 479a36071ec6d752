// Package resolver turns ephemeral placeholder references into canonical
// library items, exactly once per title, no matter how many requests race
// for the same placeholder.
package resolver

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/streambridge/streambridge/internal/anime"
	"github.com/streambridge/streambridge/internal/keyedlock"
	"github.com/streambridge/streambridge/internal/library"
	"github.com/streambridge/streambridge/internal/metadata"
	"github.com/streambridge/streambridge/internal/stremio"
	"github.com/streambridge/streambridge/internal/users"
)

// UserLookup resolves request users.
type UserLookup interface {
	Get(ctx context.Context, id int64) (*users.User, error)
}

// FolderLookup resolves destination folders per user and category.
type FolderLookup interface {
	MovieFolder(ctx context.Context, userID int64) (*library.Folder, error)
	SeriesFolder(ctx context.Context, userID int64) (*library.Folder, error)
	AnimeFolder(ctx context.Context, userID int64) (*library.Folder, error)
}

// ItemStore persists and looks up canonical items. externalID is an IMDb id
// or a bare numeric TMDB id.
type ItemStore interface {
	FindByExternalID(ctx context.Context, externalID string, userID int64) (*library.Item, error)
	Insert(ctx context.Context, input library.InsertItemInput) (*library.Item, bool, error)
}

// PlaceholderStore holds the transient placeholder references.
type PlaceholderStore interface {
	Get(id string) (*stremio.Meta, bool)
	Remove(id string)
}

// Fetcher retrieves full metadata from the remote provider.
type Fetcher interface {
	Fetch(ctx context.Context, externalID string, mediaType library.MediaType) (*metadata.Result, error)
}

// Outcome describes what the pipeline did with one request.
type Outcome struct {
	// Resolved is true when the request identity was rewritten to a
	// canonical item; false means pass-through, with the original
	// response served unchanged.
	Resolved bool
	// ItemID is the canonical identity when Resolved.
	ItemID int64
	// Created is true when this request's persistence call created the
	// item, false when it was redirected to (or raced onto) an existing
	// one.
	Created bool
}

var passThrough = &Outcome{}

// errConsumed reports that a lock predecessor consumed the placeholder but
// its record carries no external id to converge on.
var errConsumed = errors.New("placeholder consumed concurrently")

// Pipeline orchestrates placeholder resolution.
type Pipeline struct {
	users        UserLookup
	folders      FolderLookup
	items        ItemStore
	placeholders PlaceholderStore
	fetcher      Fetcher
	classifier   anime.Classifier
	lock         *keyedlock.Keyed
	logger       zerolog.Logger
}

// NewPipeline creates a resolution pipeline.
func NewPipeline(
	userSvc UserLookup,
	folderSvc FolderLookup,
	itemSvc ItemStore,
	placeholderStore PlaceholderStore,
	fetcher Fetcher,
	classifier anime.Classifier,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		users:        userSvc,
		folders:      folderSvc,
		items:        itemSvc,
		placeholders: placeholderStore,
		fetcher:      fetcher,
		classifier:   classifier,
		lock:         keyedlock.New(),
		logger:       logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve runs the resolution stages for one request.
//
// It returns a pass-through Outcome for every non-fatal condition: missing
// user or placeholder (silent), no destination folder (configuration gap,
// logged warn), provider miss (logged error), or a placeholder consumed by
// a concurrent winner whose record carries no external id to converge on.
// Only context cancellation and unexpected collaborator failures surface as
// errors; except for the consumed case, the placeholder is left intact on
// pass-through so a later request can retry.
func (p *Pipeline) Resolve(ctx context.Context, placeholderID string, userID int64) (*Outcome, error) {
	// Stage 1: eligibility.
	if placeholderID == "" || userID <= 0 {
		return passThrough, nil
	}
	user, err := p.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return passThrough, nil
		}
		return nil, err
	}
	meta, ok := p.placeholders.Get(placeholderID)
	if !ok {
		return passThrough, nil
	}

	log := p.logger.With().
		Str("placeholderId", placeholderID).
		Str("title", meta.Title).
		Int64("userId", user.ID).
		Logger()

	// Stage 2: first classification pass and folder selection.
	category := p.classifyCandidate(meta)
	folder, err := p.selectFolder(ctx, category, user.ID)
	if err != nil {
		if errors.Is(err, errNoFolder) {
			log.Warn().Str("category", string(category)).Msg("No destination folder configured, skipping insertion")
			return passThrough, nil
		}
		return nil, err
	}

	// Stage 3: duplicate short-circuit. A pre-existing canonical item
	// means redirect, no fetch, no lock.
	if existing, err := p.findExisting(ctx, meta, user.ID); err != nil {
		return nil, err
	} else if existing != nil {
		log.Debug().Int64("itemId", existing.ID).Msg("Redirecting to existing library item")
		return &Outcome{Resolved: true, ItemID: existing.ID}, nil
	}

	// Stage 4: remote fetch. Anime is requested upstream as series.
	externalID := meta.ExternalID
	if externalID == "" {
		externalID = meta.ID
	}
	full, err := p.fetcher.Fetch(ctx, externalID, fetchType(category))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error().Err(err).Str("externalId", externalID).Msg("Remote metadata fetch failed")
		return passThrough, nil
	}

	// Stage 5: second classification pass on the full metadata. A
	// promotion to anime discards the folder picked in stage 2.
	if promoted := p.reclassify(category, full); promoted != category {
		category = promoted
		folder, err = p.selectFolder(ctx, category, user.ID)
		if err != nil {
			if errors.Is(err, errNoFolder) {
				log.Warn().Str("category", string(category)).Msg("No destination folder configured after reclassification, skipping insertion")
				return passThrough, nil
			}
			return nil, err
		}
	}
	// The reconciled category is authoritative from here on.
	full.MediaType = category

	// Stage 6: locked insertion, serialized per placeholder identity. The
	// placeholder is consumed inside the locked section, so queued callers
	// observe the winner's outcome instead of persisting again.
	var item *library.Item
	var created bool
	err = p.lock.RunExclusive(ctx, meta.ID, func(ctx context.Context) error {
		_, live := p.placeholders.Get(meta.ID)

		// An item for this title may exist already, inserted either by
		// the lock predecessor that consumed the placeholder or through
		// a different placeholder for the same title.
		existing, ferr := p.findCanonical(ctx, full, user.ID)
		if ferr != nil {
			return ferr
		}
		if existing != nil {
			item = existing
			if live {
				p.placeholders.Remove(meta.ID)
			}
			return nil
		}
		if !live {
			return errConsumed
		}

		full.StremioID = meta.ID
		var ierr error
		item, created, ierr = p.items.Insert(ctx, library.InsertItemInput{
			FolderID:        folder.ID,
			UserID:          user.ID,
			MediaType:       category,
			Title:           full.Title,
			Year:            full.Year,
			ImdbID:          full.ImdbID,
			TmdbID:          full.TmdbID,
			Overview:        full.Overview,
			PosterURL:       full.PosterURL,
			AlreadyOnDisk:   false,
			RefreshNow:      true,
			ExpectsChildren: category.ExpectsChildren(),
		})
		if ierr != nil {
			return ierr
		}
		p.placeholders.Remove(meta.ID)
		return nil
	})
	if err != nil {
		if errors.Is(err, errConsumed) {
			log.Debug().Msg("Placeholder consumed concurrently with no canonical trace, passing through")
			return passThrough, nil
		}
		return nil, err
	}

	// Stage 7: finalize. Every concurrent caller converges on the same
	// canonical identity.
	if created {
		log.Info().Int64("itemId", item.ID).Str("category", string(category)).Msg("Placeholder resolved to new library item")
	} else {
		log.Debug().Int64("itemId", item.ID).Msg("Placeholder resolved to concurrently created item")
	}
	return &Outcome{Resolved: true, ItemID: item.ID, Created: created}, nil
}
