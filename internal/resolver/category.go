package resolver

import (
	"context"
	"errors"

	"github.com/streambridge/streambridge/internal/library"
	"github.com/streambridge/streambridge/internal/metadata"
	"github.com/streambridge/streambridge/internal/stremio"
)

// classifyCandidate is the first classification pass, run on the lightweight
// search-time metadata before anything has been fetched. The candidate's
// genre tags are whatever the provider returned at search time; they may be
// empty, in which case only the category guess carries.
func (p *Pipeline) classifyCandidate(meta *stremio.Meta) library.MediaType {
	category := meta.MediaType
	if !category.Valid() {
		category = library.MediaTypeSeries
	}
	if category != library.MediaTypeAnime && p.classifier.IsAnime(meta.Title, meta.Genres) {
		category = library.MediaTypeAnime
	}
	return category
}

// reclassify is the second pass, run on full fetched metadata. It may
// promote a non-anime classification to anime but never demotes: once a
// title is anime it stays anime.
func (p *Pipeline) reclassify(category library.MediaType, full *metadata.Result) library.MediaType {
	if category == library.MediaTypeAnime {
		return category
	}
	if p.classifier.IsAnime(full.Title, full.Genres) {
		return library.MediaTypeAnime
	}
	return category
}

// fetchType maps a category to the media type requested upstream. The
// remote provider protocol has no anime category, so anime is requested as
// series and reclassified locally.
func fetchType(category library.MediaType) library.MediaType {
	if category == library.MediaTypeAnime {
		return library.MediaTypeSeries
	}
	return category
}

// selectFolder picks the destination folder for a category. Anime prefers
// the anime folder and falls back to the series folder when none is
// configured. A missing folder is reported as errNoFolder, which the
// pipeline treats as a configuration gap, not a failure.
func (p *Pipeline) selectFolder(ctx context.Context, category library.MediaType, userID int64) (*library.Folder, error) {
	switch category {
	case library.MediaTypeAnime:
		folder, err := p.folders.AnimeFolder(ctx, userID)
		if err == nil {
			return folder, nil
		}
		if !errors.Is(err, library.ErrFolderNotFound) {
			return nil, err
		}
		return p.lookupFolder(p.folders.SeriesFolder(ctx, userID))
	case library.MediaTypeSeries:
		return p.lookupFolder(p.folders.SeriesFolder(ctx, userID))
	default:
		return p.lookupFolder(p.folders.MovieFolder(ctx, userID))
	}
}

var errNoFolder = errors.New("no destination folder configured")

func (p *Pipeline) lookupFolder(folder *library.Folder, err error) (*library.Folder, error) {
	if err != nil {
		if errors.Is(err, library.ErrFolderNotFound) {
			return nil, errNoFolder
		}
		return nil, err
	}
	return folder, nil
}
