package stremio

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/streambridge/streambridge/internal/library"
	"github.com/streambridge/streambridge/internal/metadata"
	"github.com/streambridge/streambridge/internal/metadata/mock"
)

type fakeLookup struct {
	items map[string]*library.Item
}

func (f *fakeLookup) FindByExternalID(ctx context.Context, externalID string, userID int64) (*library.Item, error) {
	if item, ok := f.items[externalID]; ok {
		return item, nil
	}
	return nil, library.ErrItemNotFound
}

func TestCatalog_Search(t *testing.T) {
	provider := mock.NewProvider()
	provider.Add("tt0001", &metadata.Result{
		ImdbID:    "tt0001",
		Title:     "Dark",
		Year:      2017,
		MediaType: library.MediaTypeSeries,
	})
	provider.Add("tt0002", &metadata.Result{
		ImdbID:    "tt0002",
		Title:     "Dark Matter",
		Year:      2024,
		MediaType: library.MediaTypeSeries,
	})

	store := NewStore(0, zerolog.Nop())
	lookup := &fakeLookup{items: map[string]*library.Item{
		"tt0001": {ID: 77, ImdbID: "tt0001", Title: "Dark"},
	}}
	catalog := NewCatalog(provider, store, lookup, 25, zerolog.Nop())

	entries, err := catalog.Search(context.Background(), "dark", library.MediaTypeSeries, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Search() returned %d entries, want 2", len(entries))
	}

	var inLibrary, placeholder int
	for _, e := range entries {
		if e.InLibrary {
			inLibrary++
			if e.ItemID != 77 {
				t.Errorf("library entry item id = %d, want 77", e.ItemID)
			}
			if e.PlaceholderID != "" {
				t.Error("library entry must not carry a placeholder id")
			}
		} else {
			placeholder++
			if e.PlaceholderID == "" {
				t.Error("unindexed entry must carry a placeholder id")
			}
			meta, ok := store.Get(e.PlaceholderID)
			if !ok {
				t.Fatal("minted placeholder not retrievable from store")
			}
			if meta.ExternalID != "tt0002" {
				t.Errorf("placeholder external id = %q, want tt0002", meta.ExternalID)
			}
		}
	}
	if inLibrary != 1 || placeholder != 1 {
		t.Errorf("entries split = %d library / %d placeholder, want 1/1", inLibrary, placeholder)
	}
}

func TestCatalog_SearchMatchesTmdbOnlyLibraryItem(t *testing.T) {
	provider := mock.NewProvider()
	provider.Add("4935", &metadata.Result{
		TmdbID:    4935,
		Title:     "Howl's Moving Castle",
		MediaType: library.MediaTypeMovie,
	})

	store := NewStore(0, zerolog.Nop())
	// The library item has no IMDb id; the lookup key is the numeric TMDB
	// id.
	lookup := &fakeLookup{items: map[string]*library.Item{
		"4935": {ID: 9, TmdbID: 4935, Title: "Howl's Moving Castle"},
	}}
	catalog := NewCatalog(provider, store, lookup, 25, zerolog.Nop())

	entries, err := catalog.Search(context.Background(), "howl", library.MediaTypeMovie, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Search() returned %d entries, want 1", len(entries))
	}
	if !entries[0].InLibrary || entries[0].ItemID != 9 {
		t.Errorf("entry = %+v, want library hit on item 9", entries[0])
	}
	if store.Len() != 0 {
		t.Error("no placeholder must be minted for an in-library hit")
	}
}

func TestCatalog_SearchAnimeRequestedAsSeries(t *testing.T) {
	provider := mock.NewProvider()
	provider.Add("tt0003", &metadata.Result{
		ImdbID:    "tt0003",
		Title:     "Frieren",
		MediaType: library.MediaTypeSeries,
	})

	store := NewStore(0, zerolog.Nop())
	catalog := NewCatalog(provider, store, &fakeLookup{items: map[string]*library.Item{}}, 25, zerolog.Nop())

	// The anime category does not exist upstream; asking for it searches
	// series.
	entries, err := catalog.Search(context.Background(), "frieren", library.MediaTypeAnime, 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Search() returned %d entries, want 1", len(entries))
	}
	if entries[0].MediaType != library.MediaTypeSeries {
		t.Errorf("entry media type = %q, want series", entries[0].MediaType)
	}
}
