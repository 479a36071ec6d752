package library

import (
	"context"
	"errors"
	"testing"

	"github.com/streambridge/streambridge/internal/testutil"
	"github.com/streambridge/streambridge/internal/users"
)

type itemFixture struct {
	items   *Items
	folders *Folders
	user    *users.User
	movie   *Folder
	series  *Folder
}

func newItemFixture(t *testing.T) (*itemFixture, func()) {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	ctx := context.Background()

	userSvc := users.NewService(tdb.DB.Conn(), tdb.Logger)
	user, err := userSvc.Create(ctx, "demo", "hunter2")
	if err != nil {
		t.Fatalf("Create user error = %v", err)
	}

	folders := NewFolders(tdb.DB.Conn(), tdb.Logger)
	movie, err := folders.Create(ctx, user.ID, MediaTypeMovie, "Movies", "/media/movies")
	if err != nil {
		t.Fatalf("Create movie folder error = %v", err)
	}
	series, err := folders.Create(ctx, user.ID, MediaTypeSeries, "Series", "/media/series")
	if err != nil {
		t.Fatalf("Create series folder error = %v", err)
	}

	f := &itemFixture{
		items:   NewItems(tdb.DB.Conn(), nil, tdb.Logger),
		folders: folders,
		user:    user,
		movie:   movie,
		series:  series,
	}
	return f, tdb.Close
}

func TestItems_Insert(t *testing.T) {
	f, cleanup := newItemFixture(t)
	defer cleanup()
	ctx := context.Background()

	item, created, err := f.items.Insert(ctx, InsertItemInput{
		FolderID:        f.series.ID,
		UserID:          f.user.ID,
		MediaType:       MediaTypeSeries,
		Title:           "Severance",
		Year:            2022,
		ImdbID:          "tt11280740",
		TmdbID:          95396,
		ExpectsChildren: true,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if !created {
		t.Error("Insert() created = false, want true")
	}
	if item.ID == 0 {
		t.Error("Insert() item.ID = 0, want non-zero")
	}
	if item.MediaType != MediaTypeSeries {
		t.Errorf("item.MediaType = %q, want series", item.MediaType)
	}
	if !item.ExpectsChildren {
		t.Error("item.ExpectsChildren = false, want true")
	}
	if item.HasFile {
		t.Error("item.HasFile = true, want false for fresh insert")
	}
}

func TestItems_Insert_RaceTolerant(t *testing.T) {
	f, cleanup := newItemFixture(t)
	defer cleanup()
	ctx := context.Background()

	input := InsertItemInput{
		FolderID:  f.movie.ID,
		UserID:    f.user.ID,
		MediaType: MediaTypeMovie,
		Title:     "Heat",
		ImdbID:    "tt0113277",
	}

	first, created, err := f.items.Insert(ctx, input)
	if err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	if !created {
		t.Fatal("first Insert() created = false, want true")
	}

	// A concurrent path already created the item; the second insert must
	// surface it rather than fail.
	second, created, err := f.items.Insert(ctx, input)
	if err != nil {
		t.Fatalf("second Insert() error = %v", err)
	}
	if created {
		t.Error("second Insert() created = true, want false")
	}
	if second.ID != first.ID {
		t.Errorf("second Insert() item id = %d, want %d", second.ID, first.ID)
	}
}

func TestItems_Insert_RaceTolerantTmdbOnly(t *testing.T) {
	f, cleanup := newItemFixture(t)
	defer cleanup()
	ctx := context.Background()

	// No IMDb id; the tmdb unique index is the only duplicate backstop.
	input := InsertItemInput{
		FolderID:  f.movie.ID,
		UserID:    f.user.ID,
		MediaType: MediaTypeMovie,
		Title:     "Howl's Moving Castle",
		TmdbID:    4935,
	}

	first, created, err := f.items.Insert(ctx, input)
	if err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	if !created {
		t.Fatal("first Insert() created = false, want true")
	}

	second, created, err := f.items.Insert(ctx, input)
	if err != nil {
		t.Fatalf("second Insert() error = %v", err)
	}
	if created {
		t.Error("second Insert() created = true, want false")
	}
	if second.ID != first.ID {
		t.Errorf("second Insert() item id = %d, want %d", second.ID, first.ID)
	}
}

func TestItems_FindByExternalID_TmdbID(t *testing.T) {
	f, cleanup := newItemFixture(t)
	defer cleanup()
	ctx := context.Background()

	inserted, _, err := f.items.Insert(ctx, InsertItemInput{
		FolderID:  f.movie.ID,
		UserID:    f.user.ID,
		MediaType: MediaTypeMovie,
		Title:     "Howl's Moving Castle",
		TmdbID:    4935,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	// A bare numeric external id matches on the tmdb column.
	found, err := f.items.FindByExternalID(ctx, "4935", f.user.ID)
	if err != nil {
		t.Fatalf("FindByExternalID(\"4935\") error = %v", err)
	}
	if found.ID != inserted.ID {
		t.Errorf("FindByExternalID() item id = %d, want %d", found.ID, inserted.ID)
	}

	if _, err := f.items.FindByExternalID(ctx, "9999", f.user.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("FindByExternalID() unknown tmdb id error = %v, want ErrItemNotFound", err)
	}
}

func TestItems_FindByExternalID(t *testing.T) {
	f, cleanup := newItemFixture(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := f.items.FindByExternalID(ctx, "tt0113277", f.user.ID); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("FindByExternalID() on empty library error = %v, want ErrItemNotFound", err)
	}

	inserted, _, err := f.items.Insert(ctx, InsertItemInput{
		FolderID:  f.movie.ID,
		UserID:    f.user.ID,
		MediaType: MediaTypeMovie,
		Title:     "Heat",
		ImdbID:    "tt0113277",
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	found, err := f.items.FindByExternalID(ctx, "tt0113277", f.user.ID)
	if err != nil {
		t.Fatalf("FindByExternalID() error = %v", err)
	}
	if found.ID != inserted.ID {
		t.Errorf("FindByExternalID() item id = %d, want %d", found.ID, inserted.ID)
	}

	// Lookup is scoped to the owning user.
	if _, err := f.items.FindByExternalID(ctx, "tt0113277", f.user.ID+1); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("FindByExternalID() for other user error = %v, want ErrItemNotFound", err)
	}

	// Empty external ids never match anything.
	if _, err := f.items.FindByExternalID(ctx, "", f.user.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("FindByExternalID(\"\") error = %v, want ErrItemNotFound", err)
	}
}

func TestItems_Insert_Invalid(t *testing.T) {
	f, cleanup := newItemFixture(t)
	defer cleanup()

	_, _, err := f.items.Insert(context.Background(), InsertItemInput{
		FolderID:  f.movie.ID,
		UserID:    f.user.ID,
		MediaType: MediaTypeMovie,
	})
	if !errors.Is(err, ErrInvalidItem) {
		t.Errorf("Insert() without title error = %v, want ErrInvalidItem", err)
	}

	_, _, err = f.items.Insert(context.Background(), InsertItemInput{
		FolderID:  f.movie.ID,
		UserID:    f.user.ID,
		MediaType: "music",
		Title:     "Abbey Road",
	})
	if !errors.Is(err, ErrInvalidItem) {
		t.Errorf("Insert() with unknown media type error = %v, want ErrInvalidItem", err)
	}
}

func TestItems_List(t *testing.T) {
	f, cleanup := newItemFixture(t)
	defer cleanup()
	ctx := context.Background()

	for _, title := range []string{"Heat", "Collateral", "Thief"} {
		if _, _, err := f.items.Insert(ctx, InsertItemInput{
			FolderID:  f.movie.ID,
			UserID:    f.user.ID,
			MediaType: MediaTypeMovie,
			Title:     title,
		}); err != nil {
			t.Fatalf("Insert(%q) error = %v", title, err)
		}
	}

	items, err := f.items.List(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 3 {
		t.Errorf("List() returned %d items, want 3", len(items))
	}
}
