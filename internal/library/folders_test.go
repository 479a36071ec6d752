package library

import (
	"context"
	"errors"
	"testing"

	"github.com/streambridge/streambridge/internal/testutil"
	"github.com/streambridge/streambridge/internal/users"
)

func newFolderFixture(t *testing.T) (*Folders, *users.User, func()) {
	t.Helper()
	tdb := testutil.NewTestDB(t)

	userSvc := users.NewService(tdb.DB.Conn(), tdb.Logger)
	user, err := userSvc.Create(context.Background(), "demo", "hunter2")
	if err != nil {
		t.Fatalf("Create user error = %v", err)
	}
	return NewFolders(tdb.DB.Conn(), tdb.Logger), user, tdb.Close
}

func TestFolders_CreateAndLookup(t *testing.T) {
	folders, user, cleanup := newFolderFixture(t)
	defer cleanup()
	ctx := context.Background()

	created, err := folders.Create(ctx, user.ID, MediaTypeMovie, "Movies", "/media/movies")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == 0 {
		t.Error("Create() folder id = 0, want non-zero")
	}

	got, err := folders.MovieFolder(ctx, user.ID)
	if err != nil {
		t.Fatalf("MovieFolder() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("MovieFolder() id = %d, want %d", got.ID, created.ID)
	}
	if got.Path != "/media/movies" {
		t.Errorf("folder path = %q, want /media/movies", got.Path)
	}
}

func TestFolders_OnePerMediaType(t *testing.T) {
	folders, user, cleanup := newFolderFixture(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := folders.Create(ctx, user.ID, MediaTypeSeries, "Series", "/media/series"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := folders.Create(ctx, user.ID, MediaTypeSeries, "More Series", "/media/series2")
	if !errors.Is(err, ErrDuplicateFolder) {
		t.Errorf("second Create() error = %v, want ErrDuplicateFolder", err)
	}
}

func TestFolders_MissingAnimeFolder(t *testing.T) {
	folders, user, cleanup := newFolderFixture(t)
	defer cleanup()

	_, err := folders.AnimeFolder(context.Background(), user.ID)
	if !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("AnimeFolder() error = %v, want ErrFolderNotFound", err)
	}
}

func TestFolders_CreateInvalid(t *testing.T) {
	folders, user, cleanup := newFolderFixture(t)
	defer cleanup()
	ctx := context.Background()

	cases := []struct {
		name      string
		mediaType MediaType
		fname     string
		path      string
	}{
		{"empty name", MediaTypeMovie, "", "/media/movies"},
		{"empty path", MediaTypeMovie, "Movies", ""},
		{"bad media type", "music", "Music", "/media/music"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := folders.Create(ctx, user.ID, tc.mediaType, tc.fname, tc.path); !errors.Is(err, ErrInvalidFolder) {
				t.Errorf("Create() error = %v, want ErrInvalidFolder", err)
			}
		})
	}
}

func TestFolders_List(t *testing.T) {
	folders, user, cleanup := newFolderFixture(t)
	defer cleanup()
	ctx := context.Background()

	for _, mt := range []MediaType{MediaTypeMovie, MediaTypeSeries, MediaTypeAnime} {
		if _, err := folders.Create(ctx, user.ID, mt, string(mt), "/media/"+string(mt)); err != nil {
			t.Fatalf("Create(%s) error = %v", mt, err)
		}
	}

	list, err := folders.List(ctx, user.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 3 {
		t.Errorf("List() returned %d folders, want 3", len(list))
	}

	other, err := folders.List(ctx, user.ID+1)
	if err != nil {
		t.Fatalf("List() for other user error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("List() for other user returned %d folders, want 0", len(other))
	}
}
