package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/streambridge/streambridge/internal/websocket"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidItem  = errors.New("invalid item data")
)

// Items provides canonical library item storage.
type Items struct {
	db     *sql.DB
	hub    *websocket.Hub
	logger zerolog.Logger
}

// NewItems creates a new item service. hub may be nil.
func NewItems(db *sql.DB, hub *websocket.Hub, logger zerolog.Logger) *Items {
	return &Items{
		db:     db,
		hub:    hub,
		logger: logger.With().Str("component", "items").Logger(),
	}
}

// InsertItemInput carries everything needed to persist a new item.
type InsertItemInput struct {
	FolderID        int64
	UserID          int64
	MediaType       MediaType
	Title           string
	Year            int
	ImdbID          string
	TmdbID          int
	Overview        string
	PosterURL       string
	AlreadyOnDisk   bool
	RefreshNow      bool
	ExpectsChildren bool
}

// Get retrieves an item by ID.
func (s *Items) Get(ctx context.Context, id int64) (*Item, error) {
	return s.queryOne(ctx, `
		SELECT id, user_id, folder_id, media_type, title, year, imdb_id,
		       tmdb_id, overview, poster_url, has_file, expects_children, created_at
		FROM items WHERE id = ?`, id)
}

// FindByExternalID looks up an item by external id within a user's library.
// IMDb ids (tt…) match the imdb_id column; bare numeric ids are treated as
// TMDB ids, so titles without an IMDb id still deduplicate.
func (s *Items) FindByExternalID(ctx context.Context, externalID string, userID int64) (*Item, error) {
	if externalID == "" {
		return nil, ErrItemNotFound
	}
	if tmdbID, err := strconv.Atoi(externalID); err == nil {
		return s.queryOne(ctx, `
			SELECT id, user_id, folder_id, media_type, title, year, imdb_id,
			       tmdb_id, overview, poster_url, has_file, expects_children, created_at
			FROM items WHERE user_id = ? AND tmdb_id = ?`,
			userID, tmdbID)
	}
	return s.queryOne(ctx, `
		SELECT id, user_id, folder_id, media_type, title, year, imdb_id,
		       tmdb_id, overview, poster_url, has_file, expects_children, created_at
		FROM items WHERE user_id = ? AND imdb_id = ?`,
		userID, externalID)
}

// Insert persists a new item and reports whether it was newly created.
//
// A concurrent insert of the same external id for the same user is not an
// error: the unique index rejects the second write and the pre-existing row
// is returned with created = false.
func (s *Items) Insert(ctx context.Context, input InsertItemInput) (*Item, bool, error) {
	if input.Title == "" || !input.MediaType.Valid() {
		return nil, false, ErrInvalidItem
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO items (user_id, folder_id, media_type, title, year, imdb_id,
		                   tmdb_id, overview, poster_url, has_file, expects_children)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		input.UserID, input.FolderID, string(input.MediaType), input.Title,
		input.Year, nullString(input.ImdbID), nullInt(input.TmdbID),
		input.Overview, input.PosterURL, boolToInt(input.AlreadyOnDisk),
		boolToInt(input.ExpectsChildren))
	if err != nil {
		if isUniqueViolation(err) {
			externalID := input.ImdbID
			if externalID == "" && input.TmdbID != 0 {
				externalID = strconv.Itoa(input.TmdbID)
			}
			existing, ferr := s.FindByExternalID(ctx, externalID, input.UserID)
			if ferr != nil {
				return nil, false, fmt.Errorf("failed to load concurrently created item: %w", ferr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read item id: %w", err)
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if input.RefreshNow {
		s.logger.Debug().Int64("itemId", item.ID).Str("title", item.Title).Msg("Descriptive metadata fed on insert")
	}
	if s.hub != nil {
		s.hub.BroadcastItemAdded(item.ID, item.Title, string(item.MediaType))
	}

	return item, true, nil
}

// List returns a user's items, newest first.
func (s *Items) List(ctx context.Context, userID int64) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, folder_id, media_type, title, year, imdb_id,
		       tmdb_id, overview, poster_url, has_file, expects_children, created_at
		FROM items WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Items) queryOne(ctx context.Context, query string, args ...any) (*Item, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	var mediaType string
	var imdbID sql.NullString
	var tmdbID sql.NullInt64
	var hasFile, expectsChildren int
	if err := row.Scan(&item.ID, &item.UserID, &item.FolderID, &mediaType,
		&item.Title, &item.Year, &imdbID, &tmdbID, &item.Overview,
		&item.PosterURL, &hasFile, &expectsChildren, &item.CreatedAt); err != nil {
		return nil, err
	}
	item.MediaType = MediaType(mediaType)
	item.ImdbID = imdbID.String
	item.TmdbID = int(tmdbID.Int64)
	item.HasFile = hasFile != 0
	item.ExpectsChildren = expectsChildren != 0
	return &item, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
