package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var (
	ErrFolderNotFound  = errors.New("folder not found")
	ErrDuplicateFolder = errors.New("folder for this media type already exists")
	ErrInvalidFolder   = errors.New("invalid folder data")
)

// Folders provides destination folder lookups per user and media type.
type Folders struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewFolders creates a new folder service.
func NewFolders(db *sql.DB, logger zerolog.Logger) *Folders {
	return &Folders{
		db:     db,
		logger: logger.With().Str("component", "folders").Logger(),
	}
}

// Create registers a destination folder for a user.
func (s *Folders) Create(ctx context.Context, userID int64, mediaType MediaType, name, path string) (*Folder, error) {
	if name == "" || path == "" || !mediaType.Valid() {
		return nil, ErrInvalidFolder
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO folders (user_id, media_type, name, path)
		VALUES (?, ?, ?, ?)`,
		userID, string(mediaType), name, path)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateFolder
		}
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read folder id: %w", err)
	}
	return s.Get(ctx, id)
}

// Get retrieves a folder by ID.
func (s *Folders) Get(ctx context.Context, id int64) (*Folder, error) {
	return s.queryOne(ctx, `
		SELECT id, user_id, media_type, name, path, created_at
		FROM folders WHERE id = ?`, id)
}

// MovieFolder returns the user's movie folder.
func (s *Folders) MovieFolder(ctx context.Context, userID int64) (*Folder, error) {
	return s.byType(ctx, userID, MediaTypeMovie)
}

// SeriesFolder returns the user's series folder.
func (s *Folders) SeriesFolder(ctx context.Context, userID int64) (*Folder, error) {
	return s.byType(ctx, userID, MediaTypeSeries)
}

// AnimeFolder returns the user's anime folder, if one is configured.
func (s *Folders) AnimeFolder(ctx context.Context, userID int64) (*Folder, error) {
	return s.byType(ctx, userID, MediaTypeAnime)
}

// List returns all folders belonging to a user.
func (s *Folders) List(ctx context.Context, userID int64) ([]*Folder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, media_type, name, path, created_at
		FROM folders WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []*Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (s *Folders) byType(ctx context.Context, userID int64, mediaType MediaType) (*Folder, error) {
	return s.queryOne(ctx, `
		SELECT id, user_id, media_type, name, path, created_at
		FROM folders WHERE user_id = ? AND media_type = ?`,
		userID, string(mediaType))
}

func (s *Folders) queryOne(ctx context.Context, query string, args ...any) (*Folder, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	f, err := scanFolder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return f, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*Folder, error) {
	var f Folder
	var mediaType string
	if err := row.Scan(&f.ID, &f.UserID, &mediaType, &f.Name, &f.Path, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.MediaType = MediaType(mediaType)
	return &f, nil
}
