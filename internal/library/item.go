package library

import "time"

// MediaType classifies a library item or folder.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
	MediaTypeAnime  MediaType = "anime"
)

// Valid reports whether mt is one of the known media types.
func (mt MediaType) Valid() bool {
	switch mt {
	case MediaTypeMovie, MediaTypeSeries, MediaTypeAnime:
		return true
	}
	return false
}

// ExpectsChildren reports whether items of this type carry child episodes.
func (mt MediaType) ExpectsChildren() bool {
	return mt == MediaTypeSeries || mt == MediaTypeAnime
}

// Item is a canonical, persisted library entity.
type Item struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	FolderID        int64     `json:"folderId"`
	MediaType       MediaType `json:"mediaType"`
	Title           string    `json:"title"`
	Year            int       `json:"year,omitempty"`
	ImdbID          string    `json:"imdbId,omitempty"`
	TmdbID          int       `json:"tmdbId,omitempty"`
	Overview        string    `json:"overview,omitempty"`
	PosterURL       string    `json:"posterUrl,omitempty"`
	HasFile         bool      `json:"hasFile"`
	ExpectsChildren bool      `json:"expectsChildren"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Folder is a pre-existing destination container owned by a user. Each user
// has at most one folder per media type; the anime folder is optional.
type Folder struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	MediaType MediaType `json:"mediaType"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}
