// Package stremio manages ephemeral placeholder references minted when a
// user browses unindexed catalog results. A placeholder maps an opaque
// identity to the lightweight candidate metadata captured at search time; it
// lives until the resolution pipeline consumes it or it expires.
package stremio

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/streambridge/streambridge/internal/library"
)

// Meta is the candidate metadata attached to a placeholder reference.
// Immutable once created.
type Meta struct {
	// ID is the opaque placeholder identity.
	ID string `json:"id"`
	// ExternalID is the catalog id (IMDb tt… or numeric TMDB id). May be
	// empty, in which case the placeholder id itself is sent upstream.
	ExternalID string            `json:"externalId,omitempty"`
	Title      string            `json:"title"`
	Year       int               `json:"year,omitempty"`
	MediaType  library.MediaType `json:"mediaType"`
	PosterURL  string            `json:"posterUrl,omitempty"`
	// Genres carries whatever genre/keyword tags the provider returned at
	// search time; may be empty.
	Genres []string `json:"genres,omitempty"`
}

type storeEntry struct {
	meta      Meta
	expiresAt time.Time
}

// Store is an in-memory TTL store of placeholder references.
type Store struct {
	mu      sync.RWMutex
	entries map[string]storeEntry
	ttl     time.Duration
	logger  zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewStore creates a placeholder store. Entries expire after ttl; zero means
// no expiry.
func NewStore(ttl time.Duration, logger zerolog.Logger) *Store {
	return &Store{
		entries: make(map[string]storeEntry),
		ttl:     ttl,
		logger:  logger.With().Str("component", "stremio").Logger(),
		now:     time.Now,
	}
}

// Put mints a placeholder for the given candidate metadata and returns its
// identity. The ID field of meta is ignored and replaced.
func (s *Store) Put(meta Meta) string {
	meta.ID = uuid.NewString()

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[meta.ID] = storeEntry{meta: meta, expiresAt: expiresAt}
	s.mu.Unlock()

	return meta.ID
}

// Get returns the candidate metadata for a placeholder id, if present and
// not expired.
func (s *Store) Get(id string) (*Meta, bool) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		return nil, false
	}
	meta := entry.meta
	return &meta, true
}

// Remove deletes a placeholder. Removing an absent id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Prune drops expired placeholders and returns how many were removed.
func (s *Store) Prune() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for id, entry := range s.entries {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Pruned expired placeholders")
	}
	return removed
}

// Len reports the number of live entries, including any not yet pruned.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
