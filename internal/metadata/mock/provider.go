// Package mock provides an in-memory metadata provider for tests and
// offline development.
package mock

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/streambridge/streambridge/internal/library"
	"github.com/streambridge/streambridge/internal/metadata"
)

// Provider is a configurable in-memory metadata.Provider.
type Provider struct {
	mu      sync.RWMutex
	records map[string]*metadata.Result // keyed by external id

	// FetchErr, when set, is returned by every Fetch call.
	FetchErr error

	fetchCalls    atomic.Int64
	lastFetchType atomic.Value // library.MediaType
}

// NewProvider creates an empty mock provider.
func NewProvider() *Provider {
	return &Provider{records: make(map[string]*metadata.Result)}
}

// Add registers a record retrievable by the given external id.
func (p *Provider) Add(externalID string, result *metadata.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[externalID] = result
}

// FetchCalls reports how many times Fetch has been invoked.
func (p *Provider) FetchCalls() int64 {
	return p.fetchCalls.Load()
}

// LastFetchType reports the media type of the most recent Fetch call.
func (p *Provider) LastFetchType() library.MediaType {
	mt, _ := p.lastFetchType.Load().(library.MediaType)
	return mt
}

// Name returns the provider name.
func (p *Provider) Name() string { return "mock" }

// IsConfigured always returns true for the mock.
func (p *Provider) IsConfigured() bool { return true }

// Fetch returns the registered record for externalID, honoring context
// cancellation first so cancelled requests abort without side effects.
func (p *Provider) Fetch(ctx context.Context, externalID string, mediaType library.MediaType) (*metadata.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.fetchCalls.Add(1)
	p.lastFetchType.Store(mediaType)

	if p.FetchErr != nil {
		return nil, p.FetchErr
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	result, ok := p.records[externalID]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	// Shallow copy so callers can stamp fields without mutating the
	// registered record.
	out := *result
	return &out, nil
}

// Search returns registered records whose title contains the query.
func (p *Provider) Search(ctx context.Context, query string, mediaType library.MediaType) ([]metadata.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var results []metadata.SearchResult
	for _, r := range p.records {
		if r.MediaType != mediaType {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(query)) {
			continue
		}
		results = append(results, metadata.SearchResult{
			ImdbID:    r.ImdbID,
			TmdbID:    r.TmdbID,
			Title:     r.Title,
			Year:      r.Year,
			MediaType: r.MediaType,
			PosterURL: r.PosterURL,
			Genres:    r.Genres,
		})
	}
	return results, nil
}
