// Package tmdb implements the metadata provider against the TMDB API.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/library"
	"github.com/streambridge/streambridge/internal/metadata"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// Client is a TMDB API client implementing metadata.Provider.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Fetch retrieves the full record for an IMDb id (tt…) or a numeric TMDB id.
// mediaType must be movie or series; the API has no anime category.
func (c *Client) Fetch(ctx context.Context, externalID string, mediaType library.MediaType) (*metadata.Result, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}
	if mediaType == library.MediaTypeAnime {
		return nil, fmt.Errorf("anime is not a TMDB media type, request as series")
	}

	tmdbID, err := c.resolveTMDBID(ctx, externalID, mediaType)
	if err != nil {
		return nil, err
	}

	if mediaType == library.MediaTypeMovie {
		return c.fetchMovie(ctx, tmdbID)
	}
	return c.fetchSeries(ctx, tmdbID)
}

// Search queries the catalog by title.
func (c *Client) Search(ctx context.Context, query string, mediaType library.MediaType) ([]metadata.SearchResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	if mediaType == library.MediaTypeMovie {
		return c.searchMovies(ctx, query)
	}
	return c.searchSeries(ctx, query)
}

// resolveTMDBID maps an external id to a TMDB id. IMDb ids go through the
// /find endpoint; anything numeric is already a TMDB id.
func (c *Client) resolveTMDBID(ctx context.Context, externalID string, mediaType library.MediaType) (int, error) {
	if id, err := strconv.Atoi(externalID); err == nil {
		return id, nil
	}

	endpoint := fmt.Sprintf("%s/find/%s", c.config.BaseURL, url.PathEscape(externalID))
	params := url.Values{}
	params.Set("external_source", "imdb_id")

	var response findResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return 0, err
	}

	if mediaType == library.MediaTypeMovie {
		if len(response.MovieResults) == 0 {
			return 0, metadata.ErrNotFound
		}
		return response.MovieResults[0].ID, nil
	}
	if len(response.TVResults) == 0 {
		return 0, metadata.ErrNotFound
	}
	return response.TVResults[0].ID, nil
}

func (c *Client) fetchMovie(ctx context.Context, tmdbID int) (*metadata.Result, error) {
	endpoint := fmt.Sprintf("%s/movie/%d", c.config.BaseURL, tmdbID)
	params := url.Values{}
	params.Set("append_to_response", "keywords")

	var details movieDetails
	if err := c.doRequest(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}

	genres := make([]string, 0, len(details.Genres)+len(details.Keywords.Keywords))
	for _, g := range details.Genres {
		genres = append(genres, g.Name)
	}
	for _, k := range details.Keywords.Keywords {
		genres = append(genres, k.Name)
	}

	return &metadata.Result{
		ImdbID:    details.ImdbID,
		TmdbID:    details.ID,
		Title:     details.Title,
		Year:      yearOf(details.ReleaseDate),
		MediaType: library.MediaTypeMovie,
		Overview:  details.Overview,
		PosterURL: posterURL(details.PosterPath),
		Genres:    genres,
		Runtime:   details.Runtime,
	}, nil
}

func (c *Client) fetchSeries(ctx context.Context, tmdbID int) (*metadata.Result, error) {
	endpoint := fmt.Sprintf("%s/tv/%d", c.config.BaseURL, tmdbID)
	params := url.Values{}
	params.Set("append_to_response", "keywords,external_ids")

	var details tvDetails
	if err := c.doRequest(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}

	genres := make([]string, 0, len(details.Genres)+len(details.Keywords.Results))
	for _, g := range details.Genres {
		genres = append(genres, g.Name)
	}
	for _, k := range details.Keywords.Results {
		genres = append(genres, k.Name)
	}

	runtime := 0
	if len(details.EpisodeRunTime) > 0 {
		runtime = details.EpisodeRunTime[0]
	}

	return &metadata.Result{
		ImdbID:    details.ExternalIDs.ImdbID,
		TmdbID:    details.ID,
		Title:     details.Name,
		Year:      yearOf(details.FirstAirDate),
		MediaType: library.MediaTypeSeries,
		Overview:  details.Overview,
		PosterURL: posterURL(details.PosterPath),
		Genres:    genres,
		Runtime:   runtime,
	}, nil
}

func (c *Client) searchMovies(ctx context.Context, query string) ([]metadata.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/search/movie", c.config.BaseURL)
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")

	var response searchMoviesResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	results := make([]metadata.SearchResult, 0, len(response.Results))
	for _, m := range response.Results {
		results = append(results, metadata.SearchResult{
			TmdbID:    m.ID,
			Title:     m.Title,
			Year:      yearOf(m.ReleaseDate),
			MediaType: library.MediaTypeMovie,
			PosterURL: posterURL(m.PosterPath),
		})
	}

	c.logger.Debug().Str("query", query).Int("results", len(results)).Msg("Movie search completed")
	return results, nil
}

func (c *Client) searchSeries(ctx context.Context, query string) ([]metadata.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/search/tv", c.config.BaseURL)
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")

	var response searchTVResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	results := make([]metadata.SearchResult, 0, len(response.Results))
	for _, tv := range response.Results {
		results = append(results, metadata.SearchResult{
			TmdbID:    tv.ID,
			Title:     tv.Name,
			Year:      yearOf(tv.FirstAirDate),
			MediaType: library.MediaTypeSeries,
			PosterURL: posterURL(tv.PosterPath),
		})
	}

	c.logger.Debug().Str("query", query).Int("results", len(results)).Msg("Series search completed")
	return results, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	params.Set("api_key", c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return metadata.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrAPIError, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func posterURL(path string) string {
	if path == "" {
		return ""
	}
	return posterBaseURL + path
}
