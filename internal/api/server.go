// Package api exposes the HTTP surface: auth, catalog search, library
// routes, and the websocket event stream. Insertable actions are wrapped
// with the resolver middleware so placeholder identities are resolved before
// handlers run.
package api

import (
	"context"
	"database/sql"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/streambridge/streambridge/internal/anime"
	"github.com/streambridge/streambridge/internal/auth"
	"github.com/streambridge/streambridge/internal/config"
	"github.com/streambridge/streambridge/internal/library"
	"github.com/streambridge/streambridge/internal/metadata"
	"github.com/streambridge/streambridge/internal/resolver"
	"github.com/streambridge/streambridge/internal/stremio"
	"github.com/streambridge/streambridge/internal/users"
	"github.com/streambridge/streambridge/internal/websocket"
)

// Server handles HTTP requests for the StreamBridge API.
type Server struct {
	echo   *echo.Echo
	db     *sql.DB
	hub    *websocket.Hub
	logger zerolog.Logger
	cfg    *config.Config

	// Services
	userService    *users.Service
	folderService  *library.Folders
	itemService    *library.Items
	authService    *auth.Service
	provider       metadata.Provider
	placeholders   *stremio.Store
	catalogService *stremio.Catalog
	pipeline       *resolver.Pipeline
}

// NewServer creates a new API server instance. provider supplies remote
// metadata; production wiring passes the TMDB client, tests pass the mock.
func NewServer(db *sql.DB, hub *websocket.Hub, cfg *config.Config, provider metadata.Provider, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		db:     db,
		hub:    hub,
		logger: logger,
		cfg:    cfg,
	}

	s.userService = users.NewService(db, logger)
	s.folderService = library.NewFolders(db, logger)
	s.itemService = library.NewItems(db, hub, logger)
	s.authService = auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	s.provider = provider
	s.placeholders = stremio.NewStore(cfg.Stremio.PlaceholderTTL(), logger)
	s.catalogService = stremio.NewCatalog(s.provider, s.placeholders, s.itemService, cfg.Stremio.MaxSearchResults, logger)
	s.pipeline = resolver.NewPipeline(
		s.userService,
		s.folderService,
		s.itemService,
		s.placeholders,
		s.provider,
		anime.NewKeywordClassifier(),
		logger,
	)

	e.Use(echomw.Recover())
	e.Use(echomw.Secure())
	e.Use(s.requestLogger())

	s.registerRoutes()
	return s
}

// Placeholders returns the transient placeholder store, for the prune job.
func (s *Server) Placeholders() *stremio.Store {
	return s.placeholders
}

// Echo exposes the underlying router, for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	return s.echo.Start(s.cfg.Server.Address())
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			s.logger.Debug().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("elapsed", time.Since(start)).
				Msg("Request handled")
			return err
		}
	}
}
