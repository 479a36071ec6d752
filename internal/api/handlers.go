package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/streambridge/streambridge/internal/auth"
	"github.com/streambridge/streambridge/internal/library"
	"github.com/streambridge/streambridge/internal/users"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := s.userService.Create(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateUsername):
			return echo.NewHTTPError(http.StatusConflict, "username already exists")
		case errors.Is(err, users.ErrInvalidUser):
			return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
		}
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := s.userService.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	token, err := s.authService.IssueToken(user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token, User: user})
}

func (s *Server) handleSearch(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}

	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}
	mediaType := library.MediaType(c.QueryParam("type"))

	entries, err := s.catalogService.Search(c.Request().Context(), query, mediaType, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "catalog search failed")
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleListItems(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}

	items, err := s.itemService.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleListFolders(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}

	folders, err := s.folderService.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, folders)
}

type createFolderRequest struct {
	MediaType string `json:"mediaType"`
	Name      string `json:"name"`
	Path      string `json:"path"`
}

func (s *Server) handleCreateFolder(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}

	var req createFolderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	folder, err := s.folderService.Create(c.Request().Context(), userID, library.MediaType(req.MediaType), req.Name, req.Path)
	if err != nil {
		switch {
		case errors.Is(err, library.ErrInvalidFolder):
			return echo.NewHTTPError(http.StatusBadRequest, "mediaType, name and path are required")
		case errors.Is(err, library.ErrDuplicateFolder):
			return echo.NewHTTPError(http.StatusConflict, "folder for this media type already exists")
		}
		return err
	}
	return c.JSON(http.StatusCreated, folder)
}

// handleGetItem serves item detail. When the resolver middleware could not
// resolve a placeholder (pass-through), the placeholder metadata itself is
// served so the client sees the same response it saw at search time.
func (s *Server) handleGetItem(c echo.Context) error {
	id := c.Param("id")

	if itemID, err := strconv.ParseInt(id, 10, 64); err == nil {
		item, err := s.itemService.Get(c.Request().Context(), itemID)
		if err != nil {
			if errors.Is(err, library.ErrItemNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "item not found")
			}
			return err
		}
		return c.JSON(http.StatusOK, item)
	}

	if meta, ok := s.placeholders.Get(id); ok {
		return c.JSON(http.StatusOK, meta)
	}
	return echo.NewHTTPError(http.StatusNotFound, "item not found")
}

type playResponse struct {
	ItemID    int64  `json:"itemId,omitempty"`
	Pending   bool   `json:"pending,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	Title     string `json:"title,omitempty"`
}

// handlePlayItem starts playback for a canonical item. A placeholder that
// survived the resolver middleware is reported as pending, unchanged.
func (s *Server) handlePlayItem(c echo.Context) error {
	id := c.Param("id")

	if itemID, err := strconv.ParseInt(id, 10, 64); err == nil {
		item, err := s.itemService.Get(c.Request().Context(), itemID)
		if err != nil {
			if errors.Is(err, library.ErrItemNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "item not found")
			}
			return err
		}
		return c.JSON(http.StatusOK, playResponse{
			ItemID:    item.ID,
			MediaType: string(item.MediaType),
			Title:     item.Title,
		})
	}

	if meta, ok := s.placeholders.Get(id); ok {
		return c.JSON(http.StatusOK, playResponse{
			Pending:   true,
			MediaType: string(meta.MediaType),
			Title:     meta.Title,
		})
	}
	return echo.NewHTTPError(http.StatusNotFound, "item not found")
}
