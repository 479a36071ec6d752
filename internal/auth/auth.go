// Package auth issues and validates session tokens for the API.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/streambridge/streambridge/internal/users"
)

const userContextKey = "auth.userID"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoToken      = errors.New("missing token")
)

// Service issues and validates JWT session tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates an auth service. ttl bounds token lifetime.
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

type claims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// IssueToken creates a signed session token for a user.
func (s *Service) IssueToken(user *users.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a token and returns the user id it carries.
func (s *Service) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, ErrInvalidToken
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.UserID <= 0 {
		return 0, ErrInvalidToken
	}
	return c.UserID, nil
}

// Middleware validates the Authorization header and stashes the user id
// into the request context.
func (s *Service) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			tokenString := strings.TrimPrefix(header, "Bearer ")
			userID, err := s.ValidateToken(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(userContextKey, userID)
			return next(c)
		}
	}
}

// UserID extracts the authenticated user id from the request context.
func UserID(c echo.Context) (int64, bool) {
	id, ok := c.Get(userContextKey).(int64)
	return id, ok && id > 0
}
