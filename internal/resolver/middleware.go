package resolver

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/streambridge/streambridge/internal/auth"
)

// Middleware wraps insertable actions (playback and detail routes). When the
// :id path parameter names a live placeholder, the request is resolved and
// the parameter rewritten to the canonical item id before the handler runs;
// otherwise the request continues untouched.
func (p *Pipeline) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Param("id")
			userID, _ := auth.UserID(c)

			// Canonical ids are numeric; placeholders are opaque
			// strings. Skip the pipeline for ids that are already
			// canonical.
			if _, err := strconv.ParseInt(id, 10, 64); err == nil {
				return next(c)
			}

			outcome, err := p.Resolve(c.Request().Context(), id, userID)
			if err != nil {
				return err
			}
			if outcome.Resolved {
				rewriteParam(c, "id", strconv.FormatInt(outcome.ItemID, 10))
			}
			return next(c)
		}
	}
}

func rewriteParam(c echo.Context, name, value string) {
	names := c.ParamNames()
	values := c.ParamValues()
	rewritten := make([]string, len(names))
	copy(rewritten, values[:len(names)])
	for i, n := range names {
		if n == name {
			rewritten[i] = value
		}
	}
	c.SetParamNames(names...)
	c.SetParamValues(rewritten...)
}
