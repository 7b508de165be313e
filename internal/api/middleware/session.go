package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velia/accounts-api/internal/core/domain"
	"github.com/velia/accounts-api/internal/core/ports"
)

// Context keys populated by Session for downstream handlers.
const (
	ContextAccountID = "account_id"
	ContextEmail     = "email"
	ContextRole      = "role"
	ContextSessionID = "session_id"
)

// Session authenticates the request against the server-side session store
// using the opaque cookie value, and injects the session identity into the
// Echo context. A missing, unknown or expired session yields the same 401;
// the client cannot tell which case it hit.
func Session(store ports.SessionStore, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			session, err := store.Resolve(c.Request().Context(), cookie.Value)
			if err != nil {
				return err
			}
			if session == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			c.Set(ContextAccountID, session.AccountID)
			c.Set(ContextEmail, session.Email)
			c.Set(ContextRole, session.Role)
			c.Set(ContextSessionID, session.ID)

			return next(c)
		}
	}
}

// RequireAdmin gates a route on the admin role. Must run after Session.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(domain.Role)
			if role != domain.RoleAdmin {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
