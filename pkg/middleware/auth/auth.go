// Package authmw guards echo routes with bearer tokens and role checks.
package authmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const UserKey = "user"

var (
	ErrNotLoggedIn = echo.NewHTTPError(http.StatusUnauthorized, "You are not logged in. Please log in first.")
	ErrNotAllowed  = echo.NewHTTPError(http.StatusForbidden, "You are not authorized to access this route")
)

// Resolver turns a raw bearer token into the authenticated user.
type Resolver[U any] func(ctx context.Context, token string) (U, error)

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Protect rejects requests without a valid bearer token and stores the
// resolved user under UserKey.
func Protect[U any](resolve Resolver[U]) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := BearerToken(c.Request())
			if token == "" {
				return ErrNotLoggedIn
			}
			user, err := resolve(c.Request().Context(), token)
			if err != nil {
				return err
			}
			c.Set(UserKey, user)
			return next(c)
		}
	}
}

// Current returns the user stored by Protect.
func Current[U any](c echo.Context) (U, bool) {
	u, ok := c.Get(UserKey).(U)
	return u, ok
}

// AllowedTo lets through only users whose role is one of roles. It must run
// after Protect.
func AllowedTo[U any, R comparable](role func(U) R, roles ...R) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := Current[U](c)
			if !ok {
				return ErrNotLoggedIn
			}
			r := role(u)
			for _, allowed := range roles {
				if r == allowed {
					return next(c)
				}
			}
			return ErrNotAllowed
		}
	}
}
