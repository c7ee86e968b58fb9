package auth

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"pizzaproblem/internal/model"
	"pizzaproblem/internal/repository"
)

const (
	claimsContextKey = "token_claims"
	userContextKey   = "current_user"
)

// ResolveUser returns middleware that resolves the caller's identity once,
// before handler dispatch. It reads "Authorization: Bearer <token>",
// validates it, exchanges the id claim for a store-backed user, and attaches
// the user to the request context. Every failure mode (absent header,
// malformed token, bad signature, expiry, unknown user id) leaves the
// request without identity and lets it continue; RequireUser decides later
// whether that matters for the route.
func ResolveUser(jwtSvc *JWTService, users repository.UserRepository) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return jwtSvc.ValidateToken(auth)
		},
		SuccessHandler: func(c echo.Context) {
			claims, ok := c.Get(claimsContextKey).(*Claims)
			if !ok {
				return
			}
			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				// Token id no longer maps to a user.
				return
			}
			c.Set(userContextKey, user)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			// Token problems are never surfaced to the caller.
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}

// RequireUser gates protected routes: no resolved identity means 401.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := CurrentUser(c); !ok {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
		}
		return next(c)
	}
}

// CurrentUser returns the user attached by ResolveUser, if any.
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(userContextKey).(*model.User)
	return user, ok
}
