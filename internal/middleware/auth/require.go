package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/session_auth/internal/handlers/httperr"
	"github.com/Skotchmaster/session_auth/internal/logging"
	"github.com/Skotchmaster/session_auth/internal/models"
	"github.com/Skotchmaster/session_auth/internal/tokens"
)

const (
	AccessCookie = "accessToken"
	AccountIDKey = "accountID"
	RoleKey      = "role"
)

type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*tokens.Claims, error)
	Me(ctx context.Context, accountID string) (*models.Account, error)
}

// accessToken prefers the cookie and falls back to an Authorization: Bearer header.
func accessToken(c echo.Context) string {
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth rejects requests without a valid access token and stores the
// account id under AccountIDKey.
func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := a.Authenticate(c.Request().Context(), accessToken(c))
			if err != nil {
				return httperr.From(err)
			}
			c.Set(AccountIDKey, claims.AccountID)
			return next(c)
		}
	}
}

// RequireMainAdmin must run after RequireAuth. The role is read from the
// store, not from the token.
func RequireMainAdmin(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := AccountID(c)
			if id == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			ctx := c.Request().Context()
			account, err := a.Me(ctx, id)
			if err != nil {
				return httperr.From(err)
			}
			if account.Role != models.RoleMainAdmin {
				logging.FromContext(ctx).Warn("admin_denied", "status", 403, "account_id", id)
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}
			c.Set(RoleKey, string(account.Role))
			return next(c)
		}
	}
}

func AccountID(c echo.Context) string {
	id, _ := c.Get(AccountIDKey).(string)
	return id
}
