package httperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/session_auth/internal/service"
)

// From maps a service error onto the HTTP error echo renders. Unknown errors
// become a bare 500 so store details never reach the client.
func From(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrBadRequest):
		return echo.NewHTTPError(http.StatusBadRequest, message(err))
	case errors.Is(err, service.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, message(err))
	case errors.Is(err, service.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, message(err))
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// message is the text after the sentinel prefix, e.g. "invalid refresh token".
func message(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{service.ErrBadRequest, service.ErrUnauthorized, service.ErrUnauthenticated} {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return rest
		}
	}
	return msg
}
