package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/session_auth/internal/handlers/httperr"
	authmw "github.com/Skotchmaster/session_auth/internal/middleware/auth"
	"github.com/Skotchmaster/session_auth/internal/service"
	"github.com/Skotchmaster/session_auth/internal/transport"
)

type AuthHandler struct {
	Auth    *service.AuthService
	Cookies CookieConfig
}

func (h *AuthHandler) setSession(c echo.Context, sess *service.Session) {
	c.SetCookie(h.Cookies.CreateCookie(AccessCookie, sess.AccessToken, "/", sess.AccessExpiresAt))
	c.SetCookie(h.Cookies.CreateCookie(RefreshCookie, sess.RefreshToken, "/", sess.RefreshExpiresAt))
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	account, err := h.Auth.Register(c.Request().Context(), service.RegisterInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(http.StatusCreated, transport.FromAccount(account))
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	sess, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httperr.From(err)
	}
	h.setSession(c, sess)
	return c.JSON(http.StatusOK, transport.UserResponse{User: transport.FromAccount(sess.Account)})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var presented string
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		presented = ck.Value
	}

	sess, err := h.Auth.Refresh(c.Request().Context(), presented)
	if err != nil {
		return httperr.From(err)
	}
	h.setSession(c, sess)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "tokens refreshed"})
}

// LogOut always clears the cookies, even when the refresh token is unknown.
func (h *AuthHandler) LogOut(c echo.Context) error {
	var presented string
	if ck, err := c.Cookie(RefreshCookie); err == nil {
		presented = ck.Value
	}

	if err := h.Auth.LogOut(c.Request().Context(), presented); err != nil {
		return httperr.From(err)
	}

	c.SetCookie(h.Cookies.DeleteCookie(RefreshCookie, "/"))
	c.SetCookie(h.Cookies.DeleteCookie(AccessCookie, "/"))
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	account, err := h.Auth.Me(c.Request().Context(), authmw.AccountID(c))
	if err != nil {
		return httperr.From(err)
	}
	return c.JSON(http.StatusOK, transport.UserResponse{User: transport.FromAccount(account)})
}
