package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Skotchmaster/session_auth/internal/handlers"
	authmw "github.com/Skotchmaster/session_auth/internal/middleware/auth"
	"github.com/Skotchmaster/session_auth/internal/service"
)

type Deps struct {
	Auth         *service.AuthService
	AuthHandler  *handlers.AuthHandler
	AuditHandler *handlers.AuditHandler
	Gatherer     prometheus.Gatherer
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := d.Auth.Ready(c.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	requireAuth := authmw.RequireAuth(d.Auth)

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/refresh", d.AuthHandler.Refresh)
	e.POST("/logout", d.AuthHandler.LogOut)
	e.GET("/me", d.AuthHandler.Me, requireAuth)

	admin := e.Group("/admin", requireAuth, authmw.RequireMainAdmin(d.Auth))
	admin.GET("/audit", d.AuditHandler.Search)
}
