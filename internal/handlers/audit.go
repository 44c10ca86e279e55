package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/session_auth/internal/events"
	"github.com/Skotchmaster/session_auth/internal/logging"
	"github.com/Skotchmaster/session_auth/internal/util"
)

type AuditSearcher interface {
	Search(ctx context.Context, q events.AuditQuery) (int64, []events.Event, error)
}

type AuditHandler struct {
	Index AuditSearcher
}

func NewAuditHandler(index AuditSearcher) *AuditHandler {
	return &AuditHandler{Index: index}
}

// Search lists audit events, newest first. Filters: account_id, type; paging: page, size.
func (h *AuditHandler) Search(c echo.Context) error {
	if h.Index == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audit index is not configured")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	ctx := c.Request().Context()
	total, found, err := h.Index.Search(ctx, events.AuditQuery{
		AccountID: c.QueryParam("account_id"),
		Type:      c.QueryParam("type"),
		From:      from,
		Size:      size,
	})
	if err != nil {
		logging.FromContext(ctx).Error("audit_search_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "events": found})
}
