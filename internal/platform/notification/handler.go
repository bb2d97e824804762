package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// NotificationHandler exposes the notification log over HTTP.
type NotificationHandler struct {
	manager *NotificationManager
}

func NewNotificationHandler(mgr *NotificationManager) *NotificationHandler {
	return &NotificationHandler{manager: mgr}
}

func (h *NotificationHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/notifications/stats", h.HandleStats)
	g.GET("/notifications/:id", h.HandleGet)
	g.GET("/notifications", h.HandleList)
	g.POST("/notifications/:id/retry", h.HandleRetry)
}

// HandleGet handles GET /notifications/:id.
func (h *NotificationHandler) HandleGet(c echo.Context) error {
	n, err := h.manager.GetNotification(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, n)
}

// HandleList handles GET /notifications?recipient=...&limit=...
func (h *NotificationHandler) HandleList(c echo.Context) error {
	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	list := h.manager.List(c.Request().Context(), c.QueryParam("recipient"), limit)
	return c.JSON(http.StatusOK, list)
}

// HandleRetry handles POST /notifications/:id/retry.
func (h *NotificationHandler) HandleRetry(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if err := h.manager.Retry(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		n, getErr := h.manager.GetNotification(ctx, id)
		if getErr == nil && n.Status == StatusFailed {
			return c.JSON(http.StatusBadGateway, n)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.manager.GetNotification(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, n)
}

// HandleStats handles GET /notifications/stats.
func (h *NotificationHandler) HandleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.NotificationStats(c.Request().Context()))
}
