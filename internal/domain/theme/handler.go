package theme

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	provider *Provider
}

func NewHandler(p *Provider) *Handler {
	return &Handler{provider: p}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/themes", h.ListThemes)
	api.GET("/theme", h.GetTheme)
	api.PUT("/theme", h.SetTheme)
	api.GET("/theme.css", h.Stylesheet)
}

type themeResponse struct {
	Theme
	DataTheme string            `json:"dataTheme"`
	Variables map[string]string `json:"cssVariables"`
}

func (h *Handler) current() themeResponse {
	return themeResponse{
		Theme:     h.provider.Current(),
		DataTheme: h.provider.DataTheme(),
		Variables: h.provider.CSSVariables(),
	}
}

func (h *Handler) ListThemes(c echo.Context) error {
	return c.JSON(http.StatusOK, All())
}

func (h *Handler) GetTheme(c echo.Context) error {
	return c.JSON(http.StatusOK, h.current())
}

func (h *Handler) SetTheme(c echo.Context) error {
	var req struct {
		Theme string `json:"theme"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.provider.Set(Name(req.Theme)); err != nil {
		if errors.Is(err, ErrUnknownTheme) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.current())
}

func (h *Handler) Stylesheet(c echo.Context) error {
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", []byte(h.provider.Stylesheet()))
}
