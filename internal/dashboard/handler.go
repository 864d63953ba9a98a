package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.GetSummary)
}

func (h *Handler) GetSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Summary())
}
