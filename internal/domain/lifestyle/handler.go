package lifestyle

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medpass/medpass/internal/platform/auth"
	"github.com/medpass/medpass/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/lifestyle", h.Get)
	api.PUT("/lifestyle", h.Upsert)
	api.DELETE("/lifestyle", h.Delete)
}

func (h *Handler) Get(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	l, err := h.svc.Get(c.Request().Context(), owner)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, l)
}

func (h *Handler) Upsert(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	l, err := h.svc.Upsert(c.Request().Context(), owner, in)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, l)
}

func (h *Handler) Delete(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), owner); err != nil {
		return err
	}
	return response.OKMessage(c, http.StatusOK, nil, "lifestyle deleted")
}
