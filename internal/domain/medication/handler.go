package medication

import (
	"net/http"

	"github.com/google/uuid"
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
	api.POST("/medications", h.Create)
	api.GET("/medications", h.List)
	api.GET("/medications/:id", h.Get)
	api.PATCH("/medications/:id", h.Update)
	api.DELETE("/medications/:id", h.Delete)
}

func ownerAndID(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return owner, id, nil
}

func (h *Handler) Create(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.Create(c.Request().Context(), owner, in)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusCreated, m)
}

func (h *Handler) List(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), owner, c.QueryParam("active") != "false")
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Medication{}
	}
	return response.OK(c, http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	m, err := h.svc.Get(c.Request().Context(), owner, id)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, m)
}

func (h *Handler) Update(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.Update(c.Request().Context(), owner, id, in)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, m)
}

func (h *Handler) Delete(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), owner, id); err != nil {
		return err
	}
	return response.OKMessage(c, http.StatusOK, nil, "medication deleted")
}
