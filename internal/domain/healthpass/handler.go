package healthpass

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medpass/medpass/internal/platform/auth"
	"github.com/medpass/medpass/pkg/pagination"
	"github.com/medpass/medpass/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/health-passes", h.Create)
	api.GET("/health-passes", h.List)
	api.GET("/health-passes/:id", h.Get)
	api.PATCH("/health-passes/:id/toggle-item", h.ToggleItem)
	api.PATCH("/health-passes/:id/toggles", h.UpdateToggles)
	api.DELETE("/health-passes/:id", h.Delete)
}

// RegisterPublicRoutes mounts the clinician endpoint. It needs no token, so
// callers usually pass a stricter rate limiter in mw.
func (h *Handler) RegisterPublicRoutes(api *echo.Group, mw ...echo.MiddlewareFunc) {
	api.GET("/health-passes/access/:accessCode", h.Access, mw...)
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
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v, err := h.svc.Create(c.Request().Context(), owner, in)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusCreated, v)
}

func (h *Handler) List(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), owner, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*HealthPass{}
	}
	return response.OK(c, http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.Get(c.Request().Context(), owner, id)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, v)
}

func (h *Handler) ToggleItem(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var in ToggleItemInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v, err := h.svc.ToggleItem(c.Request().Context(), owner, id, in)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, v)
}

func (h *Handler) UpdateToggles(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var in TogglesInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	v, err := h.svc.UpdateToggles(c.Request().Context(), owner, id, in)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, v)
}

func (h *Handler) Delete(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), owner, id); err != nil {
		return err
	}
	return response.OKMessage(c, http.StatusOK, nil, "health pass deleted")
}

func (h *Handler) Access(c echo.Context) error {
	pv, err := h.svc.Access(c.Request().Context(), c.Param("accessCode"))
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return response.OK(c, http.StatusOK, pv)
}
