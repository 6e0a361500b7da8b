package clinical

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
	api.POST("/conditions", h.CreateCondition)
	api.GET("/conditions", h.ListConditions)
	api.GET("/conditions/:id", h.GetCondition)
	api.PATCH("/conditions/:id", h.UpdateCondition)
	api.DELETE("/conditions/:id", h.DeleteCondition)

	api.POST("/allergies", h.CreateAllergy)
	api.GET("/allergies", h.ListAllergies)
	api.GET("/allergies/:id", h.GetAllergy)
	api.PATCH("/allergies/:id", h.UpdateAllergy)
	api.DELETE("/allergies/:id", h.DeleteAllergy)
}

// ownerAndID resolves the caller and the :id path parameter.
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

// activeOnly is true unless the client asks for ?active=false.
func activeOnly(c echo.Context) bool {
	return c.QueryParam("active") != "false"
}

// -- Condition Handlers --

func (h *Handler) CreateCondition(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var in ConditionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cond, err := h.svc.CreateCondition(c.Request().Context(), owner, in)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusCreated, cond)
}

func (h *Handler) ListConditions(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListConditions(c.Request().Context(), owner, activeOnly(c))
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Condition{}
	}
	return response.OK(c, http.StatusOK, items)
}

func (h *Handler) GetCondition(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	cond, err := h.svc.GetCondition(c.Request().Context(), owner, id)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, cond)
}

func (h *Handler) UpdateCondition(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var in ConditionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cond, err := h.svc.UpdateCondition(c.Request().Context(), owner, id, in)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, cond)
}

func (h *Handler) DeleteCondition(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteCondition(c.Request().Context(), owner, id); err != nil {
		return err
	}
	return response.OKMessage(c, http.StatusOK, nil, "condition deleted")
}

// -- Allergy Handlers --

func (h *Handler) CreateAllergy(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var in AllergyInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.CreateAllergy(c.Request().Context(), owner, in)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusCreated, a)
}

func (h *Handler) ListAllergies(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListAllergies(c.Request().Context(), owner, activeOnly(c))
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Allergy{}
	}
	return response.OK(c, http.StatusOK, items)
}

func (h *Handler) GetAllergy(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.GetAllergy(c.Request().Context(), owner, id)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, a)
}

func (h *Handler) UpdateAllergy(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var in AllergyInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.svc.UpdateAllergy(c.Request().Context(), owner, id, in)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, a)
}

func (h *Handler) DeleteAllergy(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteAllergy(c.Request().Context(), owner, id); err != nil {
		return err
	}
	return response.OKMessage(c, http.StatusOK, nil, "allergy deleted")
}
