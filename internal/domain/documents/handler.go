package documents

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medpass/medpass/internal/platform/auth"
	"github.com/medpass/medpass/pkg/pagination"
	"github.com/medpass/medpass/pkg/response"
)

type Handler struct {
	svc      *Service
	maxBytes int64
}

func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, maxBytes: maxUploadBytes}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/documents", h.Upload)
	api.GET("/documents", h.List)
	api.GET("/documents/:id", h.Get)
	api.GET("/documents/:id/url", h.URL)
	api.PATCH("/documents/:id/confirm", h.Confirm)
	api.DELETE("/documents/:id", h.Delete)
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

func (h *Handler) Upload(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}

	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	d, err := h.svc.Upload(c.Request().Context(), owner, Upload{
		FileName:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusCreated, d)
}

func (h *Handler) List(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), owner, c.QueryParam("active") != "false", pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Document{}
	}
	return response.OK(c, http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Get(c.Request().Context(), owner, id)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, d)
}

func (h *Handler) URL(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.URL(c.Request().Context(), owner, id)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, u)
}

func (h *Handler) Confirm(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	var in ConfirmInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	d, err := h.svc.Confirm(c.Request().Context(), owner, id, in)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, d)
}

func (h *Handler) Delete(c echo.Context) error {
	owner, id, err := ownerAndID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), owner, id); err != nil {
		return err
	}
	return response.OKMessage(c, http.StatusOK, nil, "document deleted")
}
