package identity

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medpass/medpass/internal/platform/ai"
	"github.com/medpass/medpass/internal/platform/auth"
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
	api.POST("/auth/verify-id", h.VerifyID)
	api.POST("/auth/refresh", h.Refresh)
	api.POST("/auth/logout", h.Logout)
	api.GET("/users/me", h.Me)
	api.PATCH("/users/me", h.UpdateMe)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) VerifyID(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"image\" is required")
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image is too large")
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

	mediaType := fh.Header.Get(echo.HeaderContentType)
	if !ai.SupportedAttachment(mediaType) {
		mediaType = http.DetectContentType(data)
	}

	res, err := h.svc.VerifyID(c.Request().Context(), ai.Attachment{MediaType: mediaType, Data: data})
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, res)
}

func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	pair, err := h.svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, pair)
}

func (h *Handler) Logout(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Logout(c.Request().Context(), owner, req.RefreshToken); err != nil {
		return err
	}
	return response.OKMessage(c, http.StatusOK, nil, "logged out")
}

func (h *Handler) Me(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Me(c.Request().Context(), owner)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, u.Profile())
}

func (h *Handler) UpdateMe(c echo.Context) error {
	owner, err := auth.OwnerID(c)
	if err != nil {
		return err
	}
	var in ContactInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	u, err := h.svc.UpdateMe(c.Request().Context(), owner, in)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, u.Profile())
}
