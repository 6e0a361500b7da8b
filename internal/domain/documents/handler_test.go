package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpass/medpass/internal/platform/apperr"
	"github.com/medpass/medpass/internal/platform/auth"
)

func multipartRequest(t *testing.T, fileName, contentType string, data []byte, user uuid.UUID) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req.WithContext(auth.WithUserID(req.Context(), user))
}

func jsonRequest(method, body string, user uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req.WithContext(auth.WithUserID(req.Context(), user))
}

func TestHandler_Upload(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc, 1<<20)
	e := echo.New()
	user := uuid.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(multipartRequest(t, "scan.png", "image/png", []byte("\x89PNG\r\n\x1a\nrest"), user), rec)
	require.NoError(t, h.Upload(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data struct {
			FileName    string `json:"fileName"`
			IsConfirmed bool   `json:"isConfirmed"`
			AISuggested struct {
				Name string `json:"name"`
			} `json:"aiSuggested"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "scan.png", body.Data.FileName)
	assert.False(t, body.Data.IsConfirmed)
	assert.Equal(t, "Complete blood count", body.Data.AISuggested.Name)
	assert.NotContains(t, rec.Body.String(), "storageKey")
}

func TestHandler_UploadTooLarge(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc, 4)
	c := echo.New().NewContext(multipartRequest(t, "a.pdf", "application/pdf", []byte("%PDF-1.4"), uuid.New()), httptest.NewRecorder())

	err := h.Upload(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, httpErr.Code)
}

func TestHandler_UploadMissingFile(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc, 1<<20)
	c := echo.New().NewContext(jsonRequest(http.MethodPost, `{}`, uuid.New()), httptest.NewRecorder())

	err := h.Upload(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestHandler_ConfirmAndList(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc, 1<<20)
	e := echo.New()
	user := uuid.New()
	d, err := f.svc.Upload(context.Background(), user, pdf("x"))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, `{"name":"CBC March","documentType":"lab_result"}`, user), rec)
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())
	require.NoError(t, h.Confirm(c))
	assert.Contains(t, rec.Body.String(), `"isConfirmed":true`)
	assert.Contains(t, rec.Body.String(), `"name":"CBC March"`)

	rec = httptest.NewRecorder()
	req := jsonRequest(http.MethodGet, "", user)
	req.URL.RawQuery = "limit=10"
	c = e.NewContext(req, rec)
	require.NoError(t, h.List(c))
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestHandler_GetOtherUser(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc, 1<<20)
	d, err := f.svc.Upload(context.Background(), uuid.New(), pdf("x"))
	require.NoError(t, err)

	c := echo.New().NewContext(jsonRequest(http.MethodGet, "", uuid.New()), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(d.ID.String())
	assert.ErrorIs(t, h.Get(c), apperr.ErrNotFound)
}
