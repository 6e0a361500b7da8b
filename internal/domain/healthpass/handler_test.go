package healthpass

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpass/medpass/internal/platform/ai"
	"github.com/medpass/medpass/internal/platform/apperr"
	"github.com/medpass/medpass/internal/platform/auth"
)

func authed(e *echo.Echo, method, body string, user uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithUserID(req.Context(), user))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreateAndAccess(t *testing.T) {
	f := newFixture(t)
	med := f.records.addMedication("Aspirin", "100mg")
	f.advisor.items[med.ID.String()] = ai.Judgment{IsRelevant: true, Rationale: "Relevant to cardiac care."}
	h, e := NewHandler(f.svc), echo.New()

	c, rec := authed(e, http.MethodPost, `{"appointmentSpecialty":"cardiology","appointmentDate":"2026-10-21"}`, f.user)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Success bool `json:"success"`
		Data    struct {
			ID          uuid.UUID `json:"id"`
			AccessCode  string    `json:"accessCode"`
			Status      string    `json:"status"`
			DataToggles struct {
				Name                bool        `json:"name"`
				SpecificMedications []uuid.UUID `json:"specificMedications"`
			} `json:"dataToggles"`
			Items struct {
				Medications []struct {
					IsEnabled bool `json:"isEnabled"`
				} `json:"medications"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Equal(t, StatusGenerated, created.Data.Status)
	assert.True(t, created.Data.DataToggles.Name)
	assert.Equal(t, []uuid.UUID{med.ID}, created.Data.DataToggles.SpecificMedications)
	require.Len(t, created.Data.Items.Medications, 1)
	require.NotEmpty(t, created.Data.AccessCode)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("accessCode")
	c.SetParamValues(created.Data.AccessCode)
	require.NoError(t, h.Access(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "Relevant to cardiac care.")
	assert.Contains(t, rec.Body.String(), `"specialty":"cardiology"`)
}

func TestHandler_Access_UnknownCode(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("accessCode")
	c.SetParamValues("does-not-exist")

	assert.ErrorIs(t, h.Access(c), apperr.ErrNotFound)
}

func TestHandler_Get_InvalidID(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()

	c, _ := authed(e, http.MethodGet, "", f.user)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	var httpErr *echo.HTTPError
	require.ErrorAs(t, h.Get(c), &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestHandler_ToggleItem_BadBody(t *testing.T) {
	f := newFixture(t)
	v := f.create(t)
	h, e := NewHandler(f.svc), echo.New()

	c, _ := authed(e, http.MethodPatch, `{"itemType":"medications","itemId":"nope","isEnabled":true}`, f.user)
	c.SetParamNames("id")
	c.SetParamValues(v.ID.String())

	var httpErr *echo.HTTPError
	require.ErrorAs(t, h.ToggleItem(c), &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestHandler_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	v := f.create(t)
	h, e := NewHandler(f.svc), echo.New()

	c, rec := authed(e, http.MethodDelete, "", f.user)
	c.SetParamNames("id")
	c.SetParamValues(v.ID.String())
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = authed(e, http.MethodGet, "", f.user)
	require.NoError(t, h.List(c))
	assert.Contains(t, rec.Body.String(), `"items":[]`)
	assert.Contains(t, rec.Body.String(), `"total":0`)
}

func TestHandler_RequiresOwner(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"appointmentSpecialty":"cardiology"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	var httpErr *echo.HTTPError
	require.ErrorAs(t, h.Create(c), &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
