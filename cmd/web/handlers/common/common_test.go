package common

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/starfederation/datastar-go/datastar"
	"github.com/stretchr/testify/require"
)

func TestRequireUUIDParam(t *testing.T) {
	e := echo.New()
	id := uuid.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	got, err := RequireUUIDParam(c, "id")
	require.NoError(t, err)
	require.Equal(t, id, got)

	c.SetParamValues("nope")
	_, err = RequireUUIDParam(c, "id")
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestErrorHelpers(t *testing.T) {
	require.Equal(t, http.StatusNotFound, ErrNotFound("x").Code)
	require.Equal(t, http.StatusServiceUnavailable, ErrServiceUnavailable("x").Code)
	require.Equal(t, http.StatusInternalServerError, ErrInternal("x").Code)
}

func TestSSEHelpers(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	SetSSEHeaders(c)
	sse := datastar.NewSSE(c.Response().Writer, c.Request())
	PatchSignals(sse, map[string]any{"running": false})

	require.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
	require.Contains(t, rec.Body.String(), "datastar-patch-signals")
	require.Contains(t, rec.Body.String(), `"running":false`)
}
