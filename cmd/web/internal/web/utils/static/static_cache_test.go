package static

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	assets "thirdcoast.systems/channelscribe/static"
)

func TestNewCache_BuildsEntries(t *testing.T) {
	cache, err := NewCache(assets.FS)
	require.NoError(t, err)
	require.NotEmpty(t, cache.entries)

	ci, ok := cache.entries["dist/main.css"]
	require.True(t, ok, "expected dist/main.css to be embedded")

	require.True(t, regexp.MustCompile(`^\"[0-9a-f]{64}\"$`).MatchString(ci.ETag))
	require.True(t, ci.Size > 0)
	require.False(t, ci.LastModified.IsZero())
}

func serve(t *testing.T, cache *Cache, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	err := cache.Handler("/static/")(e.NewContext(req, rec))
	if err != nil {
		e.HTTPErrorHandler(err, e.NewContext(req, rec))
	}
	return rec
}

func TestHandler_ServesAndRevalidates(t *testing.T) {
	cache, err := NewCache(fstest.MapFS{
		"dist/main.css":    {Data: []byte("body{}")},
		"dist/favicon.svg": {Data: []byte("<svg/>")},
	})
	require.NoError(t, err)

	rec := serve(t, cache, "/static/dist/main.css", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
	require.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/css")
	require.Equal(t, "no-cache, must-revalidate", rec.Header().Get(echo.HeaderCacheControl))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	rec = serve(t, cache, "/static/dist/main.css", http.Header{"If-None-Match": {etag}})
	require.Equal(t, http.StatusNotModified, rec.Code)

	rec = serve(t, cache, "/static/dist/favicon.svg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get(echo.HeaderCacheControl), "max-age=86400")
}

func TestHandler_NotFound(t *testing.T) {
	cache, err := NewCache(fstest.MapFS{"dist/main.css": {Data: []byte("x")}})
	require.NoError(t, err)

	require.Equal(t, http.StatusNotFound, serve(t, cache, "/static/dist/missing.js", nil).Code)
	require.Equal(t, http.StatusNotFound, serve(t, cache, "/static/../go.mod", nil).Code)
}
