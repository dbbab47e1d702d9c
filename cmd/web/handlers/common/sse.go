package common

import (
	"encoding/json"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/starfederation/datastar-go/datastar"
)

// SetSSEHeaders sets headers needed for SSE that datastar.NewSSE() does NOT set.
// datastar already sets Content-Type, Cache-Control, and Connection.
// This only adds X-Accel-Buffering for nginx/reverse proxy compatibility.
func SetSSEHeaders(c echo.Context) {
	c.Response().Header().Set("X-Accel-Buffering", "no")
}

// PatchSignals marshals v and patches it into the page's signals. Failures
// are logged; the browser may already be gone.
func PatchSignals(sse *datastar.ServerSentEventGenerator, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(b); err != nil {
		slog.Debug("failed to patch signals", "error", err)
	}
}
