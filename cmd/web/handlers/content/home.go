package content

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"thirdcoast.systems/channelscribe/cmd/web/internal/runs"
	"thirdcoast.systems/channelscribe/cmd/web/templates"
	"thirdcoast.systems/channelscribe/internal/db"
)

// HandleHomePage renders the form. recent is nil when history is disabled.
func HandleHomePage(svc *runs.Service, recent *db.RecentRunsCache, defaultOutputFile string, upload templates.UploadOptions) echo.HandlerFunc {
	return func(c echo.Context) error {
		data := templates.IndexData{
			DefaultOutputFile: defaultOutputFile,
			Running:           svc.Running(),
			Upload:            upload,
			HistoryEnabled:    recent != nil,
			Recent:            recent.Get(),
		}

		if id, err := uuid.Parse(c.QueryParam("run")); err == nil {
			if entry, ok := svc.Get(id); ok {
				data.Result = entry
			}
		}

		switch c.QueryParam("drive") {
		case "connected":
			data.Flash = "Google Drive connected. You can upload now."
		case "denied":
			data.Flash = "Google Drive access was not granted."
		}

		return templates.Index(data).Render(c.Request().Context(), c.Response())
	}
}
