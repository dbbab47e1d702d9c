package run_api

import (
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/channelscribe/cmd/web/handlers/common"
	"thirdcoast.systems/channelscribe/cmd/web/internal/runs"
)

// HandleDownload serves a finished run's combined file as an attachment.
func HandleDownload(svc *runs.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		entry, ok := svc.Get(id)
		if !ok {
			return common.ErrNotFound("unknown run")
		}
		if _, err := os.Stat(entry.FinalFile); err != nil {
			return common.ErrNotFound("combined file no longer exists")
		}

		return c.Attachment(entry.FinalFile, filepath.Base(entry.FinalFile))
	}
}
