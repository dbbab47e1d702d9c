package run_api

import (
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/starfederation/datastar-go/datastar"
	"thirdcoast.systems/channelscribe/cmd/web/handlers/common"
	"thirdcoast.systems/channelscribe/cmd/web/internal/runs"
	"thirdcoast.systems/channelscribe/cmd/web/templates"
	"thirdcoast.systems/channelscribe/internal/drive"
)

// HandleUpload sends a run's combined file to the configured Drive folder.
// dc is nil when Drive credentials are not configured.
func HandleUpload(svc *runs.Service, dc runs.DriveClient, folderID string) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		var signals struct {
			Upload bool `json:"upload"`
		}
		if err := datastar.ReadSignals(c.Request(), &signals); err != nil {
			return common.ErrBadRequest("invalid signals")
		}

		common.SetSSEHeaders(c)
		sse := datastar.NewSSE(c.Response().Writer, c.Request())

		status := func(ok bool, msg, href string) error {
			return sse.PatchElementTempl(templates.UploadStatus(ok, msg, href), datastar.WithSelectorID(templates.UploadStatusID), datastar.WithModeReplace())
		}
		connect := "/drive/auth?run=" + id.String()

		switch {
		case !signals.Upload:
			return status(false, "Tick “Upload to Google Drive” to upload.", "")
		case dc == nil:
			return status(false, "Google Drive upload is not configured on this server.", "")
		}
		if _, ok := svc.Get(id); !ok {
			return status(false, "This run is no longer available.", "")
		}
		if !dc.Authorized() {
			return status(false, "Google Drive is not connected yet.", connect)
		}

		_ = status(true, "Uploading…", "")
		fileID, err := svc.Upload(c.Request().Context(), id, dc, folderID)
		switch {
		case errors.Is(err, drive.ErrNotAuthorized):
			return status(false, "Google Drive is not connected yet.", connect)
		case err != nil:
			slog.Error("drive upload failed", "run_id", id, "error", err)
			return status(false, "Upload failed: "+err.Error(), "")
		}

		return status(true, "Uploaded.", drive.ViewURL(fileID))
	}
}
