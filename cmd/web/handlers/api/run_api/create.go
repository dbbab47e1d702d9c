// package run_api provides the transcript run API handlers.
package run_api

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/starfederation/datastar-go/datastar"
	"thirdcoast.systems/channelscribe/cmd/web/handlers/common"
	"thirdcoast.systems/channelscribe/cmd/web/internal/runs"
	"thirdcoast.systems/channelscribe/cmd/web/templates"
	"thirdcoast.systems/channelscribe/internal/pipeline"
	"thirdcoast.systems/channelscribe/internal/videoid"
	"thirdcoast.systems/channelscribe/pkg/utils/filename"
	"thirdcoast.systems/channelscribe/pkg/ytdlp"
)

type CreateOptions struct {
	ResultsDir        string
	DefaultOutputFile string
	Upload            templates.UploadOptions
}

// listingReason keeps the part of a listing failure a user can act on.
func listingReason(err error) string {
	var ee *ytdlp.ExecError
	if errors.As(err, &ee) {
		return ee.Reason()
	}
	return err.Error()
}

func patchRunError(sse *datastar.ServerSentEventGenerator, msg string) {
	if err := sse.PatchElementTempl(templates.RunError(msg), datastar.WithSelectorID(templates.ResultID), datastar.WithModeReplace()); err != nil {
		slog.Debug("failed to patch run error", "error", err)
	}
	common.PatchSignals(sse, map[string]any{"running": false})
}

// HandleCreate runs the pipeline for the submitted channel and streams its
// progress. The request stays open for the whole run.
func HandleCreate(svc *runs.Service, opts CreateOptions) echo.HandlerFunc {
	return func(c echo.Context) error {
		var signals struct {
			ChannelURL string `json:"channelUrl"`
			OutputFile string `json:"outputFile"`
		}
		if err := datastar.ReadSignals(c.Request(), &signals); err != nil {
			return common.ErrBadRequest("invalid signals")
		}

		// IMPORTANT: NewSSE must be created AFTER ReadSignals.
		// NewSSE flushes response headers which closes the request body.
		common.SetSSEHeaders(c)
		sse := datastar.NewSSE(c.Response().Writer, c.Request())

		raw := strings.TrimSpace(signals.ChannelURL)
		if raw == "" {
			patchRunError(sse, "Please enter a channel URL")
			return nil
		}
		channelURL, err := videoid.NormalizeChannelURL(raw)
		if err != nil {
			patchRunError(sse, "Please enter a YouTube channel URL, for example https://www.youtube.com/@name")
			return nil
		}
		finalFile := filepath.Join(opts.ResultsDir, filename.OutputFile(signals.OutputFile, opts.DefaultOutputFile))

		_ = sse.PatchElementTempl(templates.Placeholder(templates.ResultID), datastar.WithSelectorID(templates.ResultID), datastar.WithModeReplace())

		// A closed tab must not abort a half-finished run.
		ctx := context.WithoutCancel(c.Request().Context())
		entry, err := svc.Start(ctx, channelURL, finalFile, func(p pipeline.Progress) {
			if err := sse.PatchElementTempl(templates.Progress(p), datastar.WithSelectorID(templates.ProgressID), datastar.WithModeReplace()); err != nil {
				slog.Debug("failed to patch progress", "error", err)
			}
		})
		switch {
		case errors.Is(err, runs.ErrRunInProgress):
			patchRunError(sse, "A run is already in progress. Please wait for it to finish.")
			return nil
		case err != nil:
			slog.Error("run failed", "channel_url", channelURL, "error", err)
			var le *pipeline.ListError
			if errors.As(err, &le) {
				patchRunError(sse, "Could not list the channel's videos: "+listingReason(le.Err))
			} else {
				patchRunError(sse, "Run failed: "+err.Error())
			}
			return nil
		}

		if err := sse.PatchElementTempl(templates.RunResult(entry, opts.Upload), datastar.WithSelectorID(templates.ResultID), datastar.WithModeReplace()); err != nil {
			slog.Debug("failed to patch run result", "run_id", entry.RunID, "error", err)
		}
		common.PatchSignals(sse, map[string]any{"running": false})
		return nil
	}
}
