// Package templates renders the HTML pages and the fragments streamed over
// datastar SSE. Components live in the .templ files; run `templ generate`
// after editing them.
package templates

import (
	"context"
	"strconv"
	"strings"

	"thirdcoast.systems/channelscribe/cmd/web/ctxkeys"
	"thirdcoast.systems/channelscribe/cmd/web/internal/runs"
	"thirdcoast.systems/channelscribe/cmd/web/internal/theme"
	"thirdcoast.systems/channelscribe/cmd/web/viewtypes"
	"thirdcoast.systems/channelscribe/internal/db"
	"thirdcoast.systems/channelscribe/internal/pipeline"
	"thirdcoast.systems/channelscribe/pkg/utils/format"
	"thirdcoast.systems/channelscribe/pkg/utils/markdown"
)

const (
	ProgressID     = "run-progress"
	ResultID       = "run-result"
	UploadStatusID = "upload-status"
)

type IndexData struct {
	DefaultOutputFile string
	Running           bool
	Upload            UploadOptions
	// Result is re-rendered when the user comes back from the Drive consent page.
	Result *runs.Entry
	Flash  string

	HistoryEnabled bool
	Recent         []*db.Run
}

// UploadOptions controls the upload form under a finished run.
type UploadOptions struct {
	Configured bool
	FolderID   string
}

func themeFrom(ctx context.Context) theme.Theme {
	t, _ := ctx.Value(ctxkeys.Theme).(theme.Theme)
	return t
}

func noticeFrom(ctx context.Context) *markdown.Markdown {
	n, _ := ctx.Value(ctxkeys.Notice).(*markdown.Markdown)
	return n
}

func formSignals(running bool) string {
	return "{channelUrl: '', outputFile: '', upload: false, running: " + strconv.FormatBool(running) + "}"
}

func progressText(p pipeline.Progress) string {
	switch p.Stage {
	case pipeline.StageListing:
		return "Listing channel videos…"
	case pipeline.StageFetching:
		return "Fetched " + format.Count(p.Index) + " of " + format.Count(p.Total) +
			" (" + format.Count(p.Written) + " saved, " + format.Count(p.Skipped) + " skipped)"
	case pipeline.StageCombining:
		return "Combining " + format.Count(p.Written) + " transcripts…"
	case pipeline.StageDone:
		return "Done"
	}
	return ""
}

func resultSummary(e *runs.Entry) string {
	return format.Count(len(e.Written)) + " of " + format.Count(len(e.VideoIDs)) + " videos had a transcript · " +
		format.Bytes(e.Bytes) + " · " + format.RunDuration(e.Duration())
}

func statusClass(ok bool) string {
	if ok {
		return viewtypes.SuccessText
	}
	return viewtypes.ErrorText
}

func uploadAction(e *runs.Entry) string {
	return "@post(" + jsString("/api/runs/"+e.RunID.String()+"/upload") + ")"
}

// jsString quotes s for use inside a single-quoted datastar expression.
func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", "")
	return "'" + r.Replace(s) + "'"
}
