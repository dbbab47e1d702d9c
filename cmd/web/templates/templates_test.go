package templates

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
	"thirdcoast.systems/channelscribe/cmd/web/ctxkeys"
	"thirdcoast.systems/channelscribe/cmd/web/internal/runs"
	"thirdcoast.systems/channelscribe/cmd/web/internal/theme"
	"thirdcoast.systems/channelscribe/internal/db"
	"thirdcoast.systems/channelscribe/internal/pipeline"
	"thirdcoast.systems/channelscribe/pkg/utils/markdown"
)

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))
	return buf.String()
}

func sampleEntry() *runs.Entry {
	now := time.Now()
	return &runs.Entry{Result: &pipeline.Result{
		RunID:      uuid.MustParse("6f1c2d3e-0000-4000-8000-000000000001"),
		FinalFile:  "/data/combined_transcripts.txt",
		VideoIDs:   []string{"a1", "a2"},
		Written:    []string{"a1"},
		Skipped:    []string{"a2"},
		Bytes:      2048,
		StartedAt:  now.Add(-90 * time.Second),
		FinishedAt: now,
	}}
}

func TestIndex_RendersFormWithThemeAndNotice(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxkeys.Theme, theme.Theme{BackgroundURI: "data:image/png;base64,AAAA"})
	ctx = context.WithValue(ctx, ctxkeys.Notice, markdown.NewMarkdown("Files go to the **shared** folder"))

	out := render(t, ctx, Index(IndexData{DefaultOutputFile: "combined_transcripts.txt"}))
	require.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	require.Contains(t, out, `data-on:submit__prevent="@post('/api/runs')"`)
	require.Contains(t, out, `data-signals="{channelUrl: &#39;&#39;, outputFile: &#39;&#39;, upload: false, running: false}"`)
	require.Contains(t, out, `placeholder="combined_transcripts.txt"`)
	require.Contains(t, out, `<div id="run-progress"></div>`)
	require.Contains(t, out, `<div id="run-result"></div>`)
	require.Contains(t, out, "<strong>shared</strong>")
	require.Contains(t, out, "data:image/png;base64,AAAA")
	require.NotContains(t, out, "recent-runs")
}

func TestIndex_PlainWithoutContext(t *testing.T) {
	out := render(t, context.Background(), Index(IndexData{}))
	require.NotContains(t, out, "<style>")
	require.NotContains(t, out, `class="notice"`)
}

func TestIndex_ReturningResultAndHistory(t *testing.T) {
	data := IndexData{
		Result:         sampleEntry(),
		Upload:         UploadOptions{Configured: true, FolderID: "f"},
		Flash:          "Google Drive connected",
		HistoryEnabled: true,
		Recent: []*db.Run{{
			ChannelUrl:   "https://youtube.com/@<script>",
			VideoCount:   1200,
			WrittenCount: 1000,
			Bytes:        1 << 20,
			DriveFileID:  pgtype.Text{String: "abc", Valid: true},
			FinishedAt:   pgtype.Timestamptz{Time: time.Now().Add(-time.Hour), Valid: true},
		}},
	}
	out := render(t, context.Background(), Index(data))
	require.Contains(t, out, "Google Drive connected")
	require.Contains(t, out, "Transcripts ready")
	require.Contains(t, out, "1,000 / 1,200")
	require.Contains(t, out, "1.0 MiB")
	require.Contains(t, out, "https://drive.google.com/file/d/abc/view")
	require.NotContains(t, out, "<script>")
}

func TestProgress(t *testing.T) {
	out := render(t, context.Background(), Progress(pipeline.Progress{
		Stage: pipeline.StageFetching, Index: 1, Total: 4, VideoID: "vid1", Written: 1,
	}))
	require.Contains(t, out, `id="run-progress"`)
	require.Contains(t, out, `<progress class="bar" max="100" value="25">25%</progress>`)
	require.Contains(t, out, "Fetched 1 of 4 (1 saved, 0 skipped)")
	require.Contains(t, out, "<code>vid1</code>")

	out = render(t, context.Background(), Progress(pipeline.Progress{Stage: pipeline.StageDone}))
	require.Contains(t, out, `value="100"`)
	require.Contains(t, out, "Done")
}

func TestRunResult(t *testing.T) {
	e := sampleEntry()
	e.ClearErrors = []error{errors.New("remove transcripts/x.txt: permission denied")}

	out := render(t, context.Background(), RunResult(e, UploadOptions{}))
	require.Contains(t, out, `href="/runs/6f1c2d3e-0000-4000-8000-000000000001/download"`)
	require.Contains(t, out, "Download combined_transcripts.txt")
	require.Contains(t, out, "1 of 2 videos had a transcript")
	require.Contains(t, out, "1.5 minutes")
	require.Contains(t, out, "<code>a2</code>")
	require.Contains(t, out, "permission denied")
	require.NotContains(t, out, "data-bind:upload")

	out = render(t, context.Background(), RunResult(e, UploadOptions{Configured: true}))
	require.Contains(t, out, "data-bind:upload")
	require.Contains(t, out, "/api/runs/6f1c2d3e-0000-4000-8000-000000000001/upload")
	require.Contains(t, out, `<div id="upload-status"></div>`)

	e.DriveFileID = "xyz"
	out = render(t, context.Background(), RunResult(e, UploadOptions{Configured: true}))
	require.Contains(t, out, "https://drive.google.com/file/d/xyz/view")
}

func TestRunErrorAndUploadStatus(t *testing.T) {
	out := render(t, context.Background(), RunError("Please enter a channel URL"))
	require.Equal(t, `<div id="run-result" class="msg msg-error" role="alert">Please enter a channel URL</div>`, out)

	out = render(t, context.Background(), UploadStatus(false, "Google Drive is not connected.", "/drive/auth?run=1"))
	require.Contains(t, out, "msg-error")
	require.Contains(t, out, `href="/drive/auth?run=1">Connect Google Drive`)

	out = render(t, context.Background(), UploadStatus(true, "Uploaded.", "https://drive.google.com/file/d/a/view"))
	require.Contains(t, out, `rel="noopener" href="https://drive.google.com/file/d/a/view">View in Drive`)

	out = render(t, context.Background(), UploadStatus(false, "Upload failed: quota", ""))
	require.Equal(t, `<div id="upload-status" class="msg msg-error">Upload failed: quota</div>`, out)
}

func TestPlaceholder(t *testing.T) {
	require.Equal(t, `<div id="run-progress"></div>`, render(t, context.Background(), Placeholder(ProgressID)))
}

func TestLayout_RendersChildren(t *testing.T) {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>inner</p>")
		return err
	})
	out := render(t, templ.WithChildren(context.Background(), body), Layout("Title <x>"))
	require.Contains(t, out, "<title>Title &lt;x&gt;</title>")
	require.Contains(t, out, `<main class="container"><p>inner</p></main>`)
}

func TestJSString(t *testing.T) {
	require.Equal(t, `'it\'s'`, jsString("it's"))
	require.Equal(t, `'a\\b'`, jsString(`a\b`))
}
