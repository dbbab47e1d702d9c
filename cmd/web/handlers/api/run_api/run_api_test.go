package run_api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"thirdcoast.systems/channelscribe/cmd/web/internal/runs"
	"thirdcoast.systems/channelscribe/cmd/web/templates"
	"thirdcoast.systems/channelscribe/internal/drive"
	"thirdcoast.systems/channelscribe/internal/pipeline"
	langtag "thirdcoast.systems/channelscribe/pkg/utils/language"
	"thirdcoast.systems/channelscribe/pkg/ytdlp"
)

type fakeLister struct {
	ids     []string
	err     error
	gotURL  string
	block   chan struct{}
	started chan struct{}
}

func (f *fakeLister) ListVideos(ctx context.Context, channelURL string) ([]string, error) {
	f.gotURL = channelURL
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return f.ids, f.err
}

type fakeFetcher map[string][]string

func (f fakeFetcher) FetchFragments(ctx context.Context, videoID string) ([]string, error) {
	frags, ok := f[videoID]
	if !ok {
		return nil, errors.New("transcripts disabled")
	}
	return frags, nil
}

type fakeDrive struct {
	authorized bool
	uploadErr  error
	uploaded   string
}

func (d *fakeDrive) Upload(ctx context.Context, filePath, folderID string) (string, error) {
	if d.uploadErr != nil {
		return "", d.uploadErr
	}
	d.uploaded = filePath
	return "drive-123", nil
}
func (d *fakeDrive) Authorized() bool                               { return d.authorized }
func (d *fakeDrive) AuthCodeURL(state string) string                { return "https://accounts.example/?state=" + state }
func (d *fakeDrive) Exchange(ctx context.Context, code string) error { return nil }

type fixture struct {
	svc    *runs.Service
	lister *fakeLister
	opts   CreateOptions
}

func newFixture(t *testing.T, lister *fakeLister, fetcher fakeFetcher) *fixture {
	t.Helper()
	p := &pipeline.Pipeline{Lister: lister, Fetcher: fetcher, OutputDir: filepath.Join(t.TempDir(), "transcripts")}
	return &fixture{
		svc:    runs.NewService(p, nil, nil, langtag.Tag(language.English)),
		lister: lister,
		opts: CreateOptions{
			ResultsDir:        filepath.Join(t.TempDir(), "results"),
			DefaultOutputFile: "combined_transcripts.txt",
			Upload:            templates.UploadOptions{Configured: true, FolderID: "folder"},
		},
	}
}

func post(t *testing.T, h echo.HandlerFunc, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	require.NoError(t, h(c))
	return rec
}

func (f *fixture) onlyEntry(t *testing.T, body string) *runs.Entry {
	t.Helper()
	i := strings.Index(body, "/runs/")
	require.GreaterOrEqual(t, i, 0, "no run link in %q", body)
	id, err := uuid.Parse(body[i+len("/runs/") : i+len("/runs/")+36])
	require.NoError(t, err)
	entry, ok := f.svc.Get(id)
	require.True(t, ok)
	return entry
}

func TestHandleCreate_MissingURL(t *testing.T) {
	f := newFixture(t, &fakeLister{}, fakeFetcher{})
	rec := post(t, HandleCreate(f.svc, f.opts), `{"channelUrl":"   "}`)

	body := rec.Body.String()
	require.Contains(t, body, "datastar-patch-elements")
	require.Contains(t, body, "Please enter a channel URL")
	require.Equal(t, "", f.lister.gotURL)
}

func TestHandleCreate_RejectsNonChannelURL(t *testing.T) {
	f := newFixture(t, &fakeLister{}, fakeFetcher{})
	rec := post(t, HandleCreate(f.svc, f.opts), `{"channelUrl":"https://youtu.be/abc"}`)
	require.Contains(t, rec.Body.String(), "YouTube channel URL")
	require.Equal(t, "", f.lister.gotURL)
}

func TestHandleCreate_RunsPipelineAndStreamsProgress(t *testing.T) {
	f := newFixture(t, &fakeLister{ids: []string{"a1", "a2"}}, fakeFetcher{"a1": {"hello", "world"}})
	rec := post(t, HandleCreate(f.svc, f.opts), `{"channelUrl":"www.youtube.com/@chan","outputFile":"my dump"}`)

	body := rec.Body.String()
	require.Equal(t, "https://youtube.com/@chan", f.lister.gotURL)
	require.Contains(t, body, "Fetched 1 of 2")
	require.Contains(t, body, "Fetched 2 of 2 (1 saved, 1 skipped)")
	require.Contains(t, body, "Transcripts ready")
	require.Contains(t, body, "Download my-dump.txt")
	require.Contains(t, body, `"running":false`)
	require.Less(t, strings.Index(body, "Fetched 1 of 2"), strings.Index(body, "Transcripts ready"))

	entry := f.onlyEntry(t, body)
	require.Equal(t, filepath.Join(f.opts.ResultsDir, "my-dump.txt"), entry.FinalFile)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	dl := httptest.NewRecorder()
	c := e.NewContext(req, dl)
	c.SetParamNames("id")
	c.SetParamValues(entry.RunID.String())
	require.NoError(t, HandleDownload(f.svc)(c))
	require.Equal(t, http.StatusOK, dl.Code)
	require.Equal(t, "hello world\n\n", dl.Body.String())
	require.Contains(t, dl.Header().Get(echo.HeaderContentDisposition), `attachment; filename="my-dump.txt"`)
	require.Contains(t, dl.Header().Get(echo.HeaderContentType), "text/plain")
}

func TestHandleCreate_DefaultOutputName(t *testing.T) {
	f := newFixture(t, &fakeLister{ids: []string{}}, fakeFetcher{})
	rec := post(t, HandleCreate(f.svc, f.opts), `{"channelUrl":"@chan","outputFile":""}`)
	require.Contains(t, rec.Body.String(), "Download combined_transcripts.txt")
}

func TestHandleCreate_ListingFailure(t *testing.T) {
	f := newFixture(t, &fakeLister{err: errors.New("channel does not exist")}, fakeFetcher{})
	rec := post(t, HandleCreate(f.svc, f.opts), `{"channelUrl":"@chan"}`)

	body := rec.Body.String()
	require.Contains(t, body, "Could not list the channel&#39;s videos")
	require.Contains(t, body, "videos: channel does not exist")
	require.NoFileExists(t, filepath.Join(f.opts.ResultsDir, "combined_transcripts.txt"))
}

func TestHandleCreate_OtherFailuresAreNotListingErrors(t *testing.T) {
	f := newFixture(t, &fakeLister{ids: []string{"a1"}}, fakeFetcher{"a1": {"hi"}})
	// The results directory is a regular file, so the run fails before listing.
	require.NoError(t, os.MkdirAll(filepath.Dir(f.opts.ResultsDir), 0o755))
	require.NoError(t, os.WriteFile(f.opts.ResultsDir, []byte("x"), 0o644))

	body := post(t, HandleCreate(f.svc, f.opts), `{"channelUrl":"@chan"}`).Body.String()
	require.Contains(t, body, "Run failed: create directory for")
	require.NotContains(t, body, "Could not list")
	require.Empty(t, f.lister.gotURL)
}

func TestHandleCreate_RejectsConcurrentRun(t *testing.T) {
	lister := &fakeLister{ids: []string{}, block: make(chan struct{}), started: make(chan struct{})}
	f := newFixture(t, lister, fakeFetcher{})

	done := make(chan string, 1)
	go func() {
		done <- post(t, HandleCreate(f.svc, f.opts), `{"channelUrl":"@first"}`).Body.String()
	}()
	<-lister.started

	second := post(t, HandleCreate(f.svc, f.opts), `{"channelUrl":"@second"}`)
	require.Contains(t, second.Body.String(), "A run is already in progress")

	close(lister.block)
	require.Contains(t, <-done, "Transcripts ready")
}

func TestHandleDownload_Errors(t *testing.T) {
	f := newFixture(t, &fakeLister{}, fakeFetcher{})
	e := echo.New()

	for _, param := range []string{"not-a-uuid", uuid.NewString()} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(param)
		err := HandleDownload(f.svc)(c)
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		require.Contains(t, []int{http.StatusBadRequest, http.StatusNotFound}, he.Code)
	}
}

func finishedRun(t *testing.T) (*fixture, *runs.Entry) {
	t.Helper()
	f := newFixture(t, &fakeLister{ids: []string{"a1"}}, fakeFetcher{"a1": {"text"}})
	rec := post(t, HandleCreate(f.svc, f.opts), `{"channelUrl":"@chan"}`)
	return f, f.onlyEntry(t, rec.Body.String())
}

func TestHandleUpload_RequiresCheckbox(t *testing.T) {
	f, entry := finishedRun(t)
	d := &fakeDrive{authorized: true}

	rec := post(t, HandleUpload(f.svc, d, "folder"), `{"upload":false}`, "id", entry.RunID.String())
	require.Contains(t, rec.Body.String(), "to upload.")
	require.Empty(t, d.uploaded)
}

func TestHandleUpload_NotConfigured(t *testing.T) {
	f, entry := finishedRun(t)
	rec := post(t, HandleUpload(f.svc, nil, "folder"), `{"upload":true}`, "id", entry.RunID.String())
	require.Contains(t, rec.Body.String(), "not configured")
}

func TestHandleUpload_NotAuthorizedLinksToConsent(t *testing.T) {
	f, entry := finishedRun(t)
	rec := post(t, HandleUpload(f.svc, &fakeDrive{}, "folder"), `{"upload":true}`, "id", entry.RunID.String())
	require.Contains(t, rec.Body.String(), "/drive/auth?run="+entry.RunID.String())

	rec = post(t, HandleUpload(f.svc, &fakeDrive{authorized: true, uploadErr: drive.ErrNotAuthorized}, "folder"), `{"upload":true}`, "id", entry.RunID.String())
	require.Contains(t, rec.Body.String(), "Connect Google Drive")
}

func TestHandleUpload_Success(t *testing.T) {
	f, entry := finishedRun(t)
	d := &fakeDrive{authorized: true}

	rec := post(t, HandleUpload(f.svc, d, "folder"), `{"upload":true}`, "id", entry.RunID.String())
	require.Contains(t, rec.Body.String(), "https://drive.google.com/file/d/drive-123/view")
	require.Equal(t, entry.FinalFile, d.uploaded)
	got, _ := f.svc.Get(entry.RunID)
	require.Equal(t, "drive-123", got.DriveFileID)
}

func TestHandleUpload_Failure(t *testing.T) {
	f, entry := finishedRun(t)
	d := &fakeDrive{authorized: true, uploadErr: errors.New("quota exceeded")}

	rec := post(t, HandleUpload(f.svc, d, "folder"), `{"upload":true}`, "id", entry.RunID.String())
	require.Contains(t, rec.Body.String(), "Upload failed")
	require.Contains(t, rec.Body.String(), "quota exceeded")
	got, _ := f.svc.Get(entry.RunID)
	require.Empty(t, got.DriveFileID)
}

func TestHandleUpload_UnknownRun(t *testing.T) {
	f := newFixture(t, &fakeLister{}, fakeFetcher{})
	rec := post(t, HandleUpload(f.svc, &fakeDrive{authorized: true}, "folder"), `{"upload":true}`, "id", uuid.NewString())
	require.Contains(t, rec.Body.String(), "no longer available")
}

func TestHandleCreate_ListingFailureShowsYtDlpReason(t *testing.T) {
	err := &ytdlp.ExecError{Cmd: "yt-dlp", Stderr: "ERROR: [youtube:tab] @nope: This channel does not exist.", Cause: errors.New("exit status 1")}
	f := newFixture(t, &fakeLister{err: err}, fakeFetcher{})
	rec := post(t, HandleCreate(f.svc, f.opts), `{"channelUrl":"@nope"}`)

	body := rec.Body.String()
	require.Contains(t, body, "videos: @nope: This channel does not exist.")
	require.NotContains(t, body, "--flat-playlist")
}
