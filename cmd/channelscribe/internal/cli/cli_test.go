package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"thirdcoast.systems/channelscribe/internal/config"
	"thirdcoast.systems/channelscribe/internal/pipeline"
)

type stubLister struct {
	got string
	ids []string
	err error
}

func (s *stubLister) ListVideos(ctx context.Context, channelURL string) ([]string, error) {
	s.got = channelURL
	return s.ids, s.err
}

type stubFetcher map[string][]string

func (s stubFetcher) FetchFragments(ctx context.Context, videoID string) ([]string, error) {
	if f, ok := s[videoID]; ok {
		return f, nil
	}
	return nil, errors.New("no captions")
}

type stubDrive struct {
	authorized bool
	code       string
	uploaded   string
	folder     string
}

func (s *stubDrive) Authorized() bool                { return s.authorized }
func (s *stubDrive) AuthCodeURL(state string) string { return "https://consent.example/?state=" + state }
func (s *stubDrive) Exchange(ctx context.Context, code string) error {
	s.code = code
	s.authorized = true
	return nil
}
func (s *stubDrive) Upload(ctx context.Context, filePath, folderID string) (string, error) {
	s.uploaded, s.folder = filePath, folderID
	return "file-9", nil
}

type stubVersion string

func (s stubVersion) Version(ctx context.Context) (string, error) {
	if s == "" {
		return "", errors.New("executable file not found")
	}
	return string(s), nil
}

type harness struct {
	conf   *config.Config
	lister *stubLister
	drive  *stubDrive
	deps   Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		conf: &config.Config{
			OutputDir:         filepath.Join(dir, "transcripts"),
			ResultsDir:        filepath.Join(dir, "results"),
			DefaultOutputFile: "combined_transcripts.txt",
			DriveFolderID:     "folder-1",
		},
		lister: &stubLister{ids: []string{"v1", "v2", "v3"}},
		drive:  &stubDrive{},
	}
	h.deps = Deps{
		LoadConfig: func(context.Context) (*config.Config, error) { return h.conf, nil },
		Lister:     func(*config.Config) pipeline.Lister { return h.lister },
		Fetcher: func(*config.Config) pipeline.Fetcher {
			return stubFetcher{"v1": {"first"}, "v3": {"third"}}
		},
		Drive:   func(*config.Config) (DriveClient, error) { return h.drive, nil },
		Version: func(*config.Config) VersionReporter { return stubVersion("2025.01.15") },
	}
	return h
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(h.deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFetch_WritesCombinedFile(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "fetch", "youtube.com/@chan", "--out", "chan dump.txt")
	require.NoError(t, err)
	require.Equal(t, "https://youtube.com/@chan", h.lister.got)

	final := filepath.Join(h.conf.ResultsDir, "chan-dump.txt")
	require.Contains(t, out, final)
	require.Contains(t, out, "2 of 3 videos")

	b, err := os.ReadFile(final)
	require.NoError(t, err)
	require.Equal(t, "first\n\nthird\n\n", string(b))
	require.Empty(t, h.drive.uploaded)
}

func TestFetch_RejectsNonChannelURL(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, "", "fetch", "https://www.youtube.com/watch?v=abc")
	require.Error(t, err)
	require.Empty(t, h.lister.got)
}

func TestFetch_ListingFailure(t *testing.T) {
	h := newHarness(t)
	h.lister.err = errors.New("channel not found")

	_, err := h.run(t, "", "fetch", "@chan")
	require.ErrorContains(t, err, "channel not found")
}

func TestFetch_UploadRequiresAuthorization(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "fetch", "@chan", "--upload")
	require.ErrorContains(t, err, "drive-auth")
	require.Empty(t, h.lister.got, "nothing should run before the upload check")
}

func TestFetch_Uploads(t *testing.T) {
	h := newHarness(t)
	h.drive.authorized = true

	out, err := h.run(t, "", "fetch", "@chan", "--upload")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(h.conf.ResultsDir, "combined_transcripts.txt"), h.drive.uploaded)
	require.Equal(t, "folder-1", h.drive.folder)
	require.Contains(t, out, "https://drive.google.com/file/d/file-9/view")
}

func TestDriveAuth_ExchangesPastedCode(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "  4/abc-code \n", "drive-auth")
	require.NoError(t, err)
	require.Contains(t, out, "https://consent.example/?state=cli")
	require.Equal(t, "4/abc-code", h.drive.code)

	_, err = h.run(t, "\n", "drive-auth")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "", "version")
	require.NoError(t, err)
	require.Equal(t, "yt-dlp 2025.01.15\n", out)

	h.deps.Version = func(*config.Config) VersionReporter { return stubVersion("") }
	_, err = h.run(t, "", "version")
	require.ErrorContains(t, err, "not usable")
}

func TestConfigErrorStopsCommand(t *testing.T) {
	h := newHarness(t)
	h.deps.LoadConfig = func(context.Context) (*config.Config, error) { return nil, errors.New("bad config") }
	_, err := h.run(t, "", "version")
	require.ErrorContains(t, err, "bad config")
}
