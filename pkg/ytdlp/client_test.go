package ytdlp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListChannelVideoIDs_ParsesLines(t *testing.T) {
	c := New("")
	var gotArgs []string
	c.execFn = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		require.Equal(t, "yt-dlp", name)
		gotArgs = args
		return []byte("a1\n\n  a2 \r\nNA\na1\na3"), nil, nil
	}

	ids, err := c.ListChannelVideoIDs(context.Background(), "https://youtube.com/@chan")
	require.NoError(t, err)
	require.Equal(t, []string{"a1", "a2", "a3"}, ids)
	require.Contains(t, gotArgs, "--flat-playlist")
	require.Equal(t, "https://youtube.com/@chan/videos", gotArgs[len(gotArgs)-1])
}

func TestListChannelVideoIDs_ListsVideosTab(t *testing.T) {
	cases := map[string]string{
		"https://youtube.com/@chan":               "https://youtube.com/@chan/videos",
		"https://youtube.com/@chan/":              "https://youtube.com/@chan/videos",
		"https://youtube.com/channel/UC123abc":    "https://youtube.com/channel/UC123abc/videos",
		"https://youtube.com/c/LegacyName":        "https://youtube.com/c/LegacyName/videos",
		"https://youtube.com/user/OldUser":        "https://youtube.com/user/OldUser/videos",
		"https://youtube.com/@chan/videos":        "https://youtube.com/@chan/videos",
		"https://youtube.com/@chan/shorts":        "https://youtube.com/@chan/shorts",
		"https://youtube.com/user/OldUser/videos": "https://youtube.com/user/OldUser/videos",
		"https://youtube.com/playlist?list=PL1":   "https://youtube.com/playlist?list=PL1",
	}
	for in, want := range cases {
		c := New("")
		var last string
		c.execFn = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
			last = args[len(args)-1]
			return nil, nil, nil
		}
		_, err := c.ListChannelVideoIDs(context.Background(), in)
		require.NoError(t, err, in)
		require.Equal(t, want, last, in)
	}
}

func TestListChannelVideoIDs_EmptyChannel(t *testing.T) {
	c := New("")
	c.execFn = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		return nil, nil, nil
	}

	ids, err := c.ListVideos(context.Background(), "https://youtube.com/@empty")
	require.NoError(t, err)
	require.NotNil(t, ids)
	require.Empty(t, ids)
}

func TestListChannelVideoIDs_RequiresURL(t *testing.T) {
	c := New("")
	_, err := c.ListChannelVideoIDs(context.Background(), "  ")
	require.Error(t, err)
}

func TestListChannelVideoIDs_WrapsExecError(t *testing.T) {
	c := New("")
	c.execFn = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		return []byte("out"), []byte("WARNING: x\nERROR: channel does not exist"), errors.New("boom")
	}

	_, err := c.ListChannelVideoIDs(context.Background(), "https://youtube.com/@missing")
	require.Error(t, err)

	var ee *ExecError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "out", ee.Stdout)
	require.Contains(t, err.Error(), "ERROR: channel does not exist")
}

func TestExec_AddsCookiesAndExtraArgs(t *testing.T) {
	c := New("/opt/yt-dlp")
	c.CookiesFile = "/tmp/cookies.txt"
	c.ExtraArgs = []string{"--no-warnings"}
	c.execFn = func(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
		require.Equal(t, "/opt/yt-dlp", name)
		require.Equal(t, []string{"--no-warnings", "--cookies", "/tmp/cookies.txt", "--version"}, args)
		return []byte("2025.01.01\n"), nil, nil
	}

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2025.01.01", v)
}
