package filename

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"":                       "",
		"  my notes  ":           "my-notes",
		"../../etc/passwd":       "etc-passwd",
		`a<b>c:d"e|f?g*h`:        "a-b-c-d-e-f-g-h",
		".hidden":                "hidden",
		"tabs\tand\nnewlines":    "tabs-and-newlines",
		"keep_underscore.v2":     "keep_underscore.v2",
		"dash -- collapse__here": "dash-collapse-here",
	}
	for in, want := range cases {
		require.Equal(t, want, Sanitize(in, 0), in)
	}
}

func TestSanitize_Truncates(t *testing.T) {
	got := Sanitize(strings.Repeat("a", 200), 0)
	require.Len(t, got, 120)

	got = Sanitize("abcd-efgh", 5)
	require.Equal(t, "abcd", got)
}

func TestOutputFile(t *testing.T) {
	const fallback = "combined_transcripts.txt"
	require.Equal(t, fallback, OutputFile("", fallback))
	require.Equal(t, fallback, OutputFile("   ", fallback))
	require.Equal(t, fallback, OutputFile("/..", fallback))
	require.Equal(t, "channel.txt", OutputFile("channel", fallback))
	require.Equal(t, "channel.txt", OutputFile("channel.TXT", fallback))
	require.Equal(t, "my-channel-dump.txt", OutputFile("my channel/dump", fallback))
	require.Equal(t, "notes.md.txt", OutputFile("notes.md", fallback))

	// 1 + 60*2 bytes: the 120-byte limit falls inside the last é.
	long := OutputFile("a"+strings.Repeat("é", 60), fallback)
	require.True(t, utf8.ValidString(long), "%q", long)
	require.Equal(t, "a"+strings.Repeat("é", 59)+".txt", long)

	cjk := Sanitize(strings.Repeat("字", 50), 100)
	require.True(t, utf8.ValidString(cjk))
	require.Equal(t, strings.Repeat("字", 33), cjk)
}
