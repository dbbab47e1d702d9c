package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
)

// ListChannelVideoIDs enumerates every video of a channel (or playlist) URL
// without downloading anything. IDs come back in the order yt-dlp lists them,
// which for a channel's videos tab is newest first.
//
// It uses: --flat-playlist --skip-download --print %(id)s
func (c *Client) ListChannelVideoIDs(ctx context.Context, channelURL string) ([]string, error) {
	if strings.TrimSpace(channelURL) == "" {
		return nil, fmt.Errorf("ytdlp: channel url is required")
	}

	args := []string{
		"--flat-playlist",
		"--skip-download",
		"--ignore-no-formats-error",
		"--print", "%(id)s",
		videosTab(channelURL),
	}

	stdout, stderr, err := c.exec(ctx, args...)
	if err != nil {
		return nil, wrapExecError(c.PathOrDefault(), args, stdout, stderr, err)
	}

	return parseIDLines(stdout), nil
}

// ListVideos lets the client act as the pipeline's channel lister.
func (c *Client) ListVideos(ctx context.Context, channelURL string) ([]string, error) {
	return c.ListChannelVideoIDs(ctx, channelURL)
}

// videosTab points a bare channel root at its Videos tab. On the root page
// yt-dlp lists the channel's tabs (Videos, Shorts, Live) rather than videos.
func videosTab(channelURL string) string {
	u, err := url.Parse(channelURL)
	if err != nil || u.Host == "" {
		return channelURL
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	root := false
	switch {
	case len(segs) == 1 && strings.HasPrefix(segs[0], "@") && len(segs[0]) > 1:
		root = true
	case len(segs) == 2 && segs[1] != "":
		switch segs[0] {
		case "channel", "c", "user":
			root = true
		}
	}
	if !root {
		return channelURL
	}

	u.Path = "/" + strings.Join(segs, "/") + "/videos"
	return u.String()
}

func parseIDLines(out []byte) []string {
	ids := []string{}
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" || id == "NA" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
