// Package transcript fetches caption fragments for YouTube videos.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
)

// videoAPI is the subset of the YouTube client used here.
type videoAPI interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetTranscriptCtx(ctx context.Context, video *youtube.Video, lang string) (youtube.VideoTranscript, error)
}

type Client struct {
	api   videoAPI
	langs []string
}

var strict = bluemonday.StrictPolicy()

// New returns a client preferring transcripts in lang. English is always
// tried as the fallback track.
func New(lang language.Tag) *Client {
	return &Client{
		api:   &youtube.Client{},
		langs: languageOrder(lang),
	}
}

func languageOrder(lang language.Tag) []string {
	base, _ := lang.Base()
	preferred := base.String()
	if lang == language.Und || preferred == "" || preferred == "und" {
		preferred = "en"
	}
	if preferred == "en" {
		return []string{"en"}
	}
	return []string{preferred, "en"}
}

// FetchFragments returns the caption fragment texts of videoID in order.
// Errors are classified into the package's named failure conditions.
func (c *Client) FetchFragments(ctx context.Context, videoID string) ([]string, error) {
	video, err := c.api.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, Classify(fmt.Errorf("get video %q: %w", videoID, err))
	}

	var lastErr error
	for _, lang := range c.langs {
		segments, err := c.api.GetTranscriptCtx(ctx, video, lang)
		if err != nil {
			lastErr = Classify(fmt.Errorf("get %s transcript for %q: %w", lang, videoID, err))
			// Nothing another language can fix.
			if errors.Is(lastErr, ErrTranscriptsDisabled) || errors.Is(lastErr, ErrTooManyRequests) {
				return nil, lastErr
			}
			slog.Debug("transcript language unavailable", "video_id", videoID, "lang", lang, "error", err)
			continue
		}

		fragments := make([]string, 0, len(segments))
		for _, seg := range segments {
			if text := CleanFragment(seg.Text); text != "" {
				fragments = append(fragments, text)
			}
		}
		if len(fragments) == 0 {
			lastErr = fmt.Errorf("%w: empty %s transcript for %q", ErrNoTranscriptFound, lang, videoID)
			continue
		}
		return fragments, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: %q", ErrNoTranscriptFound, videoID)
	}
	return nil, lastErr
}

// CleanFragment strips markup from a caption fragment and decodes entities.
func CleanFragment(s string) string {
	s = strict.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}
