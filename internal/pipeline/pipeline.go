// Package pipeline turns a YouTube channel into one combined transcript file.
//
// A run is strictly sequential: list the channel, fetch and clean each
// transcript in turn, then concatenate what was written. Per-video failures
// are logged and skipped; nothing is retried.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lister enumerates the video IDs of a channel.
type Lister interface {
	ListVideos(ctx context.Context, channelURL string) ([]string, error)
}

// Fetcher returns the caption fragments of a video, in order.
type Fetcher interface {
	FetchFragments(ctx context.Context, videoID string) ([]string, error)
}

// ListError means the run stopped before any video was fetched because the
// channel could not be listed.
type ListError struct {
	ChannelURL string
	Err        error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("list videos for %q: %v", e.ChannelURL, e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

type Stage string

const (
	StageListing   Stage = "listing"
	StageFetching  Stage = "fetching"
	StageCombining Stage = "combining"
	StageDone      Stage = "done"
)

// Progress is reported once per stage change and after every video.
type Progress struct {
	Stage   Stage
	Index   int // 1-based; 0 outside StageFetching
	Total   int
	VideoID string
	Written int
	Skipped int
}

// Percent is the share of videos processed so far.
func (p Progress) Percent() int {
	switch {
	case p.Stage == StageCombining || p.Stage == StageDone:
		return 100
	case p.Total == 0:
		return 0
	}
	return p.Index * 100 / p.Total
}

type Result struct {
	RunID       uuid.UUID
	ChannelURL  string
	OutputDir   string
	FinalFile   string
	VideoIDs    []string
	Written     []string
	Skipped     []string
	ClearErrors []error
	Bytes       int64
	StartedAt   time.Time
	FinishedAt  time.Time
}

func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type Pipeline struct {
	Lister    Lister
	Fetcher   Fetcher
	OutputDir string
	Logger    *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// ListVideos resolves the channel to its video IDs. Errors are returned as the
// lister produced them.
func (p *Pipeline) ListVideos(ctx context.Context, channelURL string) ([]string, error) {
	return p.Lister.ListVideos(ctx, channelURL)
}

// FetchAndClean downloads the transcript of videoID, joins its fragments with
// single spaces and removes timestamp lines. On success the text is also
// written to <OutputDir>/<videoID>.txt. Any failure is logged and reported as
// ok == false.
func (p *Pipeline) FetchAndClean(ctx context.Context, videoID string) (string, bool) {
	log := p.logger().With("video_id", videoID)

	fragments, err := p.Fetcher.FetchFragments(ctx, videoID)
	if err != nil {
		log.Warn("failed to download transcript", "error", err)
		return "", false
	}

	text := RemoveTimestamps(strings.Join(fragments, " "))
	if strings.TrimSpace(text) == "" {
		log.Warn("no transcript found")
		return "", false
	}

	if err := os.WriteFile(TranscriptPath(p.OutputDir, videoID), []byte(text), 0o644); err != nil {
		log.Error("failed to write transcript", "error", err)
		return "", false
	}
	return text, true
}

// Run executes the whole pipeline once. onProgress may be nil.
//
// Only a listing failure (or a failure to prepare the output directory or
// write the combined file) aborts the run. The combined file holds the
// transcripts written by this run in channel listing order.
func (p *Pipeline) Run(ctx context.Context, channelURL, finalFile string, onProgress func(Progress)) (*Result, error) {
	report := func(pr Progress) {
		if onProgress != nil {
			onProgress(pr)
		}
	}
	log := p.logger()

	res := &Result{
		RunID:      uuid.New(),
		ChannelURL: channelURL,
		OutputDir:  p.OutputDir,
		FinalFile:  finalFile,
		StartedAt:  time.Now(),
	}
	log = log.With("run_id", res.RunID.String())

	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(finalFile), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", finalFile, err)
	}
	res.ClearErrors = ClearOutputDir(p.OutputDir)

	report(Progress{Stage: StageListing})
	log.Info("fetching video list", "channel_url", channelURL)
	ids, err := p.ListVideos(ctx, channelURL)
	if err != nil {
		return nil, &ListError{ChannelURL: channelURL, Err: err}
	}
	res.VideoIDs = ids
	log.Info("found videos to process", "count", len(ids))

	res.Written = []string{}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, ok := p.FetchAndClean(ctx, id); ok {
			res.Written = append(res.Written, id)
		} else {
			res.Skipped = append(res.Skipped, id)
		}

		report(Progress{
			Stage:   StageFetching,
			Index:   i + 1,
			Total:   len(ids),
			VideoID: id,
			Written: len(res.Written),
			Skipped: len(res.Skipped),
		})
	}

	report(Progress{Stage: StageCombining, Total: len(ids), Written: len(res.Written), Skipped: len(res.Skipped)})
	log.Info("combining transcripts", "written", len(res.Written), "skipped", len(res.Skipped))
	n, err := Concatenate(p.OutputDir, finalFile, res.Written)
	if err != nil {
		return nil, err
	}
	res.Bytes = n
	res.FinishedAt = time.Now()

	report(Progress{Stage: StageDone, Total: len(ids), Written: len(res.Written), Skipped: len(res.Skipped)})
	log.Info("all transcripts combined", "final_file", finalFile, "bytes", n, "took", res.Duration())
	return res, nil
}
