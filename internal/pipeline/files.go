package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// TranscriptExt is the extension of per-video transcript files.
const TranscriptExt = ".txt"

// timestampRe matches SRT cue timing lines. Only the start of a line is
// anchored, so trailing cue settings still match.
var timestampRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2},\d{3} --> \d{2}:\d{2}:\d{2},\d{3}`)

// RemoveTimestamps drops every line that starts with an SRT timing range.
func RemoveTimestamps(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if timestampRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// TranscriptPath is where the transcript of videoID lives inside dir.
func TranscriptPath(dir, videoID string) string {
	return filepath.Join(dir, videoID+TranscriptExt)
}

// Concatenate writes finalFile as the content of each transcript followed by
// a blank line. With a non-nil ids it reads exactly <id>.txt for each id, in
// order. With nil ids it falls back to every .txt file in outputDir, in
// directory listing order. An existing finalFile is overwritten.
func Concatenate(outputDir, finalFile string, ids []string) (int64, error) {
	if ids == nil {
		listed, err := listTranscriptFiles(outputDir)
		if err != nil {
			return 0, err
		}
		ids = listed
	}

	if dir := filepath.Dir(finalFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output file directory: %w", err)
		}
	}

	out, err := os.Create(finalFile)
	if err != nil {
		return 0, fmt.Errorf("create combined file: %w", err)
	}
	defer out.Close()

	var written int64
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		content, err := os.ReadFile(TranscriptPath(outputDir, id))
		if err != nil {
			return written, fmt.Errorf("read transcript %q: %w", id, err)
		}
		n, err := out.Write(append(content, '\n', '\n'))
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("write combined file: %w", err)
		}
	}

	if err := out.Close(); err != nil {
		return written, fmt.Errorf("close combined file: %w", err)
	}
	return written, nil
}

func listTranscriptFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	ids := []string{}
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), TranscriptExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), TranscriptExt))
	}
	return ids, nil
}

// ClearOutputDir deletes every regular file directly inside path. Failures
// are logged and returned per file; they never stop the clear. A missing
// directory is only a warning.
func ClearOutputDir(path string) []error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("transcript folder does not exist", "path", path)
			return nil
		}
		slog.Error("failed to list transcript folder", "path", path, "error", err)
		return []error{err}
	}

	var errs []error
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		p := filepath.Join(path, e.Name())
		if err := os.Remove(p); err != nil {
			slog.Error("failed to delete transcript file", "file", e.Name(), "error", err)
			errs = append(errs, fmt.Errorf("delete %s: %w", e.Name(), err))
			continue
		}
		removed++
	}

	slog.Info("transcript folder cleared", "path", path, "removed", removed, "failed", len(errs))
	return errs
}
