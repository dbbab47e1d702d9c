// Package runs owns the single pipeline slot of the web server and the
// results of recent runs.
package runs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"thirdcoast.systems/channelscribe/internal/db"
	"thirdcoast.systems/channelscribe/internal/pipeline"
	"thirdcoast.systems/channelscribe/pkg/utils/language"
)

var (
	ErrRunInProgress = errors.New("a run is already in progress")
	ErrUnknownRun    = errors.New("unknown run")
)

// keepResults bounds how many finished runs stay downloadable.
const keepResults = 20

type Runner interface {
	Run(ctx context.Context, channelURL, finalFile string, onProgress func(pipeline.Progress)) (*pipeline.Result, error)
}

type Uploader interface {
	Upload(ctx context.Context, filePath, folderID string) (string, error)
}

// History persists finished runs. *db.Queries satisfies it.
type History interface {
	InsertRun(ctx context.Context, arg *db.InsertRunParams) (*db.Run, error)
	SetRunDriveFile(ctx context.Context, id pgtype.UUID, driveFileID string) error
}

type Entry struct {
	*pipeline.Result
	DriveFileID string
}

type Service struct {
	runner  Runner
	history History
	recent  *db.RecentRunsCache
	lang    language.Tag

	busy sync.Mutex

	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry
	order   []uuid.UUID
}

// NewService wraps runner. history and recent may be nil when run history
// is disabled.
func NewService(runner Runner, history History, recent *db.RecentRunsCache, lang language.Tag) *Service {
	return &Service{
		runner:  runner,
		history: history,
		recent:  recent,
		lang:    lang,
		entries: make(map[uuid.UUID]*Entry),
	}
}

// Start runs the pipeline to completion. Only one run may be active; a
// concurrent call fails fast with ErrRunInProgress.
func (s *Service) Start(ctx context.Context, channelURL, finalFile string, onProgress func(pipeline.Progress)) (*Entry, error) {
	if !s.busy.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.busy.Unlock()

	res, err := s.runner.Run(ctx, channelURL, finalFile, onProgress)
	if err != nil {
		return nil, err
	}

	entry := &Entry{Result: res}
	s.store(entry)
	s.record(ctx, entry)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return entry.snapshot(), nil
}

// Running reports whether a run currently holds the slot.
func (s *Service) Running() bool {
	if s.busy.TryLock() {
		s.busy.Unlock()
		return false
	}
	return true
}

// Get returns a copy of the run, safe to read while an upload updates it.
func (s *Service) Get(id uuid.UUID) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.snapshot(), true
}

// snapshot copies e; the pipeline result is never written after a run.
// Callers hold s.mu.
func (e *Entry) snapshot() *Entry {
	cp := *e
	return &cp
}

// Upload sends a finished run's combined file to cloud storage and remembers
// the remote file ID.
func (s *Service) Upload(ctx context.Context, id uuid.UUID, up Uploader, folderID string) (string, error) {
	run, ok := s.Get(id)
	if !ok {
		return "", ErrUnknownRun
	}

	fileID, err := up.Upload(ctx, run.FinalFile, folderID)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if entry, ok := s.entries[id]; ok {
		entry.DriveFileID = fileID
	}
	s.mu.Unlock()

	if s.history != nil {
		if err := s.history.SetRunDriveFile(ctx, db.PgUUID(id), fileID); err != nil {
			slog.Warn("failed to record drive upload", "run_id", id, "error", err)
		}
		s.reloadRecent(ctx)
	}
	return fileID, nil
}

func (s *Service) store(entry *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.RunID] = entry
	s.order = append(s.order, entry.RunID)
	for len(s.order) > keepResults {
		delete(s.entries, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Service) record(ctx context.Context, entry *Entry) {
	if s.history == nil {
		return
	}
	_, err := s.history.InsertRun(ctx, &db.InsertRunParams{
		ID:                 db.PgUUID(entry.RunID),
		ChannelUrl:         entry.ChannelURL,
		FinalFile:          entry.FinalFile,
		TranscriptLanguage: s.lang,
		VideoCount:         int32(len(entry.VideoIDs)),
		WrittenCount:       int32(len(entry.Written)),
		SkippedCount:       int32(len(entry.Skipped)),
		Bytes:              entry.Bytes,
		StartedAt:          db.PgTime(entry.StartedAt),
		FinishedAt:         db.PgTime(entry.FinishedAt),
	})
	if err != nil {
		slog.Warn("failed to record run", "run_id", entry.RunID, "error", err)
		return
	}
	s.reloadRecent(ctx)
}

func (s *Service) reloadRecent(ctx context.Context) {
	if s.recent == nil {
		return
	}
	if err := s.recent.Reload(ctx); err != nil {
		slog.Warn("failed to refresh recent runs", "error", err)
	}
}

// DriveClient is the cloud-storage side of the web flow. *drive.Uploader
// satisfies it.
type DriveClient interface {
	Uploader
	Authorized() bool
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) error
}
