package runs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"thirdcoast.systems/channelscribe/internal/db"
	"thirdcoast.systems/channelscribe/internal/pipeline"
	langtag "thirdcoast.systems/channelscribe/pkg/utils/language"
)

type fakeRunner struct {
	release chan struct{}
	started chan struct{}
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, channelURL, finalFile string, onProgress func(pipeline.Progress)) (*pipeline.Result, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	if onProgress != nil {
		onProgress(pipeline.Progress{Stage: pipeline.StageDone})
	}
	now := time.Now()
	return &pipeline.Result{
		RunID:      uuid.New(),
		ChannelURL: channelURL,
		FinalFile:  finalFile,
		VideoIDs:   []string{"a", "b"},
		Written:    []string{"a"},
		Skipped:    []string{"b"},
		Bytes:      42,
		StartedAt:  now.Add(-time.Second),
		FinishedAt: now,
	}, nil
}

type fakeHistory struct {
	mu       sync.Mutex
	inserted []*db.InsertRunParams
	drive    map[pgtype.UUID]string
}

func (h *fakeHistory) InsertRun(ctx context.Context, arg *db.InsertRunParams) (*db.Run, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inserted = append(h.inserted, arg)
	return &db.Run{ID: arg.ID}, nil
}

func (h *fakeHistory) SetRunDriveFile(ctx context.Context, id pgtype.UUID, driveFileID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.drive == nil {
		h.drive = map[pgtype.UUID]string{}
	}
	h.drive[id] = driveFileID
	return nil
}

type fakeUploader struct {
	path, folder string
	err          error
}

func (u *fakeUploader) Upload(ctx context.Context, filePath, folderID string) (string, error) {
	u.path, u.folder = filePath, folderID
	if u.err != nil {
		return "", u.err
	}
	return "drive-file", nil
}

func TestStart_StoresAndRecords(t *testing.T) {
	hist := &fakeHistory{}
	s := NewService(&fakeRunner{}, hist, nil, langtag.Tag(language.German))

	var stages []pipeline.Stage
	entry, err := s.Start(context.Background(), "https://youtube.com/@c", "out.txt", func(p pipeline.Progress) {
		stages = append(stages, p.Stage)
	})
	require.NoError(t, err)
	require.Equal(t, []pipeline.Stage{pipeline.StageDone}, stages)

	got, ok := s.Get(entry.RunID)
	require.True(t, ok)
	require.Equal(t, entry, got)
	require.NotSame(t, entry, got)

	require.Len(t, hist.inserted, 1)
	rec := hist.inserted[0]
	require.Equal(t, "https://youtube.com/@c", rec.ChannelUrl)
	require.Equal(t, int32(2), rec.VideoCount)
	require.Equal(t, int32(1), rec.WrittenCount)
	require.Equal(t, int32(1), rec.SkippedCount)
	require.Equal(t, "de", rec.TranscriptLanguage.String())
	require.False(t, s.Running())
}

func TestStart_RejectsConcurrentRun(t *testing.T) {
	runner := &fakeRunner{release: make(chan struct{}), started: make(chan struct{})}
	s := NewService(runner, nil, nil, langtag.Tag(language.English))

	done := make(chan error, 1)
	go func() {
		_, err := s.Start(context.Background(), "u", "f", nil)
		done <- err
	}()
	<-runner.started
	require.True(t, s.Running())

	_, err := s.Start(context.Background(), "u", "f", nil)
	require.ErrorIs(t, err, ErrRunInProgress)

	close(runner.release)
	require.NoError(t, <-done)
	require.False(t, s.Running())
}

func TestStart_PropagatesFailure(t *testing.T) {
	boom := errors.New("listing failed")
	hist := &fakeHistory{}
	s := NewService(&fakeRunner{err: boom}, hist, nil, langtag.Tag(language.English))

	entry, err := s.Start(context.Background(), "u", "f", nil)
	require.ErrorIs(t, err, boom)
	require.Nil(t, entry)
	require.Empty(t, hist.inserted)

	// The slot is free again.
	s.runner = &fakeRunner{}
	_, err = s.Start(context.Background(), "u", "f", nil)
	require.NoError(t, err)
}

func TestStore_KeepsRecentResults(t *testing.T) {
	s := NewService(&fakeRunner{}, nil, nil, langtag.Tag(language.English))
	var first uuid.UUID
	for i := 0; i < keepResults+3; i++ {
		e, err := s.Start(context.Background(), "u", "f", nil)
		require.NoError(t, err)
		if i == 0 {
			first = e.RunID
		}
	}
	_, ok := s.Get(first)
	require.False(t, ok)
	require.Len(t, s.entries, keepResults)
}

func TestUpload(t *testing.T) {
	hist := &fakeHistory{}
	s := NewService(&fakeRunner{}, hist, nil, langtag.Tag(language.English))
	entry, err := s.Start(context.Background(), "u", "/tmp/out.txt", nil)
	require.NoError(t, err)

	up := &fakeUploader{}
	id, err := s.Upload(context.Background(), entry.RunID, up, "folder")
	require.NoError(t, err)
	require.Equal(t, "drive-file", id)
	require.Equal(t, "/tmp/out.txt", up.path)
	require.Equal(t, "folder", up.folder)
	require.Empty(t, entry.DriveFileID, "callers hold a copy")
	got, _ := s.Get(entry.RunID)
	require.Equal(t, "drive-file", got.DriveFileID)
	require.Equal(t, "drive-file", hist.drive[db.PgUUID(entry.RunID)])

	_, err = s.Upload(context.Background(), uuid.New(), up, "folder")
	require.ErrorIs(t, err, ErrUnknownRun)

	up.err = errors.New("quota")
	_, err = s.Upload(context.Background(), entry.RunID, up, "folder")
	require.Error(t, err)
	got, _ = s.Get(entry.RunID)
	require.Equal(t, "drive-file", got.DriveFileID)
}

func TestGetDuringUpload(t *testing.T) {
	s := NewService(&fakeRunner{}, nil, nil, langtag.Tag(language.English))
	entry, err := s.Start(context.Background(), "u", "/tmp/out.txt", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if _, err := s.Upload(context.Background(), entry.RunID, &fakeUploader{}, ""); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if _, ok := s.Get(entry.RunID); !ok {
				t.Error("run vanished")
				return
			}
		}
	}()
	wg.Wait()
}
