package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"thirdcoast.systems/channelscribe/pkg/utils/language"
)

const runColumns = `id, channel_url, final_file, transcript_language, video_count, written_count, skipped_count, bytes, drive_file_id, started_at, finished_at, uploaded_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var i Run
	err := row.Scan(
		&i.ID,
		&i.ChannelUrl,
		&i.FinalFile,
		&i.TranscriptLanguage,
		&i.VideoCount,
		&i.WrittenCount,
		&i.SkippedCount,
		&i.Bytes,
		&i.DriveFileID,
		&i.StartedAt,
		&i.FinishedAt,
		&i.UploadedAt,
	)
	return &i, err
}

const insertRun = `-- name: InsertRun :one
INSERT INTO runs (id, channel_url, final_file, transcript_language, video_count, written_count, skipped_count, bytes, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + runColumns

type InsertRunParams struct {
	ID                 pgtype.UUID
	ChannelUrl         string
	FinalFile          string
	TranscriptLanguage language.Tag
	VideoCount         int32
	WrittenCount       int32
	SkippedCount       int32
	Bytes              int64
	StartedAt          pgtype.Timestamptz
	FinishedAt         pgtype.Timestamptz
}

func (q *Queries) InsertRun(ctx context.Context, arg *InsertRunParams) (*Run, error) {
	row := q.db.QueryRow(ctx, insertRun,
		arg.ID,
		arg.ChannelUrl,
		arg.FinalFile,
		arg.TranscriptLanguage,
		arg.VideoCount,
		arg.WrittenCount,
		arg.SkippedCount,
		arg.Bytes,
		arg.StartedAt,
		arg.FinishedAt,
	)
	return scanRun(row)
}

const setRunDriveFile = `-- name: SetRunDriveFile :exec
UPDATE runs SET drive_file_id = $2, uploaded_at = now() WHERE id = $1`

func (q *Queries) SetRunDriveFile(ctx context.Context, id pgtype.UUID, driveFileID string) error {
	_, err := q.db.Exec(ctx, setRunDriveFile, id, driveFileID)
	return err
}

const getRun = `-- name: GetRun :one
SELECT ` + runColumns + ` FROM runs WHERE id = $1`

func (q *Queries) GetRun(ctx context.Context, id pgtype.UUID) (*Run, error) {
	return scanRun(q.db.QueryRow(ctx, getRun, id))
}

const recentRuns = `-- name: RecentRuns :many
SELECT ` + runColumns + ` FROM runs ORDER BY finished_at DESC LIMIT $1`

func (q *Queries) RecentRuns(ctx context.Context, limit int32) ([]*Run, error) {
	rows, err := q.db.Query(ctx, recentRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Run
	for rows.Next() {
		i, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
