package db

import (
	"github.com/jackc/pgx/v5/pgtype"
	"thirdcoast.systems/channelscribe/pkg/utils/language"
)

// Run is one completed pipeline run.
type Run struct {
	ID                 pgtype.UUID
	ChannelUrl         string
	FinalFile          string
	TranscriptLanguage language.Tag
	VideoCount         int32
	WrittenCount       int32
	SkippedCount       int32
	Bytes              int64
	DriveFileID        pgtype.Text
	StartedAt          pgtype.Timestamptz
	FinishedAt         pgtype.Timestamptz
	UploadedAt         pgtype.Timestamptz
}
