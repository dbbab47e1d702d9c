package language

import (
	"database/sql/driver"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestParse(t *testing.T) {
	require.Equal(t, "de", Parse("de", language.English).String())
	require.Equal(t, "en", Parse("not a tag!", language.English).String())
}

func TestTag_BaseAndDisplayName(t *testing.T) {
	tag := Parse("en-GB", language.English)
	require.Equal(t, "en", tag.Base())
	require.Equal(t, "German", Parse("de", language.English).DisplayName())
	require.Equal(t, "", Tag(language.Und).DisplayName())
}

func TestTag_ScanAndValue(t *testing.T) {
	var t1 Tag
	require.NoError(t, t1.Scan("en-US"))
	require.Equal(t, "en-US", t1.String())

	val, err := t1.Value()
	require.NoError(t, err)
	require.Equal(t, "en-US", val)

	var t2 Tag
	require.NoError(t, t2.Scan(nil))
	require.Equal(t, Tag(language.Und), t2)

	require.Error(t, t2.Scan(42))

	var _ driver.Valuer = Tag(language.Und)
}

func TestTag_ScanTextAndTextValue(t *testing.T) {
	var t1 Tag
	require.NoError(t, t1.ScanText(pgtype.Text{String: "fr", Valid: true}))
	require.Equal(t, "fr", t1.String())

	text, err := t1.TextValue()
	require.NoError(t, err)
	require.True(t, text.Valid)
	require.Equal(t, "fr", text.String)

	var t2 Tag
	require.NoError(t, t2.ScanText(pgtype.Text{Valid: false}))
	require.Equal(t, Tag(language.Und), t2)

	text, err = t2.TextValue()
	require.NoError(t, err)
	require.False(t, text.Valid)
}
