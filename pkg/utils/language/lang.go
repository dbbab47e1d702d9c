// Package language wraps x/text/language so a transcript language can be
// stored in Postgres and shown to users.
package language

import (
	"database/sql/driver"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type Tag language.Tag

// Parse returns the tag for s, or fallback when s is not a valid BCP 47 tag.
func Parse(s string, fallback language.Tag) Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return Tag(fallback)
	}
	return Tag(tag)
}

// Base returns the base language code ("en" for "en-GB"), which is what
// YouTube caption tracks are keyed by.
func (t Tag) Base() string {
	base, _ := language.Tag(t).Base()
	return base.String()
}

func (t Tag) String() string {
	return language.Tag(t).String()
}

// DisplayName is the language's name in English, e.g. "German".
func (t Tag) DisplayName() string {
	if t == Tag(language.Und) {
		return ""
	}
	return display.English.Tags().Name(language.Tag(t))
}

// Scan implements the sql.Scanner interface.
func (t *Tag) Scan(value any) error {
	if value == nil {
		*t = Tag(language.Und)
		return nil
	}

	tag, ok := value.(string)
	if !ok {
		return fmt.Errorf("language.Tag.Scan: expected string, got %T", value)
	}

	parsedTag, err := language.Parse(tag)
	if err != nil {
		return err
	}

	*t = Tag(parsedTag)
	return nil
}

// Value implements the driver.Valuer interface.
func (t Tag) Value() (driver.Value, error) {
	if t == Tag(language.Und) {
		return nil, nil
	}

	return language.Tag(t).String(), nil
}

// ScanText implements the pgtype.TextScanner interface for pgx v5.
func (t *Tag) ScanText(v pgtype.Text) error {
	if !v.Valid {
		*t = Tag(language.Und)
		return nil
	}
	return t.Scan(v.String)
}

// TextValue implements the pgtype.TextValuer interface for pgx v5.
func (t Tag) TextValue() (pgtype.Text, error) {
	if t == Tag(language.Und) {
		return pgtype.Text{Valid: false}, nil
	}

	return pgtype.Text{String: language.Tag(t).String(), Valid: true}, nil
}
