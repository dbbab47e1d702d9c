// Package filename provides utilities for sanitizing strings into safe filenames.
package filename

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// TextExt is appended to every combined transcript file name.
const TextExt = ".txt"

// invalidCharsRe matches characters not safe for filenames across all major OSes.
var invalidCharsRe = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// multiDash collapses runs of dashes/underscores.
var multiDash = regexp.MustCompile(`[-_]{2,}`)

// Sanitize converts an arbitrary string into a filename-safe slug.
// Path separators and reserved characters become dashes, whitespace becomes
// dashes, and leading/trailing dashes and dots are stripped. The output is
// truncated to maxLen bytes (defaults to 120 when maxLen <= 0).
func Sanitize(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 120
	}

	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}

	s = invalidCharsRe.ReplaceAllString(s, "-")

	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return '-'
		}
		return r
	}, s)

	s = multiDash.ReplaceAllString(s, "-")

	// Avoid hidden files and trailing dots on Windows.
	s = strings.Trim(s, "-.")

	if len(s) > maxLen {
		// Cut on a rune boundary so the name stays valid UTF-8.
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
		s = strings.TrimRight(s, "-.")
	}

	return s
}

// OutputFile turns the user-supplied output name into a bare file name ending
// in .txt. An empty or fully-invalid name yields fallback unchanged.
func OutputFile(name, fallback string) string {
	s := strings.TrimSpace(name)
	if len(s) >= len(TextExt) && strings.EqualFold(s[len(s)-len(TextExt):], TextExt) {
		s = s[:len(s)-len(TextExt)]
	}
	s = Sanitize(s, 0)
	if s == "" {
		return fallback
	}
	return s + TextExt
}
