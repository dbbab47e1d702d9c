// Package theme turns the configured background image into inline CSS.
package theme

import (
	"encoding/base64"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Theme is the cosmetic page styling resolved at startup.
type Theme struct {
	// BackgroundURI is a data: URI for the page background, or empty.
	BackgroundURI string
}

// Load reads the background image at path. A missing or unreadable image
// degrades to the plain theme.
func Load(path string) Theme {
	if strings.TrimSpace(path) == "" {
		return Theme{}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("background image unavailable; using plain theme", "path", path, "error", err)
		return Theme{}
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if !strings.HasPrefix(mimeType, "image/") {
		slog.Warn("background is not an image; using plain theme", "path", path, "mime", mimeType)
		return Theme{}
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	slog.Info("loaded background image", "path", path, "bytes", len(b))
	return Theme{
		BackgroundURI: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(b),
	}
}

// CSS returns the inline style rules for the theme.
func (t Theme) CSS() string {
	if t.BackgroundURI == "" {
		return ""
	}
	return `body{background-image:url("` + t.BackgroundURI + `");background-size:cover;background-attachment:fixed;}`
}
