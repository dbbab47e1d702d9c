// Package static serves embedded assets with validators so browsers can
// revalidate instead of re-downloading.
package static

import (
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type fileInfo struct {
	ETag         string
	Size         int64
	LastModified time.Time
}

// Cache holds the validators of every file in an embedded FS. The FS is
// immutable so entries are computed once.
type Cache struct {
	entries map[string]fileInfo
	fs      fs.FS
	started time.Time
}

// NewCache hashes every file of fsys.
func NewCache(fsys fs.FS) (*Cache, error) {
	c := &Cache{
		entries: make(map[string]fileInfo),
		fs:      fsys,
		// embed.FS reports a zero ModTime; the process start stands in for it.
		started: time.Now().UTC().Truncate(time.Second),
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		f, err := fsys.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			return err
		}
		modTime := info.ModTime()
		if modTime.IsZero() {
			modTime = c.started
		}

		c.entries[p] = fileInfo{
			ETag:         fmt.Sprintf("%q", fmt.Sprintf("%x", h.Sum(nil))),
			Size:         info.Size(),
			LastModified: modTime,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func cacheControl(ext string) string {
	switch ext {
	// Not fingerprinted, so always revalidate.
	case ".css", ".js":
		return "no-cache, must-revalidate"
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".woff2":
		return "public, max-age=86400, stale-while-revalidate=3600"
	}
	return "public, max-age=3600, stale-while-revalidate=300"
}

// Handler serves files below prefix (for example "/static/").
func (s *Cache) Handler(prefix string) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := path.Clean(strings.TrimPrefix(c.Request().URL.Path, prefix))
		ci, ok := s.entries[name]
		if !ok {
			return echo.ErrNotFound
		}

		if inm := c.Request().Header.Get("If-None-Match"); inm != "" && inm == ci.ETag {
			return c.NoContent(http.StatusNotModified)
		}
		if ims := c.Request().Header.Get(echo.HeaderIfModifiedSince); ims != "" {
			if t, err := http.ParseTime(ims); err == nil && !ci.LastModified.After(t) {
				return c.NoContent(http.StatusNotModified)
			}
		}

		f, err := s.fs.Open(name)
		if err != nil {
			return echo.ErrNotFound
		}
		defer f.Close()

		ext := path.Ext(name)
		h := c.Response().Header()
		h.Set(echo.HeaderCacheControl, cacheControl(ext))
		h.Set("ETag", ci.ETag)
		h.Set(echo.HeaderLastModified, ci.LastModified.Format(http.TimeFormat))

		contentType := mime.TypeByExtension(ext)
		if contentType == "" {
			contentType = echo.MIMEOctetStream
		}
		return c.Stream(http.StatusOK, contentType, f)
	}
}
