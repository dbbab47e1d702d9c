// Package videoid validates and normalizes YouTube links.
package videoid

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Well-known host aliases. Key: input host. Value: canonical domain.
var canonicalDomainByHost = map[string]string{
	"youtube.com":       "youtube.com",
	"www.youtube.com":   "youtube.com",
	"m.youtube.com":     "youtube.com",
	"music.youtube.com": "youtube.com",
	"youtu.be":          "youtube.com",
}

// ErrNotChannelURL is returned when a URL points at something other than a
// YouTube channel listing (a single video, another site).
var ErrNotChannelURL = errors.New("not a youtube channel url")

// ResolveCanonicalDomain returns the canonical domain for host.
//
// host should be a hostname without port.
func ResolveCanonicalDomain(host string) string {
	h := normalizeHost(host)
	if h == "" {
		return ""
	}
	if c, ok := canonicalDomainByHost[h]; ok {
		return c
	}
	return h
}

// NormalizeChannelURL cleans up a user-provided channel link before it is
// handed to yt-dlp.
//
// Accepted paths are the channel forms YouTube serves: /@handle, /channel/ID,
// /c/name and /user/name, optionally followed by a tab such as /videos. A bare
// "@handle" is expanded to https://youtube.com/@handle. The scheme is forced
// to https, the host canonicalized, and query and fragment dropped.
func NormalizeChannelURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("missing url")
	}
	if strings.HasPrefix(raw, "@") {
		raw = "youtube.com/" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return "", err
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrNotChannelURL, u.Scheme)
	}

	if ResolveCanonicalDomain(u.Host) != "youtube.com" || normalizeHost(u.Host) == "youtu.be" {
		return "", fmt.Errorf("%w: %s", ErrNotChannelURL, u.Host)
	}
	if !isChannelPath(u.Path) {
		return "", fmt.Errorf("%w: %s", ErrNotChannelURL, u.Path)
	}

	u.Scheme = "https"
	u.Host = "youtube.com"
	u.User = nil
	u.Fragment = ""
	u.RawQuery = ""
	u.Path = trimTrailingSlash(u.Path)

	return u.String(), nil
}

func isChannelPath(p string) bool {
	seg := firstPathSegment(p)
	switch {
	case strings.HasPrefix(seg, "@") && len(seg) > 1:
		return true
	case seg == "channel", seg == "c", seg == "user":
		rest := strings.TrimPrefix(strings.TrimPrefix(p, "/"), seg)
		return firstPathSegment(rest) != ""
	}
	return false
}

func normalizeHost(hostport string) string {
	h := strings.TrimSpace(strings.ToLower(hostport))
	if h == "" {
		return ""
	}
	// url.URL.Host may include port.
	if strings.Contains(h, ":") {
		if parsed, err := url.Parse("//" + h); err == nil {
			if parsed.Hostname() != "" {
				h = parsed.Hostname()
			}
		}
	}
	h = strings.TrimSuffix(h, ".")
	return h
}

func trimTrailingSlash(p string) string {
	if p == "" {
		return ""
	}
	if p == "/" {
		return "/"
	}
	return strings.TrimRight(p, "/")
}

// ExtractYouTubeVideoID extracts the YouTube video ID from a URL.
// Returns empty string and error if not a valid YouTube URL or ID cannot be extracted.
func ExtractYouTubeVideoID(urlStr string) (string, error) {
	urlStr = strings.TrimSpace(urlStr)
	if urlStr == "" {
		return "", errors.New("empty url")
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	host := normalizeHost(u.Host)

	// Handle youtu.be shortlinks
	if host == "youtu.be" {
		id := firstPathSegment(u.Path)
		if id == "" {
			return "", errors.New("not a youtube url or video id not found")
		}
		return id, nil
	}

	// Handle youtube.com URLs (including www/m.)
	if ResolveCanonicalDomain(host) == "youtube.com" || strings.Contains(host, "youtube.com") {
		// Check for /watch?v= format
		if q := u.Query().Get("v"); q != "" {
			return q, nil
		}
		// Check for /embed/ or /v/ format
		if strings.HasPrefix(u.Path, "/embed/") {
			id := firstPathSegment(strings.TrimPrefix(u.Path, "/embed/"))
			if id != "" {
				return id, nil
			}
		}
		if strings.HasPrefix(u.Path, "/v/") {
			id := firstPathSegment(strings.TrimPrefix(u.Path, "/v/"))
			if id != "" {
				return id, nil
			}
		}
		// Common modern formats.
		if strings.HasPrefix(u.Path, "/shorts/") {
			id := firstPathSegment(strings.TrimPrefix(u.Path, "/shorts/"))
			if id != "" {
				return id, nil
			}
		}
		if strings.HasPrefix(u.Path, "/live/") {
			id := firstPathSegment(strings.TrimPrefix(u.Path, "/live/"))
			if id != "" {
				return id, nil
			}
		}
	}

	return "", errors.New("not a youtube url or video id not found")
}

func firstPathSegment(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return ""
	}
	seg, _, _ := strings.Cut(p, "/")
	return strings.TrimSpace(seg)
}
