package drive

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"thirdcoast.systems/channelscribe/pkg/encryption"
)

var ErrTokenEncrypted = errors.New("token cache is encrypted but no key is configured")

// TokenCache persists an OAuth token at a fixed local path. With a Sealer
// the file is encrypted; a plain file left from before is still read and is
// sealed on the next save.
type TokenCache struct {
	Path   string
	Sealer *encryption.Manager
	mu     sync.Mutex
}

// Load reads the cached token. A missing file yields os.ErrNotExist.
func (c *TokenCache) Load() (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, err
	}

	if encryption.IsSealed(b) {
		if c.Sealer == nil {
			return nil, ErrTokenEncrypted
		}
		tok, err := encryption.Open[*oauth2.Token](c.Sealer, b)
		if err != nil {
			return nil, fmt.Errorf("open token cache %s: %w", c.Path, err)
		}
		return tok, nil
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, fmt.Errorf("decode token cache %s: %w", c.Path, err)
	}
	return tok, nil
}

// Save writes tok with owner-only permissions.
func (c *TokenCache) Save(tok *oauth2.Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		b   []byte
		err error
	)
	if c.Sealer != nil {
		b, err = encryption.Seal(c.Sealer, tok)
	} else {
		b, err = json.Marshal(tok)
	}
	if err != nil {
		return fmt.Errorf("encode token cache: %w", err)
	}

	if dir := filepath.Dir(c.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	if err := os.WriteFile(c.Path, b, 0o600); err != nil {
		return fmt.Errorf("write token cache %s: %w", c.Path, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(c.Path, 0o600); err != nil {
		return err
	}
	slog.Info("drive: saved oauth token", "path", c.Path, "encrypted", c.Sealer != nil)
	return nil
}

// persistingSource writes refreshed tokens back to the cache.
type persistingSource struct {
	base  oauth2.TokenSource
	cache *TokenCache
	last  string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.cache.Save(tok); err != nil {
			slog.Warn("drive: failed to persist refreshed token", "error", err)
		}
	}
	return tok, nil
}
