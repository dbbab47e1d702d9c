// Package drive uploads files to Google Drive on behalf of the single local user.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"thirdcoast.systems/channelscribe/pkg/encryption"
)

// ErrNotAuthorized means no OAuth token has been cached yet; the user has to
// go through the consent flow first.
var ErrNotAuthorized = errors.New("drive: not authorized")

type createFunc func(ctx context.Context, meta *drive.File, media io.Reader) (*drive.File, error)

type Uploader struct {
	config *oauth2.Config
	cache  *TokenCache
	create createFunc
}

type Option func(*Uploader)

// WithTokenEncryption seals the cached token with m.
func WithTokenEncryption(m *encryption.Manager) Option {
	return func(u *Uploader) {
		u.cache.Sealer = m
	}
}

// NewUploader reads the OAuth client secrets from credentialsFile and caches
// tokens at tokenFile.
func NewUploader(credentialsFile, tokenFile, redirectURL string, opts ...Option) (*Uploader, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}
	if redirectURL != "" {
		config.RedirectURL = redirectURL
	}

	u := &Uploader{
		config: config,
		cache:  &TokenCache{Path: tokenFile},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Authorized reports whether a token is cached.
func (u *Uploader) Authorized() bool {
	_, err := u.cache.Load()
	return err == nil
}

// AuthCodeURL is the consent page the user is sent to.
func (u *Uploader) AuthCodeURL(state string) string {
	return u.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and caches it.
func (u *Uploader) Exchange(ctx context.Context, code string) error {
	tok, err := u.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return u.cache.Save(tok)
}

func (u *Uploader) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := u.cache.Load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}
	return &persistingSource{
		base:  u.config.TokenSource(ctx, tok),
		cache: u.cache,
		last:  tok.AccessToken,
	}, nil
}

func (u *Uploader) createFile(ctx context.Context, meta *drive.File, media io.Reader) (*drive.File, error) {
	if u.create != nil {
		return u.create(ctx, meta, media)
	}

	ts, err := u.tokenSource(ctx)
	if err != nil {
		return nil, err
	}
	srv, err := drive.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return srv.Files.Create(meta).Media(media).Fields("id").Context(ctx).Do()
}

// Upload stores filePath in folderID (or the Drive root when folderID is
// empty) and returns the new file's ID.
func (u *Uploader) Upload(ctx context.Context, filePath, folderID string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	meta := &drive.File{Name: filepath.Base(filePath)}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}

	created, err := u.createFile(ctx, meta, f)
	if err != nil {
		return "", fmt.Errorf("upload %s to drive: %w", meta.Name, err)
	}

	slog.Info("drive: file uploaded", "file", meta.Name, "folder_id", folderID, "file_id", created.Id)
	return created.Id, nil
}

// ViewURL links to the uploaded file in the Drive web UI.
func ViewURL(fileID string) string {
	return "https://drive.google.com/file/d/" + fileID + "/view"
}
