// Package blob stores uploaded media on the local filesystem.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LocalStore writes each upload under dir with a fresh random name and
// serves it back under urlPrefix. Only uploads without a declared media type
// are sniffed.
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}, nil
}

func (s *LocalStore) Put(ctx context.Context, fileName, mediaType string, body io.Reader) (core.Blob, error) {
	if err := ctx.Err(); err != nil {
		return core.Blob{}, err
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return core.Blob{}, fmt.Errorf("failed to create blob: %w", err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return core.Blob{}, fmt.Errorf("failed to write blob: %w", err)
	}

	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		mt, err := mimetype.DetectFile(full)
		if err != nil {
			_ = os.Remove(full)
			return core.Blob{}, fmt.Errorf("failed to sniff blob: %w", err)
		}
		mediaType = mt.String()
	}
	if !domain.AllowedMediaType(mediaType) {
		_ = os.Remove(full)
		return core.Blob{}, domain.ErrUnsupportedMedia
	}

	log.Debug().Str("module", "blob").Str("file", name).Int64("size", n).Str("type", mediaType).Msg("stored upload")
	return core.Blob{URL: path.Join(s.urlPrefix, name), MediaType: mediaType, Size: n}, nil
}

// Delete removes the file behind url. Unknown urls are ignored.
func (s *LocalStore) Delete(_ context.Context, url string) error {
	name := path.Base(url)
	if !strings.HasPrefix(url, s.urlPrefix+"/") || name == "." || name == "/" {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
