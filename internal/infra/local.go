package infra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Vovarama1992/lostfound/internal/models"
)

// LocalStore keeps images on disk; the HTTP server exposes Dir under URLPrefix.
type LocalStore struct {
	Dir       string
	URLPrefix string
}

func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("local store dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create local store dir: %w", err)
	}
	return &LocalStore{Dir: abs, URLPrefix: urlPrefix}, nil
}

func (s *LocalStore) Upload(ctx context.Context, img models.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := objectKey(img)
	full := filepath.Join(s.Dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(full, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return s.URLPrefix + "/" + key, nil
}
