package infra

import (
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/Vovarama1992/lostfound/internal/config"
	"github.com/Vovarama1992/lostfound/internal/models"
	"github.com/Vovarama1992/lostfound/internal/ports"
	"github.com/google/uuid"
)

const keyPrefix = "reports"

// LocalURLPrefix is where the server mounts the local image directory.
const LocalURLPrefix = "/uploads"

func NewImageStore(cfg *config.Storage) (ports.ImageStore, error) {
	switch cfg.Provider {
	case config.ProviderCloudinary:
		return NewCloudinaryStore(cfg)
	case config.ProviderS3:
		return NewS3Store(cfg)
	case config.ProviderMinio:
		return NewMinioStore(cfg)
	case config.ProviderLocal:
		store, err := NewLocalStore(cfg.LocalDir, LocalURLPrefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported image provider: %s", cfg.Provider)
}

// objectKey names an uploaded image: reports/<uuid><ext>. The extension comes
// from the original filename, falling back to the content type.
func objectKey(img models.Image) string {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	if ext == "" && img.ContentType != "" {
		if exts, _ := mime.ExtensionsByType(img.ContentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return path.Join(keyPrefix, uuid.NewString()+ext)
}

func contentType(img models.Image) string {
	if img.ContentType != "" {
		return img.ContentType
	}
	return "application/octet-stream"
}
