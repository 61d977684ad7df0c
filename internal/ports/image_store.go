package ports

import (
	"context"

	"github.com/Vovarama1992/lostfound/internal/models"
)

// ImageStore uploads image bytes and returns a durable public URL.
type ImageStore interface {
	Upload(ctx context.Context, img models.Image) (string, error)
}
