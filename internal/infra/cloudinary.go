package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/Vovarama1992/lostfound/internal/config"
	"github.com/Vovarama1992/lostfound/internal/models"
	"github.com/Vovarama1992/lostfound/internal/ports"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(cfg *config.Storage) (ports.ImageStore, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}

	return &CloudinaryStore{
		cld:    cld,
		folder: cfg.Folder,
	}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, img models.Image) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(img.Data), uploader.UploadParams{
		ResourceType: "auto",
		Folder:       s.folder,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary upload: empty secure_url")
	}
	return res.SecureURL, nil
}
