package ports

import (
	"context"

	"github.com/Vovarama1992/lostfound/internal/models"
)

type ReportEvent struct {
	Kind   models.Kind
	Report models.Report
}

type ReportService interface {
	Submit(ctx context.Context, kind models.Kind, sub models.Submission) (*models.Report, error)
	List(ctx context.Context, kind models.Kind) ([]models.Report, error)
}

type ReportFeed interface {
	Events() <-chan ReportEvent
}
