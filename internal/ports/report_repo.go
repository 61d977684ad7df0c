package ports

import (
	"context"
	"errors"

	"github.com/Vovarama1992/lostfound/internal/models"
)

type ReportRepository interface {
	InsertReport(ctx context.Context, report *models.Report) (*models.Report, error)
	ListReports(ctx context.Context, kind models.Kind) ([]models.Report, error)
	Ping(ctx context.Context) error
}

// ErrInvalidInput is returned by a repository when the store rejects a
// value (for example a date it cannot parse).
var ErrInvalidInput = errors.New("invalid input")
