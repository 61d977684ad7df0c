package infra

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Vovarama1992/lostfound/internal/models"
	"github.com/Vovarama1992/lostfound/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresReportRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresReportRepo(pool *pgxpool.Pool) ports.ReportRepository {
	return &PostgresReportRepo{pool: pool}
}

// returning lists the columns of a kind's table under the names of the
// Report db tags.
func returning(kind models.Kind) string {
	return fmt.Sprintf(`id, item_name, category,
		%s AS location,
		to_char(%s, 'YYYY-MM-DD') AS date,
		description, contact_name, contact_email, image_url, created_at`,
		kind.LocationColumn(), kind.DateColumn(),
	)
}

func (r *PostgresReportRepo) InsertReport(ctx context.Context, report *models.Report) (*models.Report, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (item_name, category, %s, %s, description, contact_name, contact_email, image_url)
		VALUES ($1, $2, $3, NULLIF($4::text, '')::date, $5, $6, $7, $8)
		RETURNING %s
	`, report.Kind.Table(), report.Kind.LocationColumn(), report.Kind.DateColumn(), returning(report.Kind))

	rows, err := r.pool.Query(ctx, query,
		report.ItemName,
		report.Category,
		report.Location,
		report.Date,
		report.Description,
		report.ContactName,
		report.ContactEmail,
		report.ImageURL,
	)
	if err != nil {
		return nil, wrapPgError("insert report", err)
	}

	stored, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Report])
	if err != nil {
		return nil, wrapPgError("insert report", err)
	}
	stored.Kind = report.Kind
	return &stored, nil
}

func (r *PostgresReportRepo) ListReports(ctx context.Context, kind models.Kind) ([]models.Report, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY created_at DESC, id DESC
	`, returning(kind), kind.Table())

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s reports: %w", kind, err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Report])
	if err != nil {
		return nil, fmt.Errorf("list %s reports: %w", kind, err)
	}

	if items == nil {
		items = []models.Report{}
	}
	for i := range items {
		items[i].Kind = kind
	}
	return items, nil
}

func (r *PostgresReportRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// wrapPgError maps data exceptions (SQLSTATE class 22, e.g. a malformed
// date) to ports.ErrInvalidInput.
func wrapPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "22") {
		return fmt.Errorf("%s: %w: %s", op, ports.ErrInvalidInput, pgErr.Message)
	}
	return fmt.Errorf("%s: %w", op, err)
}
