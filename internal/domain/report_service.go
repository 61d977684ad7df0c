package domain

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/lostfound/internal/models"
	"github.com/Vovarama1992/lostfound/internal/ports"
	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
)

var (
	_ ports.ReportService = (*ReportService)(nil)
	_ ports.ReportFeed    = (*ReportService)(nil)
)

type ReportServiceOptions struct {
	MaxImageBytes int64
	UploadTimeout time.Duration
}

type ReportService struct {
	repo     ports.ReportRepository
	images   ports.ImageStore
	log      *logger.ZapLogger
	opts     ReportServiceOptions
	validate *validator.Validate
	breaker  *gobreaker.CircuitBreaker
	events   chan ports.ReportEvent
}

func NewReportService(
	repo ports.ReportRepository,
	images ports.ImageStore,
	log *logger.ZapLogger,
	opts ReportServiceOptions,
) *ReportService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ReportService{
		repo:     repo,
		images:   images,
		log:      log,
		opts:     opts,
		validate: v,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "image-upload",
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
			// a client hanging up is not the provider's fault
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		}),
		events: make(chan ports.ReportEvent, 100),
	}
}

func (s *ReportService) Events() <-chan ports.ReportEvent { return s.events }

// Submit validates the submission, uploads the image (if any) and only then
// inserts the row. An upload failure leaves the table untouched.
func (s *ReportService) Submit(ctx context.Context, kind models.Kind, sub models.Submission) (*models.Report, error) {
	sub.Normalize()
	if err := s.check(sub); err != nil {
		return nil, err
	}

	report := sub.Report(kind)

	// an empty file part counts as no image
	if sub.Image != nil && len(sub.Image.Data) > 0 {
		url, err := s.upload(ctx, *sub.Image)
		if err != nil {
			return nil, &ImageUploadError{Err: err}
		}
		report.ImageURL = &url
	}

	// an unparsable date (ports.ErrInvalidInput) ends up here too
	stored, err := s.repo.InsertReport(ctx, report)
	if err != nil {
		return nil, &StorageError{Op: "insert " + string(kind), Err: err}
	}

	s.publish(ports.ReportEvent{Kind: kind, Report: *stored})
	return stored, nil
}

func (s *ReportService) List(ctx context.Context, kind models.Kind) ([]models.Report, error) {
	items, err := s.repo.ListReports(ctx, kind)
	if err != nil {
		return nil, &StorageError{Op: "list " + string(kind), Err: err}
	}
	return items, nil
}

func (s *ReportService) check(sub models.Submission) error {
	if err := s.validate.Struct(sub); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ValidationError{Reason: err.Error()}
		}
		fields := make([]string, 0, len(verrs))
		for _, e := range verrs {
			fields = append(fields, e.Field())
		}
		return &ValidationError{Fields: fields}
	}

	if img := sub.Image; img != nil {
		if s.opts.MaxImageBytes > 0 && int64(len(img.Data)) > s.opts.MaxImageBytes {
			return &ValidationError{Reason: fmt.Sprintf("image is larger than %d bytes", s.opts.MaxImageBytes)}
		}
	}
	return nil
}

func (s *ReportService) upload(ctx context.Context, img models.Image) (string, error) {
	if s.opts.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.UploadTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.breaker.Execute(func() (interface{}, error) {
		return s.images.Upload(ctx, img)
	})
	if err != nil {
		s.log.Log(logger.LogEntry{
			Level:   "error",
			Message: "image upload failed",
			Error:   err,
			Fields: map[string]any{
				"filename": img.Filename,
				"bytes":    len(img.Data),
				"breaker":  s.breaker.State().String(),
				"duration": time.Since(start).String(),
			},
		})
		return "", err
	}

	url := res.(string)
	s.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "image uploaded",
		Fields: map[string]any{
			"imageUrl": url,
			"bytes":    len(img.Data),
			"duration": time.Since(start).String(),
		},
	})
	return url, nil
}

func (s *ReportService) publish(ev ports.ReportEvent) {
	select {
	case s.events <- ev:
	default:
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "report event dropped",
			Fields:  map[string]any{"kind": ev.Kind, "reportID": ev.Report.ID},
		})
	}
}
