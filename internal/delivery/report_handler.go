package delivery

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/lostfound/internal/domain"
	"github.com/Vovarama1992/lostfound/internal/models"
	"github.com/Vovarama1992/lostfound/internal/ports"
	"github.com/go-chi/chi/v5/middleware"
)

// formOverhead is allowed on top of the image limit for the text fields
// and multipart framing.
const formOverhead = 1 << 20

type ReportHandler struct {
	reports   ports.ReportService
	log       *logger.ZapLogger
	maxUpload int64
}

func NewReportHandler(reports ports.ReportService, log *logger.ZapLogger, maxUpload int64) *ReportHandler {
	return &ReportHandler{
		reports:   reports,
		log:       log,
		maxUpload: maxUpload,
	}
}

// POST /api/lost, POST /api/found
func (h *ReportHandler) Create(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sub, err := h.parseSubmission(w, r)
		if err != nil {
			h.log.Log(logger.LogEntry{
				Level:   "info",
				Message: "bad submission body",
				Error:   err,
				Fields:  map[string]any{"kind": kind, "requestID": middleware.GetReqID(r.Context())},
			})
			writeFail(w, http.StatusBadRequest, err.Error())
			return
		}

		item, err := h.reports.Submit(r.Context(), kind, sub)
		if err != nil {
			h.fail(w, r, "submit report", kind, err)
			return
		}

		h.log.Log(logger.LogEntry{
			Level:   "info",
			Message: "report created",
			Fields: map[string]any{
				"kind":     kind,
				"reportID": item.ID,
				"hasImage": item.ImageURL != nil,
				"duration": time.Since(start).String(),
			},
		})

		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"item":    item,
		})
	}
}

// GET /api/lost-items, GET /api/found-items
func (h *ReportHandler) List(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.reports.List(r.Context(), kind)
		if err != nil {
			h.fail(w, r, "list reports", kind, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"items":   items,
		})
	}
}

func (h *ReportHandler) fail(w http.ResponseWriter, r *http.Request, op string, kind models.Kind, err error) {
	var (
		verr *domain.ValidationError
		uerr *domain.ImageUploadError
	)

	status, msg, level := http.StatusInternalServerError, "Server error", "error"
	switch {
	case errors.As(err, &verr):
		status, msg, level = http.StatusBadRequest, verr.Error(), "info"
	case errors.As(err, &uerr):
		msg = "Image upload failed"
	}

	h.log.Log(logger.LogEntry{
		Level:   level,
		Message: op + " failed",
		Error:   err,
		Fields: map[string]any{
			"kind":      kind,
			"status":    status,
			"requestID": middleware.GetReqID(r.Context()),
		},
	})
	writeFail(w, status, msg)
}

func (h *ReportHandler) parseSubmission(w http.ResponseWriter, r *http.Request) (models.Submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+formOverhead)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(h.maxUpload + formOverhead)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.Submission{}, errors.New("request body too large")
		}
		return models.Submission{}, errors.New("malformed form body")
	}

	sub := models.Submission{
		ItemName:     r.FormValue("itemName"),
		Category:     r.FormValue("category"),
		Location:     r.FormValue("location"),
		Date:         r.FormValue("date"),
		Description:  r.FormValue("description"),
		ContactName:  r.FormValue("contactName"),
		ContactEmail: r.FormValue("contactEmail"),
	}

	img, err := readImage(r)
	if err != nil {
		return models.Submission{}, err
	}
	sub.Image = img
	return sub, nil
}

// readImage returns nil when no file was attached. Browsers send an empty
// part for an untouched file input; that counts as no image too.
func readImage(r *http.Request) (*models.Image, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("cannot read image")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.New("cannot read image")
	}
	if len(data) == 0 && header.Filename == "" {
		return nil, nil
	}

	return &models.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
