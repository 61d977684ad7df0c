package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/lostfound/internal/domain"
	"github.com/Vovarama1992/lostfound/internal/models"
	"github.com/Vovarama1992/lostfound/internal/ports"
	"github.com/Vovarama1992/lostfound/web"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	mu        sync.Mutex
	rows      map[models.Kind][]models.Report
	nextID    int64
	listErr   error
	insertErr error
}

func (r *memRepo) InsertReport(ctx context.Context, report *models.Report) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	r.nextID++
	stored := *report
	stored.ID = r.nextID
	stored.CreatedAt = time.Date(2024, 1, 1, 0, 0, int(r.nextID), 0, time.UTC)
	r.rows[report.Kind] = append(r.rows[report.Kind], stored)
	return &stored, nil
}

func (r *memRepo) ListReports(ctx context.Context, kind models.Kind) ([]models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []models.Report{}
	for i := len(r.rows[kind]) - 1; i >= 0; i-- {
		out = append(out, r.rows[kind][i])
	}
	return out, nil
}

func (r *memRepo) Ping(ctx context.Context) error { return r.listErr }

type stubImages struct {
	url string
	err error
}

func (s *stubImages) Upload(ctx context.Context, img models.Image) (string, error) {
	return s.url, s.err
}

type testEnv struct {
	router http.Handler
	srv    *httptest.Server
	repo   *memRepo
	images *stubImages
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithWeb(t, nil)
}

func newTestEnvWithWeb(t *testing.T, webHandler http.Handler) *testEnv {
	t.Helper()

	zl := logger.NewZapLogger(zap.NewNop().Sugar())
	repo := &memRepo{rows: map[models.Kind][]models.Report{}}
	images := &stubImages{url: "https://res.cloudinary.com/demo/image/upload/x.png"}
	svc := domain.NewReportService(repo, images, zl, domain.ReportServiceOptions{
		MaxImageBytes: 1 << 20,
		UploadTimeout: time.Second,
	})

	r := chi.NewRouter()
	RegisterRoutes(r, Routes{
		Reports: NewReportHandler(svc, zl, 1<<20),
		Health:  NewHealthHandler(repo),
		Web:     webHandler,
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testEnv{router: r, srv: srv, repo: repo, images: images}
}

type formFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *formFile) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="image"; filename="` + file.name + `"`}
		h["Content-Type"] = []string{file.contentType}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type apiResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Item    map[string]any   `json:"item"`
	Items   []map[string]any `json:"items"`
}

func (e *testEnv) post(t *testing.T, path string, fields map[string]string, file *formFile) (int, apiResponse) {
	t.Helper()
	body, ct := multipartBody(t, fields, file)
	resp, err := http.Post(e.srv.URL+path, ct, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, decode(t, resp)
}

func (e *testEnv) get(t *testing.T, path string) (int, apiResponse) {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) apiResponse {
	t.Helper()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateLostWithoutImage(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.post(t, "/api/lost", map[string]string{
		"itemName":     "Wallet",
		"contactName":  "Asha",
		"contactEmail": "a@x.com",
	}, nil)

	require.Equal(t, http.StatusCreated, status)
	assert.True(t, body.Success)
	assert.Equal(t, "Wallet", body.Item["itemName"])
	assert.Nil(t, body.Item["imageUrl"])
	assert.Contains(t, body.Item, "lostLocation")
	assert.NotZero(t, body.Item["id"])
}

func TestCreateFoundWithImage(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.post(t, "/api/found", map[string]string{
		"itemName":     "Keys",
		"location":     "Cafeteria",
		"date":         "2024-06-01",
		"contactName":  "Ravi",
		"contactEmail": "r@x.com",
	}, &formFile{name: "keys.png", contentType: "image/png", data: []byte("\x89PNG\r\n\x1a\nrest")})

	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, env.images.url, body.Item["imageUrl"])
	assert.Equal(t, "Cafeteria", body.Item["foundLocation"])
	assert.Equal(t, "2024-06-01", body.Item["foundDate"])
}

func TestCreateFoundMissingEmail(t *testing.T) {
	env := newTestEnv(t)

	_, before := env.get(t, "/api/found-items")

	status, body := env.post(t, "/api/found", map[string]string{
		"itemName":    "Keys",
		"contactName": "Ravi",
	}, nil)

	require.Equal(t, http.StatusBadRequest, status)
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "contactEmail")

	_, after := env.get(t, "/api/found-items")
	assert.Len(t, after.Items, len(before.Items))
}

func TestCreateUploadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.images.err = errors.New("cloudinary: 500")

	status, body := env.post(t, "/api/lost", map[string]string{
		"itemName":     "Phone",
		"contactName":  "Asha",
		"contactEmail": "a@x.com",
	}, &formFile{name: "p.png", contentType: "image/png", data: []byte("\x89PNG\r\n\x1a\nrest")})

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, body.Success)
	assert.Equal(t, "Image upload failed", body.Message)

	_, list := env.get(t, "/api/lost-items")
	assert.Empty(t, list.Items)
}

func TestCreateNonImageAttachment(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.post(t, "/api/lost", map[string]string{
		"itemName":     "Passport",
		"contactName":  "Asha",
		"contactEmail": "a@x.com",
	}, &formFile{name: "doc.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4")})

	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, env.images.url, body.Item["imageUrl"])
}

func TestCreateInvalidDateIsServerError(t *testing.T) {
	env := newTestEnv(t)
	env.repo.insertErr = fmt.Errorf("insert report: %w: invalid input syntax for type date", ports.ErrInvalidInput)

	status, body := env.post(t, "/api/found", map[string]string{
		"itemName":     "Umbrella",
		"date":         "yesterday",
		"contactName":  "Ravi",
		"contactEmail": "r@x.com",
	}, nil)

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, body.Success)
	assert.Equal(t, "Server error", body.Message)
}

func TestCreateURLEncodedBody(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("itemName", "Scarf")
	form.Set("contactName", "Mia")
	form.Set("contactEmail", "m@x.com")

	resp, err := http.Post(env.srv.URL+"/api/lost", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "Scarf", body.Item["itemName"])
}

func TestCreateBodyTooLarge(t *testing.T) {
	env := newTestEnv(t)

	body, ct := multipartBody(t, map[string]string{
		"itemName":     "Laptop",
		"contactName":  "Asha",
		"contactEmail": "a@x.com",
	}, &formFile{name: "huge.png", contentType: "image/png", data: make([]byte, 3<<20)})

	req := httptest.NewRequest(http.MethodPost, "/api/lost", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var out apiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.False(t, out.Success)
	assert.Equal(t, "request body too large", out.Message)

	_, list := env.get(t, "/api/lost-items")
	assert.Empty(t, list.Items)
}

func TestListNewestFirstAndEmpty(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.get(t, "/api/lost-items")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)
	assert.NotNil(t, body.Items)
	assert.Empty(t, body.Items)

	for _, name := range []string{"First", "Second"} {
		status, _ := env.post(t, "/api/lost", map[string]string{
			"itemName":     name,
			"contactName":  "Asha",
			"contactEmail": "a@x.com",
		}, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	_, body = env.get(t, "/api/lost-items")
	require.Len(t, body.Items, 2)
	assert.Equal(t, "Second", body.Items[0]["itemName"])
	assert.Equal(t, "First", body.Items[1]["itemName"])

	_, found := env.get(t, "/api/found-items")
	assert.Empty(t, found.Items)
}

func TestListStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.repo.listErr = errors.New("connection refused")

	status, body := env.get(t, "/api/found-items")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, body.Success)
	assert.Equal(t, "Server error", body.Message)
	assert.Nil(t, body.Items)
}

func TestBannerAndHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/")
	require.NoError(t, err)
	text, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "lost & found server is running", string(text))

	resp, err = http.Get(env.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	env.repo.listErr = errors.New("down")
	resp, err = http.Get(env.srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestBannerWithWebClient(t *testing.T) {
	env := newTestEnvWithWeb(t, web.Handler())

	resp, err := http.Get(env.srv.URL + "/")
	require.NoError(t, err)
	text, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "lost & found server is running", string(text))

	// /app redirects to /app/, which serves the galleries page
	resp, err = http.Get(env.srv.URL + WebPrefix)
	require.NoError(t, err)
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(page), `id="lost-gallery-container"`)

	resp, err = http.Get(env.srv.URL + WebPrefix + "/assets/home.js")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, list := env.get(t, "/api/lost-items")
	assert.NotNil(t, list.Items)
}
