package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradegraph/internal/config"
	"gradegraph/internal/shared/testutil"
	"gradegraph/internal/store"
)

func testConfig(t *testing.T) (*config.Config, *config.Paths) {
	t.Helper()
	cfg := config.Default()
	cfg.Telemetry.MetricExporter = "none"
	cfg.Telemetry.EnableMetrics = false
	cfg.Security.RateLimit.Enabled = false
	cfg.Upload.MaxSizeMB = 1
	return cfg, config.PathsFrom(t.TempDir(), cfg.Paths)
}

func newTestApp(t *testing.T, cfg *config.Config, paths *config.Paths) (*Application, *httptest.Server) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	app, err := New(cfg, paths, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		srv.Close()
		_ = app.Stop(context.Background())
	})
	return app, srv
}

func uploadWorkbook(t *testing.T, url, filename string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+"/api/uploads", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, url string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestNewWiresComponents(t *testing.T) {
	cfg, paths := testConfig(t)
	app, _ := newTestApp(t, cfg, paths)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.Equal(t, cfg.Address(), app.Server.Addr)
	assert.NotNil(t, app.Services.Analysis)
	assert.NotNil(t, app.Services.Health)
	assert.IsType(t, store.NopHistory{}, app.History)
	assert.DirExists(t, paths.ExportsDir)
}

func TestEndToEndAnalysis(t *testing.T) {
	cfg, paths := testConfig(t)
	cfg.Store.Enabled = true
	app, srv := newTestApp(t, cfg, paths)
	require.IsType(t, &store.SQLStore{}, app.History)

	data := testutil.WorkbookBytes(t, testutil.ClassHeaders, testutil.ClassRows)
	resp := uploadWorkbook(t, srv.URL, "class.xlsx", data)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Status string `json:"status"`
		Data   struct {
			ID            string `json:"id"`
			TotalStudents int    `json:"total_students"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "success", created.Status)
	assert.Equal(t, 5, created.Data.TotalStudents)
	id := created.Data.ID

	status, body := getJSON(t, fmt.Sprintf("%s/api/uploads/%s/dashboard", srv.URL, id))
	assert.Equal(t, http.StatusOK, status)
	dashboard := body["data"].(map[string]interface{})
	assert.Equal(t, id, dashboard["upload_id"])

	status, body = getJSON(t, srv.URL+"/api/uploads/latest/subjects")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"Dbms", "Maths", "Os"}, body["data"])

	status, _ = getJSON(t, srv.URL+"/api/uploads/latest/students?q=khan")
	assert.Equal(t, http.StatusOK, status)

	status, body = getJSON(t, srv.URL+"/api/uploads")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	exportResp, err := http.Get(srv.URL + "/api/uploads/latest/export/summary")
	require.NoError(t, err)
	defer exportResp.Body.Close()
	csv, err := io.ReadAll(exportResp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, exportResp.StatusCode)
	assert.Contains(t, exportResp.Header.Get("Content-Disposition"), "attachment")
	assert.Contains(t, string(csv), "Asha Patil")
}

func TestUploadErrors(t *testing.T) {
	cfg, paths := testConfig(t)
	_, srv := newTestApp(t, cfg, paths)

	tests := []struct {
		name     string
		filename string
		data     []byte
		status   int
	}{
		{"wrong extension", "class.txt", []byte("hello"), http.StatusBadRequest},
		{"not a workbook", "class.xlsx", []byte("hello"), http.StatusBadRequest},
		{"too large", "class.xlsx", bytes.Repeat([]byte("x"), 3<<20), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := uploadWorkbook(t, srv.URL, tt.filename, tt.data)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), "json")
		})
	}
}

func TestNoUploadYet(t *testing.T) {
	cfg, paths := testConfig(t)
	_, srv := newTestApp(t, cfg, paths)

	status, body := getJSON(t, srv.URL+"/api/uploads/latest/dashboard")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "UPLOAD_NOT_FOUND", body["error_code"])
}

func TestRouting(t *testing.T) {
	cfg, paths := testConfig(t)
	_, srv := newTestApp(t, cfg, paths)

	status, body := getJSON(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	status, body = getJSON(t, srv.URL+"/api/health/ready")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, body = getJSON(t, srv.URL+"/does-not-exist")
	assert.Equal(t, http.StatusNotFound, status)
	assert.EqualValues(t, http.StatusNotFound, body["status"])

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestMetricsEndpoint(t *testing.T) {
	cfg, paths := testConfig(t)
	cfg.Telemetry.EnableMetrics = true
	cfg.Telemetry.MetricExporter = "prometheus"
	_, srv := newTestApp(t, cfg, paths)

	_, _ = getJSON(t, srv.URL+"/health")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestRateLimit(t *testing.T) {
	cfg, paths := testConfig(t)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	_, srv := newTestApp(t, cfg, paths)

	first, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	first.Body.Close()
	second, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	second.Body.Close()

	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, "1", second.Header.Get("Retry-After"))
}

func TestStopIsSafeWithoutStart(t *testing.T) {
	cfg, paths := testConfig(t)
	logger, _ := testutil.NewTestLogger(t)
	app, err := New(cfg, paths, logger)
	require.NoError(t, err)
	assert.NoError(t, app.Stop(context.Background()))
}

func TestStartupHealthCheck(t *testing.T) {
	cfg, paths := testConfig(t)
	app, _ := newTestApp(t, cfg, paths)
	assert.NoError(t, app.performStartupHealthCheck(context.Background()))

	app.Paths = &config.Paths{DataDir: "/nonexistent/gradegraph", ExportsDir: paths.ExportsDir, LogsDir: paths.LogsDir}
	err := app.performStartupHealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Data directory not writable")
}
