package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "gradegraph/internal/errors"
	"gradegraph/internal/shared/testutil"
	api "gradegraph/pkg/contracts/api/v1"
)

func fieldErrors(t *testing.T, err error) []apierrors.ValidationError {
	t.Helper()
	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr), "got %T", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	details, ok := apiErr.Details.(apierrors.ValidationErrors)
	require.True(t, ok, "details %T", apiErr.Details)
	return details.Errors
}

func TestValidatorStruct(t *testing.T) {
	v := NewValidator(nil)
	const id = "3f2b8c1e-4d5a-4b6c-8d7e-9f0a1b2c3d4e"

	tests := []struct {
		name       string
		req        interface{}
		wantFields []string
	}{
		{
			name: "valid subject query",
			req:  &api.SubjectQuery{UploadID: id, Subject: "Maths"},
		},
		{
			name: "latest alias",
			req:  &api.SubjectQuery{UploadID: "latest", Subject: "Dbms"},
		},
		{
			name:       "bad upload id and blank subject",
			req:        &api.SubjectQuery{UploadID: "nope", Subject: "   "},
			wantFields: []string{"upload_id", "subject"},
		},
		{
			name:       "performers limit out of range",
			req:        &api.PerformersQuery{SubjectQuery: api.SubjectQuery{UploadID: id, Subject: "Os"}, Limit: 0},
			wantFields: []string{"limit"},
		},
		{
			name:       "unknown export kind",
			req:        &api.ExportRequest{UploadID: id, Kind: "pdf"},
			wantFields: []string{"kind"},
		},
		{
			name:       "unknown category",
			req:        &api.LeaderboardRequest{UploadID: id, Category: "Genius", Limit: 5},
			wantFields: []string{"category"},
		},
		{
			name:       "missing student query",
			req:        &api.StudentSearchRequest{UploadID: id},
			wantFields: []string{"query"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var fields []string
			for _, fe := range fieldErrors(t, err) {
				fields = append(fields, fe.Field)
				assert.NotEmpty(t, fe.Message)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestValidatorMessages(t *testing.T) {
	v := NewValidator(nil)
	errs := fieldErrors(t, v.Struct(&api.ExportRequest{UploadID: "latest", Kind: "pdf"}))
	require.Len(t, errs, 1)
	assert.Equal(t, "kind must be one of: full, summary, bright, report, workbook", errs[0].Message)
}

func TestValidatorVar(t *testing.T) {
	v := NewValidator(nil)
	assert.NoError(t, v.Var("limit", 5, "min=1,max=100"))

	err := v.Var("limit", 500, "min=1,max=100")
	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr))
	detail, ok := apiErr.Details.(apierrors.ValidationError)
	require.True(t, ok)
	assert.Equal(t, "limit", detail.Field)
	assert.Equal(t, "limit must be at most 100", detail.Message)
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=7&bad=x", nil)

	n, err := QueryInt(req, "limit", 5)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = QueryInt(req, "absent", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = QueryInt(req, "bad", 5)
	assert.Error(t, err)
}

func TestContentTypeValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := ContentTypeValidator(apierrors.NewErrorHandler(logger, false), "multipart/form-data")(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"multipart upload", http.MethodPost, "multipart/form-data; boundary=x", http.StatusOK},
		{"json body", http.MethodPost, "application/json", http.StatusUnsupportedMediaType},
		{"get skips check", http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/uploads", strings.NewReader(""))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
