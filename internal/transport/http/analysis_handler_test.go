package http

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gradegraph/internal/assessment"
	"gradegraph/internal/dataprocessing"
	apierrors "gradegraph/internal/errors"
	"gradegraph/internal/services"
	"gradegraph/internal/shared/testutil"
	"gradegraph/internal/validation"
	"gradegraph/pkg/contracts/domain"
)

const testUploadID = "4c7a1d8e-2f0b-4b8e-9a57-1e2d3c4b5a69"

// MockAnalysisService is a mock implementation of AnalysisServiceInterface
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Upload(ctx context.Context, filename string, r io.Reader) (domain.UploadSummary, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(filename, data)
	return args.Get(0).(domain.UploadSummary), args.Error(1)
}

func (m *MockAnalysisService) History(ctx context.Context, limit int) ([]domain.UploadSummary, error) {
	args := m.Called(limit)
	uploads, _ := args.Get(0).([]domain.UploadSummary)
	return uploads, args.Error(1)
}

func (m *MockAnalysisService) Summary(ctx context.Context, uploadID string) (domain.UploadSummary, error) {
	args := m.Called(uploadID)
	return args.Get(0).(domain.UploadSummary), args.Error(1)
}

func (m *MockAnalysisService) Forget(ctx context.Context, uploadID string) error {
	return m.Called(uploadID).Error(0)
}

func (m *MockAnalysisService) Dashboard(ctx context.Context, uploadID string) (domain.Dashboard, error) {
	args := m.Called(uploadID)
	return args.Get(0).(domain.Dashboard), args.Error(1)
}

func (m *MockAnalysisService) Subjects(ctx context.Context, uploadID string) ([]string, error) {
	args := m.Called(uploadID)
	subjects, _ := args.Get(0).([]string)
	return subjects, args.Error(1)
}

func (m *MockAnalysisService) SubjectExamTypes(ctx context.Context, uploadID, subject string) ([]string, error) {
	args := m.Called(uploadID, subject)
	types, _ := args.Get(0).([]string)
	return types, args.Error(1)
}

func (m *MockAnalysisService) SubjectMarks(ctx context.Context, uploadID, subject string) ([]domain.StudentMark, error) {
	args := m.Called(uploadID, subject)
	marks, _ := args.Get(0).([]domain.StudentMark)
	return marks, args.Error(1)
}

func (m *MockAnalysisService) SubjectSummary(ctx context.Context, uploadID, subject string) (domain.SubjectSummary, error) {
	args := m.Called(uploadID, subject)
	return args.Get(0).(domain.SubjectSummary), args.Error(1)
}

func (m *MockAnalysisService) SubjectPerformers(ctx context.Context, uploadID, subject string, limit int) (domain.SubjectPerformers, error) {
	args := m.Called(uploadID, subject, limit)
	return args.Get(0).(domain.SubjectPerformers), args.Error(1)
}

func (m *MockAnalysisService) FindStudent(ctx context.Context, uploadID, query string) (domain.StudentProfile, error) {
	args := m.Called(uploadID, query)
	return args.Get(0).(domain.StudentProfile), args.Error(1)
}

func (m *MockAnalysisService) Leaderboard(ctx context.Context, uploadID, category string, best bool, limit int) ([]domain.RankedStudent, error) {
	args := m.Called(uploadID, category, best, limit)
	ranked, _ := args.Get(0).([]domain.RankedStudent)
	return ranked, args.Error(1)
}

func (m *MockAnalysisService) Insights(ctx context.Context, uploadID string) (domain.Insights, error) {
	args := m.Called(uploadID)
	return args.Get(0).(domain.Insights), args.Error(1)
}

func (m *MockAnalysisService) Report(ctx context.Context, uploadID string) (domain.Report, error) {
	args := m.Called(uploadID)
	return args.Get(0).(domain.Report), args.Error(1)
}

func (m *MockAnalysisService) Export(ctx context.Context, uploadID, kind string) (*services.ExportFile, error) {
	args := m.Called(uploadID, kind)
	file, _ := args.Get(0).(*services.ExportFile)
	return file, args.Error(1)
}

func newTestServer(t *testing.T, svc *MockAnalysisService) *httptest.Server {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	handler := NewAnalysisHandler(svc, nil, logger, apierrors.NewErrorHandler(logger, false))
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAnalysisHandler_Upload(t *testing.T) {
	data := []byte("PK\x03\x04workbook")

	tests := []struct {
		name           string
		field          string
		filename       string
		setupMock      func(*MockAnalysisService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "successful upload",
			field:    "file",
			filename: "class.xlsx",
			setupMock: func(m *MockAnalysisService) {
				m.On("Upload", "class.xlsx", data).Return(domain.UploadSummary{
					ID: testUploadID, FileName: "class.xlsx", TotalStudents: 5,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   testUploadID,
		},
		{
			name:           "missing file field",
			field:          "document",
			filename:       "class.xlsx",
			setupMock:      func(*MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"MISSING_FILE"`,
		},
		{
			name:     "unsupported extension",
			field:    "file",
			filename: "class.csv",
			setupMock: func(m *MockAnalysisService) {
				m.On("Upload", "class.csv", data).Return(domain.UploadSummary{},
					apperr(validation.ErrUnsupportedFile))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"UNSUPPORTED_FILE"`,
		},
		{
			name:     "too large",
			field:    "file",
			filename: "class.xlsx",
			setupMock: func(m *MockAnalysisService) {
				m.On("Upload", "class.xlsx", data).Return(domain.UploadSummary{},
					apperr(validation.ErrFileTooLarge))
			},
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedBody:   `"PAYLOAD_TOO_LARGE"`,
		},
		{
			name:     "missing identity columns",
			field:    "file",
			filename: "class.xlsx",
			setupMock: func(m *MockAnalysisService) {
				err := apierrors.NewAppValidationError("missing required identity columns",
					dataprocessing.ErrMissingIdentityColumns).
					WithContext("missing", []string{assessment.ColName})
				m.On("Upload", "class.xlsx", data).Return(domain.UploadSummary{}, err)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"MISSING_IDENTITY_COLUMNS"`,
		},
		{
			name:     "unreadable workbook",
			field:    "file",
			filename: "class.xlsx",
			setupMock: func(m *MockAnalysisService) {
				m.On("Upload", "class.xlsx", data).Return(domain.UploadSummary{},
					apierrors.NewParsingError("failed to open workbook", errors.New("zip: not a valid zip file")))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"PARSING"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			tt.setupMock(svc)
			srv := newTestServer(t, svc)

			body, contentType := multipartBody(t, tt.field, tt.filename, data)
			resp, err := http.Post(srv.URL+"/", contentType, body)
			require.NoError(t, err)
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode, string(raw))
			assert.Contains(t, string(raw), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func apperr(sentinel error) error {
	return apierrors.NewAppValidationError("upload rejected", sentinel)
}

func TestAnalysisHandler_UploadRequiresMultipart(t *testing.T) {
	svc := new(MockAnalysisService)
	srv := newTestServer(t, svc)

	resp, err := http.Post(srv.URL+"/", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestAnalysisHandler_History(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("History", 20).Return([]domain.UploadSummary{{ID: testUploadID}}, nil)
	svc.On("History", 5).Return([]domain.UploadSummary{}, nil)
	srv := newTestServer(t, svc)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(1), body["count"])

	resp, err = http.Get(srv.URL + "/?limit=5")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, q := range []string{"?limit=abc", "?limit=0", "?limit=1000"} {
		resp, err = http.Get(srv.URL + "/" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_UploadIDValidation(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Dashboard", "latest").Return(domain.Dashboard{UploadID: testUploadID}, nil)
	svc.On("Dashboard", testUploadID).Return(domain.Dashboard{UploadID: testUploadID}, nil)
	srv := newTestServer(t, svc)

	tests := []struct {
		id     string
		status int
	}{
		{"latest", http.StatusOK},
		{testUploadID, http.StatusOK},
		{"not-a-uuid", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, err := http.Get(fmt.Sprintf("%s/%s/dashboard", srv.URL, tt.id))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tt.status, resp.StatusCode, tt.id)
	}
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_Queries(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setupMock      func(*MockAnalysisService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "summary",
			path: "/latest",
			setupMock: func(m *MockAnalysisService) {
				m.On("Summary", "latest").Return(domain.UploadSummary{ID: testUploadID, FileName: "class.xlsx"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"file_name":"class.xlsx"`,
		},
		{
			name: "no uploads yet",
			path: "/latest/dashboard",
			setupMock: func(m *MockAnalysisService) {
				m.On("Dashboard", "latest").Return(domain.Dashboard{}, services.ErrNoUploads)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"UPLOAD_NOT_FOUND"`,
		},
		{
			name: "expired upload",
			path: "/" + testUploadID + "/insights",
			setupMock: func(m *MockAnalysisService) {
				m.On("Insights", testUploadID).Return(domain.Insights{},
					fmt.Errorf("%w: %s", services.ErrUploadNotFound, testUploadID))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"UPLOAD_NOT_FOUND"`,
		},
		{
			name: "subjects",
			path: "/latest/subjects",
			setupMock: func(m *MockAnalysisService) {
				m.On("Subjects", "latest").Return([]string{"Dbms", "Maths"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"count":2`,
		},
		{
			name: "exam types",
			path: "/latest/subjects/Maths/exam-types",
			setupMock: func(m *MockAnalysisService) {
				m.On("SubjectExamTypes", "latest", "Maths").Return([]string{"ESE", "MSE"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `["ESE","MSE"]`,
		},
		{
			name: "unknown subject",
			path: "/latest/subjects/History/marks",
			setupMock: func(m *MockAnalysisService) {
				m.On("SubjectMarks", "latest", "History").Return(nil, services.ErrSubjectNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"NOT_FOUND"`,
		},
		{
			name: "subject without exam data",
			path: "/latest/subjects/Os/summary",
			setupMock: func(m *MockAnalysisService) {
				m.On("SubjectSummary", "latest", "Os").Return(domain.SubjectSummary{}, services.ErrNoSubjectData)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"NO_SUBJECT_DATA"`,
		},
		{
			name: "performers default limit",
			path: "/latest/subjects/Maths/performers",
			setupMock: func(m *MockAnalysisService) {
				m.On("SubjectPerformers", "latest", "Maths", 5).Return(domain.SubjectPerformers{Subject: "Maths"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"subject":"Maths"`,
		},
		{
			name:           "performers limit out of range",
			path:           "/latest/subjects/Maths/performers?limit=101",
			setupMock:      func(*MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name: "student found",
			path: "/latest/students?q=R03",
			setupMock: func(m *MockAnalysisService) {
				m.On("FindStudent", "latest", "R03").Return(domain.StudentProfile{
					Student: domain.Student{SRNo: "3", Name: "Meera Nair"},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `Meera Nair`,
		},
		{
			name:           "student query required",
			path:           "/latest/students",
			setupMock:      func(*MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `query is required`,
		},
		{
			name: "student not found",
			path: "/latest/students?q=Zed",
			setupMock: func(m *MockAnalysisService) {
				m.On("FindStudent", "latest", "Zed").Return(domain.StudentProfile{}, services.ErrStudentNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"STUDENT_NOT_FOUND"`,
		},
		{
			name: "leaderboard worst weak",
			path: "/latest/leaderboard?category=Weak&order=worst&limit=3",
			setupMock: func(m *MockAnalysisService) {
				m.On("Leaderboard", "latest", "Weak", false, 3).Return([]domain.RankedStudent{{Rank: 1, Name: "Meera Nair"}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"count":1`,
		},
		{
			name:           "leaderboard bad category",
			path:           "/latest/leaderboard?category=Genius",
			setupMock:      func(*MockAnalysisService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `category must be one of`,
		},
		{
			name: "report",
			path: "/latest/report",
			setupMock: func(m *MockAnalysisService) {
				report := domain.Report{}
				report.Metadata.UploadID = testUploadID
				m.On("Report", "latest").Return(report, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   testUploadID,
		},
		{
			name: "internal error",
			path: "/latest/report",
			setupMock: func(m *MockAnalysisService) {
				m.On("Report", "latest").Return(domain.Report{}, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"Internal Server Error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAnalysisService)
			tt.setupMock(svc)
			srv := newTestServer(t, svc)

			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedStatus, resp.StatusCode, string(raw))
			assert.Contains(t, string(raw), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestAnalysisHandler_Forget(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Forget", testUploadID).Return(nil)
	srv := newTestServer(t, svc)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/"+testUploadID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestAnalysisHandler_Export(t *testing.T) {
	svc := new(MockAnalysisService)
	svc.On("Export", "latest", "summary").Return(&services.ExportFile{
		Name:        "summary_4c7a1d8e_20260314_093000.csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte("SR.No,Name\n1,Asha\n"),
	}, nil)
	srv := newTestServer(t, svc)

	resp, err := http.Get(srv.URL + "/latest/export/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="summary_4c7a1d8e_20260314_093000.csv"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "SR.No,Name\n1,Asha\n", string(raw))

	resp, err = http.Get(srv.URL + "/latest/export/pdf")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	svc.AssertExpectations(t)
}

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"empty workbook", dataprocessing.ErrEmptyWorkbook, "UNPROCESSABLE_ENTITY"},
		{"empty file", validation.ErrEmptyFile, "UNPROCESSABLE_ENTITY"},
		{"not a workbook", validation.ErrNotWorkbook, "UNSUPPORTED_FILE"},
		{"invalid category", services.ErrInvalidCategory, "VALIDATION_FAILED"},
		{"unsupported export", services.ErrUnsupportedExport, "VALIDATION_FAILED"},
		{"bare identity error", dataprocessing.ErrMissingIdentityColumns, "MISSING_IDENTITY_COLUMNS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *apierrors.APIError
			require.True(t, errors.As(toAPIError(tt.err), &apiErr))
			assert.Equal(t, tt.code, apiErr.ErrorCode)
		})
	}

	plain := errors.New("boom")
	assert.Equal(t, plain, toAPIError(plain))
}
