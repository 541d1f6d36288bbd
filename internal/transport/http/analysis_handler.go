package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"gradegraph/internal/dataprocessing"
	apierrors "gradegraph/internal/errors"
	"gradegraph/internal/infrastructure"
	"gradegraph/internal/middleware"
	"gradegraph/internal/services"
	"gradegraph/internal/validation"
	api "gradegraph/pkg/contracts/api/v1"
)

// multipartMemory is the part of a multipart upload held in memory before
// spilling to a temporary file.
const multipartMemory = 8 << 20

const (
	defaultPerformers  = 5
	defaultLeaderboard = 10
	defaultHistory     = 20
)

type ctxKey string

const uploadIDKey ctxKey = "upload_id"

// AnalysisHandler serves the upload and analysis endpoints.
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler with RFC 7807 error handling
func NewAnalysisHandler(service AnalysisServiceInterface, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = middleware.NewValidator(logger)
	}
	return &AnalysisHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the upload routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data")).Post("/", h.Upload)
	r.Get("/", h.History)

	r.Route("/{uploadID}", func(r chi.Router) {
		r.Use(h.UploadCtx)

		r.Get("/", h.Summary)
		r.Delete("/", h.Forget)
		r.Get("/dashboard", h.Dashboard)
		r.Get("/subjects", h.Subjects)
		r.Route("/subjects/{subject}", func(r chi.Router) {
			r.Get("/exam-types", h.SubjectExamTypes)
			r.Get("/marks", h.SubjectMarks)
			r.Get("/summary", h.SubjectSummary)
			r.Get("/performers", h.SubjectPerformers)
		})
		r.Get("/students", h.FindStudent)
		r.Get("/leaderboard", h.Leaderboard)
		r.Get("/insights", h.Insights)
		r.Get("/report", h.Report)
		r.Get("/export/{kind}", h.Export)
	})

	return r
}

// UploadCtx validates the upload ID path parameter
func (h *AnalysisHandler) UploadCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := api.UploadPathRequest{UploadID: chi.URLParam(r, "uploadID")}
		if err := h.validator.Struct(req); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		ctx := r.Context()
		next.ServeHTTP(w, r.WithContext(contextWithUploadID(ctx, req.UploadID)))
	})
}

// Upload handles POST /api/uploads
func (h *AnalysisHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.rejectUpload(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.rejectUpload(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.rejectUpload(w, r, apierrors.ErrMissingFile)
		return
	}
	defer file.Close()

	if err := h.validator.Var("file", header.Filename, "filename"); err != nil {
		h.rejectUpload(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "upload received",
		slog.String("request_id", middleware.GetRequestID(ctx)),
		slog.String("file_name", header.Filename),
		slog.Int64("size", header.Size))

	summary, err := h.service.Upload(ctx, header.Filename, file)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", r.URL.Path, summary.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// History handles GET /api/uploads
func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := middleware.QueryInt(r, "limit", defaultHistory)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validator.Struct(api.HistoryRequest{Limit: limit}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	uploads, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   uploads,
		"count":  len(uploads),
	})
}

// Summary handles GET /api/uploads/{uploadID}
func (h *AnalysisHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), uploadID(r))
	h.respond(w, r, summary, err)
}

// Forget handles DELETE /api/uploads/{uploadID}
func (h *AnalysisHandler) Forget(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Forget(r.Context(), uploadID(r)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Dashboard handles GET /api/uploads/{uploadID}/dashboard
func (h *AnalysisHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context(), uploadID(r))
	h.respond(w, r, dashboard, err)
}

// Subjects handles GET /api/uploads/{uploadID}/subjects
func (h *AnalysisHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.service.Subjects(r.Context(), uploadID(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   subjects,
		"count":  len(subjects),
	})
}

// SubjectExamTypes handles GET /api/uploads/{uploadID}/subjects/{subject}/exam-types
func (h *AnalysisHandler) SubjectExamTypes(w http.ResponseWriter, r *http.Request) {
	q, ok := h.subjectQuery(w, r)
	if !ok {
		return
	}
	types, err := h.service.SubjectExamTypes(r.Context(), q.UploadID, q.Subject)
	h.respond(w, r, types, err)
}

// SubjectMarks handles GET /api/uploads/{uploadID}/subjects/{subject}/marks
func (h *AnalysisHandler) SubjectMarks(w http.ResponseWriter, r *http.Request) {
	q, ok := h.subjectQuery(w, r)
	if !ok {
		return
	}
	marks, err := h.service.SubjectMarks(r.Context(), q.UploadID, q.Subject)
	h.respond(w, r, marks, err)
}

// SubjectSummary handles GET /api/uploads/{uploadID}/subjects/{subject}/summary
func (h *AnalysisHandler) SubjectSummary(w http.ResponseWriter, r *http.Request) {
	q, ok := h.subjectQuery(w, r)
	if !ok {
		return
	}
	summary, err := h.service.SubjectSummary(r.Context(), q.UploadID, q.Subject)
	h.respond(w, r, summary, err)
}

// SubjectPerformers handles GET /api/uploads/{uploadID}/subjects/{subject}/performers
func (h *AnalysisHandler) SubjectPerformers(w http.ResponseWriter, r *http.Request) {
	limit, err := middleware.QueryInt(r, "limit", defaultPerformers)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	q := api.PerformersQuery{
		SubjectQuery: api.SubjectQuery{UploadID: uploadID(r), Subject: chi.URLParam(r, "subject")},
		Limit:        limit,
	}
	if err := h.validator.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	perf, err := h.service.SubjectPerformers(r.Context(), q.UploadID, q.Subject, q.Limit)
	h.respond(w, r, perf, err)
}

// FindStudent handles GET /api/uploads/{uploadID}/students?q=
func (h *AnalysisHandler) FindStudent(w http.ResponseWriter, r *http.Request) {
	req := api.StudentSearchRequest{UploadID: uploadID(r), Query: r.URL.Query().Get("q")}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	profile, err := h.service.FindStudent(r.Context(), req.UploadID, req.Query)
	h.respond(w, r, profile, err)
}

// Leaderboard handles GET /api/uploads/{uploadID}/leaderboard?category=&order=&limit=
func (h *AnalysisHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := middleware.QueryInt(r, "limit", defaultLeaderboard)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	query := r.URL.Query()
	req := api.LeaderboardRequest{
		UploadID: uploadID(r),
		Category: query.Get("category"),
		Order:    query.Get("order"),
		Limit:    limit,
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	best := req.Order != "worst"
	ranked, err := h.service.Leaderboard(r.Context(), req.UploadID, req.Category, best, req.Limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   ranked,
		"count":  len(ranked),
	})
}

// Insights handles GET /api/uploads/{uploadID}/insights
func (h *AnalysisHandler) Insights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.service.Insights(r.Context(), uploadID(r))
	h.respond(w, r, insights, err)
}

// Report handles GET /api/uploads/{uploadID}/report
func (h *AnalysisHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Report(r.Context(), uploadID(r))
	h.respond(w, r, report, err)
}

// Export handles GET /api/uploads/{uploadID}/export/{kind}
func (h *AnalysisHandler) Export(w http.ResponseWriter, r *http.Request) {
	req := api.ExportRequest{UploadID: uploadID(r), Kind: chi.URLParam(r, "kind")}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	file, err := h.service.Export(r.Context(), req.UploadID, req.Kind)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted",
			slog.String("file", file.Name),
			slog.String("error", err.Error()))
	}
}

func (h *AnalysisHandler) subjectQuery(w http.ResponseWriter, r *http.Request) (api.SubjectQuery, bool) {
	q := api.SubjectQuery{UploadID: uploadID(r), Subject: chi.URLParam(r, "subject")}
	if err := h.validator.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return q, false
	}
	return q, true
}

func (h *AnalysisHandler) respond(w http.ResponseWriter, r *http.Request, data interface{}, err error) {
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

// handleServiceError maps service errors to API errors.
// rejectUpload answers an upload refused before it reached the service,
// counting it as a failed upload.
func (h *AnalysisHandler) rejectUpload(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	infrastructure.RecordUploadMetrics(ctx, middleware.MetricsFromContext(ctx), max(r.ContentLength, 0), 0, 0, err)
	h.errorHandler.HandleError(w, r, err)
}

func (h *AnalysisHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	h.errorHandler.HandleError(w, r, toAPIError(err))
}

func toAPIError(err error) error {
	switch {
	case errors.Is(err, services.ErrUploadNotFound):
		return apierrors.ErrUploadNotFound
	case errors.Is(err, services.ErrNoUploads):
		return apierrors.ErrNoUploads
	case errors.Is(err, services.ErrSubjectNotFound):
		return apierrors.NotFoundError("subject")
	case errors.Is(err, services.ErrNoSubjectData):
		return apierrors.ErrNoSubjectData.WithDetails(err.Error())
	case errors.Is(err, services.ErrStudentNotFound):
		return apierrors.ErrStudentNotFound
	case errors.Is(err, services.ErrInvalidCategory):
		return apierrors.ErrValidation("category", err.Error())
	case errors.Is(err, services.ErrUnsupportedExport):
		return apierrors.ErrValidation("kind", err.Error())
	case errors.Is(err, validation.ErrFileTooLarge):
		return apierrors.ErrPayloadTooLarge
	case errors.Is(err, validation.ErrUnsupportedFile), errors.Is(err, validation.ErrNotWorkbook):
		return apierrors.ErrUnsupportedFile.WithDetails(err.Error())
	case errors.Is(err, validation.ErrEmptyFile), errors.Is(err, dataprocessing.ErrEmptyWorkbook):
		return apierrors.ErrEmptySheet.WithDetails(err.Error())
	case errors.Is(err, dataprocessing.ErrMissingIdentityColumns):
		var appErr *apierrors.AppError
		if errors.As(err, &appErr) {
			if missing, ok := appErr.Context["missing"].([]string); ok {
				return apierrors.MissingColumnsError(missing)
			}
		}
		return apierrors.ErrMissingIdentityColumn
	}
	return err
}
