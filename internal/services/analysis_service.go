package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gradegraph/internal/assessment"
	"gradegraph/internal/cache"
	"gradegraph/internal/dataprocessing"
	"gradegraph/internal/exporter"
	"gradegraph/internal/infrastructure"
	"gradegraph/internal/store"
	"gradegraph/internal/validation"
	"gradegraph/pkg/contracts/domain"
)

// LatestUpload selects the most recent upload in place of an ID.
const LatestUpload = "latest"

// AnalysisOptions tunes how uploads are parsed and retained.
type AnalysisOptions struct {
	Sheet          string
	HeaderScanRows int
	// KeepPrevious keeps earlier uploads cached; otherwise a new upload
	// replaces them.
	KeepPrevious bool
	HistoryLimit int
}

// ExportFile is a rendered export ready to be served.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// AnalysisService parses uploaded workbooks and answers queries about them.
type AnalysisService struct {
	files     *validation.FileValidator
	processor *dataprocessing.Processor
	uploads   *cache.UploadCache
	history   store.History
	exporter  *exporter.Exporter
	options   AnalysisOptions
	metrics   *infrastructure.BusinessMetrics
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
}

// NewAnalysisService wires the service. A nil history disables persistence.
func NewAnalysisService(
	files *validation.FileValidator,
	processor *dataprocessing.Processor,
	uploads *cache.UploadCache,
	history store.History,
	exp *exporter.Exporter,
	options AnalysisOptions,
	logger *slog.Logger,
) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	if history == nil {
		history = store.NopHistory{}
	}
	if options.HistoryLimit <= 0 {
		options.HistoryLimit = 50
	}

	logger = infrastructure.WithComponent(logger, "analysis_service")
	logger.Info("AnalysisService initialized",
		slog.Bool("keep_previous", options.KeepPrevious),
		slog.String("sheet", options.Sheet),
		slog.Int("history_limit", options.HistoryLimit))

	return &AnalysisService{
		files:     files,
		processor: processor,
		uploads:   uploads,
		history:   history,
		exporter:  exp,
		options:   options,
		tracer:    otel.Tracer("gradegraph/services"),
		logger:    logger,
		now:       time.Now,
	}
}

// SetMetrics enables business metric recording.
func (s *AnalysisService) SetMetrics(m *infrastructure.BusinessMetrics) {
	s.metrics = m
}

// Upload validates, parses and classifies a workbook, caches the result and
// records it in history.
func (s *AnalysisService) Upload(ctx context.Context, filename string, r io.Reader) (summary domain.UploadSummary, err error) {
	ctx, span := s.tracer.Start(ctx, "analysis.upload",
		trace.WithAttributes(attribute.String("upload.file_name", filename)))
	defer span.End()

	start := s.now()
	var size int64
	defer func() {
		infrastructure.RecordUploadMetrics(ctx, s.metrics, size, summary.TotalStudents, time.Since(start), err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
		}
	}()

	data, err := s.files.ReadUpload(filename, r)
	if err != nil {
		return domain.UploadSummary{}, err
	}
	size = int64(len(data))

	sheet, err := dataprocessing.ParseReader(bytes.NewReader(data), dataprocessing.ParseOptions{
		Sheet:          s.options.Sheet,
		HeaderScanRows: s.options.HeaderScanRows,
		Logger:         s.logger,
	})
	if err != nil {
		return domain.UploadSummary{}, err
	}

	result, err := s.processor.Process(ctx, sheet.Table)
	if err != nil {
		return domain.UploadSummary{}, fmt.Errorf("failed to classify %s: %w", filename, err)
	}

	summary = domain.UploadSummary{
		ID:                   uuid.New().String(),
		FileName:             filepath.Base(filename),
		Sheet:                sheet.Sheet,
		UploadedAt:           s.now().UTC(),
		TotalStudents:        result.StudentCount(),
		Subjects:             result.Subjects,
		CategoryDistribution: result.CategoryDistribution(),
	}
	upload := &cache.Upload{Summary: summary, Result: result}

	if s.options.KeepPrevious {
		s.uploads.Set(upload)
	} else {
		s.uploads.Replace(upload)
	}

	logger := infrastructure.WithUpload(s.logger, summary.ID)
	if err := s.history.SaveUpload(ctx, summary, s.buildReport(upload)); err != nil {
		logger.WarnContext(ctx, "upload history not saved", slog.String("error", err.Error()))
	}

	infrastructure.RecordCategoryCounts(ctx, s.metrics, summary.CategoryDistribution)
	span.SetAttributes(
		attribute.String("upload.id", summary.ID),
		attribute.Int("upload.students", summary.TotalStudents),
		attribute.Int("upload.subjects", len(summary.Subjects)),
	)
	logger.InfoContext(ctx, "upload analyzed",
		slog.String("file_name", summary.FileName),
		slog.String("sheet", summary.Sheet),
		slog.Int("students", summary.TotalStudents),
		slog.Int("subjects", len(summary.Subjects)),
		slog.Duration("duration", time.Since(start)))

	return summary, nil
}

// resolve finds a cached upload. "latest" selects the most recent one.
func (s *AnalysisService) resolve(ctx context.Context, uploadID string) (*cache.Upload, error) {
	var (
		upload *cache.Upload
		ok     bool
	)
	if uploadID == "" || strings.EqualFold(uploadID, LatestUpload) {
		upload, ok = s.uploads.Latest()
		infrastructure.RecordCacheLookup(ctx, s.metrics, ok)
		if !ok {
			return nil, ErrNoUploads
		}
		return upload, nil
	}

	upload, ok = s.uploads.Get(uploadID)
	infrastructure.RecordCacheLookup(ctx, s.metrics, ok)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUploadNotFound, uploadID)
	}
	return upload, nil
}

// Summary returns the upload summary of a cached upload.
func (s *AnalysisService) Summary(ctx context.Context, uploadID string) (domain.UploadSummary, error) {
	upload, err := s.resolve(ctx, uploadID)
	if err != nil {
		return domain.UploadSummary{}, err
	}
	return upload.Summary, nil
}

// Dashboard returns the overview of an upload.
func (s *AnalysisService) Dashboard(ctx context.Context, uploadID string) (domain.Dashboard, error) {
	upload, err := s.resolve(ctx, uploadID)
	if err != nil {
		return domain.Dashboard{}, err
	}
	d := dataprocessing.BuildDashboard(upload.Result)
	d.UploadID = upload.Summary.ID
	d.FileName = upload.Summary.FileName
	return d, nil
}

// Subjects lists the subjects found in an upload.
func (s *AnalysisService) Subjects(ctx context.Context, uploadID string) ([]string, error) {
	upload, err := s.resolve(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	return upload.Result.Subjects, nil
}

// subject resolves a subject name case-insensitively against the upload.
func subject(upload *cache.Upload, name string) (string, error) {
	name = strings.TrimSpace(name)
	for _, s := range upload.Result.Subjects {
		if strings.EqualFold(s, name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrSubjectNotFound, name)
}

// SubjectExamTypes lists the assessment types recorded for a subject.
func (s *AnalysisService) SubjectExamTypes(ctx context.Context, uploadID, name string) ([]string, error) {
	upload, err := s.resolve(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	subj, err := subject(upload, name)
	if err != nil {
		return nil, err
	}
	types := assessment.ExamTypes(upload.Result.Full, subj)
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out, nil
}

// SubjectMarks pairs every student with their MSE+ESE total for a subject.
func (s *AnalysisService) SubjectMarks(ctx context.Context, uploadID, name string) ([]domain.StudentMark, error) {
	upload, err := s.resolve(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	subj, err := subject(upload, name)
	if err != nil {
		return nil, err
	}
	marks, ok := dataprocessing.SubjectMarkList(upload.Result, subj)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSubjectData, subj)
	}
	return marks, nil
}

// SubjectSummary describes the distribution of a subject's totals.
func (s *AnalysisService) SubjectSummary(ctx context.Context, uploadID, name string) (domain.SubjectSummary, error) {
	upload, err := s.resolve(ctx, uploadID)
	if err != nil {
		return domain.SubjectSummary{}, err
	}
	subj, err := subject(upload, name)
	if err != nil {
		return domain.SubjectSummary{}, err
	}
	summary, ok := dataprocessing.SubjectSummary(upload.Result, subj)
	if !ok {
		return domain.SubjectSummary{}, fmt.Errorf("%w: %s", ErrNoSubjectData, subj)
	}
	return summary, nil
}

// SubjectPerformers returns the limit best and worst students of a subject.
func (s *AnalysisService) SubjectPerformers(ctx context.Context, uploadID, name string, limit int) (domain.SubjectPerformers, error) {
	upload, err := s.resolve(ctx, uploadID)
	if err != nil {
		return domain.SubjectPerformers{}, err
	}
	subj, err := subject(upload, name)
	if err != nil {
		return domain.SubjectPerformers{}, err
	}
	if limit <= 0 {
		limit = dataprocessing.DefaultLeaderboardSize
	}
	perf, ok := dataprocessing.SubjectPerformers(upload.Result, subj, limit)
	if !ok {
		return domain.SubjectPerformers{}, fmt.Errorf("%w: %s", ErrNoSubjectData, subj)
	}
	return perf, nil
}

// FindStudent looks a student up by SR.No, Roll No or name.
func (s *AnalysisService) FindStudent(ctx context.Context, uploadID, query string) (domain.StudentProfile, error) {
	upload, err := s.resolve(ctx, uploadID)
	if err != nil {
		return domain.StudentProfile{}, err
	}
	profile, ok := dataprocessing.FindStudent(upload.Result, query)
	if !ok {
		return domain.StudentProfile{}, fmt.Errorf("%w: %q", ErrStudentNotFound, query)
	}
	return profile, nil
}

// Leaderboard ranks the students of one category. An empty category means
// Bright when best is set and Weak otherwise.
func (s *AnalysisService) Leaderboard(ctx context.Context, uploadID, category string, best bool, limit int) ([]domain.RankedStudent, error) {
	cat, err := parseCategory(category, best)
	if err != nil {
		return nil, err
	}
	upload, err := s.resolve(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	return dataprocessing.Leaderboard(upload.Result, cat, best, limit), nil
}

func parseCategory(s string, best bool) (assessment.Category, error) {
	if strings.TrimSpace(s) == "" {
		if best {
			return assessment.Bright, nil
		}
		return assessment.Weak, nil
	}
	for _, c := range []assessment.Category{assessment.Bright, assessment.Average, assessment.Weak, assessment.Unknown} {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Insights returns subject difficulty and recommendations.
func (s *AnalysisService) Insights(ctx context.Context, uploadID string) (domain.Insights, error) {
	upload, err := s.resolve(ctx, uploadID)
	if err != nil {
		return domain.Insights{}, err
	}
	return dataprocessing.BuildInsights(upload.Result), nil
}

// Report returns the comprehensive report of an upload. Uploads that have
// left the cache are served from history.
func (s *AnalysisService) Report(ctx context.Context, uploadID string) (domain.Report, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.report",
		trace.WithAttributes(attribute.String("upload.id", uploadID)))
	defer span.End()

	upload, err := s.resolve(ctx, uploadID)
	if err == nil {
		return s.buildReport(upload), nil
	}
	if !errors.Is(err, ErrUploadNotFound) {
		return domain.Report{}, err
	}

	report, herr := s.history.GetReport(ctx, uploadID)
	if herr != nil {
		if errors.Is(herr, store.ErrNotFound) {
			return domain.Report{}, err
		}
		infrastructure.RecordError(ctx, herr)
		return domain.Report{}, fmt.Errorf("failed to load report %s: %w", uploadID, herr)
	}
	span.AddEvent("report.from_history")
	return report, nil
}

func (s *AnalysisService) buildReport(upload *cache.Upload) domain.Report {
	report := dataprocessing.BuildReport(upload.Result)
	report.Metadata.UploadID = upload.Summary.ID
	report.Metadata.FileName = upload.Summary.FileName
	report.Metadata.GeneratedAt = s.now().UTC()
	return report
}

// Export renders one downloadable artifact of an upload.
func (s *AnalysisService) Export(ctx context.Context, uploadID, kind string) (*ExportFile, error) {
	k, err := exporter.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExport, kind)
	}

	ctx, span := s.tracer.Start(ctx, "analysis.export",
		trace.WithAttributes(attribute.String("export.kind", string(k))))
	defer span.End()

	upload, err := s.resolve(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	content := exporter.Content{
		Full:    upload.Result.Full,
		Summary: upload.Result.Summary,
	}
	switch k {
	case exporter.KindBright:
		content.Bright = dataprocessing.BuildDashboard(upload.Result).BrightLearners
	case exporter.KindReport:
		content.Report = s.buildReport(upload)
	}

	var buf bytes.Buffer
	if err := s.exporter.Write(&buf, k, content); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to export %s: %w", k, err)
	}

	infrastructure.RecordExport(ctx, s.metrics, string(k))
	s.logger.InfoContext(ctx, "export rendered",
		slog.String("upload_id", upload.Summary.ID),
		slog.String("kind", string(k)),
		slog.Int("bytes", buf.Len()))

	return &ExportFile{
		Name:        s.exporter.FileName(k, upload.Summary.ID, s.now()),
		ContentType: k.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}

// History lists persisted uploads, newest first.
func (s *AnalysisService) History(ctx context.Context, limit int) ([]domain.UploadSummary, error) {
	if limit <= 0 || limit > s.options.HistoryLimit {
		limit = s.options.HistoryLimit
	}
	uploads, err := s.history.ListUploads(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	if uploads == nil {
		uploads = []domain.UploadSummary{}
	}
	return uploads, nil
}

// Forget drops an upload from the cache.
func (s *AnalysisService) Forget(ctx context.Context, uploadID string) error {
	upload, err := s.resolve(ctx, uploadID)
	if err != nil {
		return err
	}
	s.uploads.Invalidate(upload.Summary.ID)
	s.logger.InfoContext(ctx, "upload evicted", slog.String("upload_id", upload.Summary.ID))
	return nil
}
