package http

import (
	"context"
	"io"

	"gradegraph/internal/services"
	"gradegraph/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the upload and query operations the
// handler depends on.
type AnalysisServiceInterface interface {
	Upload(ctx context.Context, filename string, r io.Reader) (domain.UploadSummary, error)
	History(ctx context.Context, limit int) ([]domain.UploadSummary, error)
	Summary(ctx context.Context, uploadID string) (domain.UploadSummary, error)
	Forget(ctx context.Context, uploadID string) error

	Dashboard(ctx context.Context, uploadID string) (domain.Dashboard, error)
	Subjects(ctx context.Context, uploadID string) ([]string, error)
	SubjectExamTypes(ctx context.Context, uploadID, subject string) ([]string, error)
	SubjectMarks(ctx context.Context, uploadID, subject string) ([]domain.StudentMark, error)
	SubjectSummary(ctx context.Context, uploadID, subject string) (domain.SubjectSummary, error)
	SubjectPerformers(ctx context.Context, uploadID, subject string, limit int) (domain.SubjectPerformers, error)
	FindStudent(ctx context.Context, uploadID, query string) (domain.StudentProfile, error)
	Leaderboard(ctx context.Context, uploadID, category string, best bool, limit int) ([]domain.RankedStudent, error)
	Insights(ctx context.Context, uploadID string) (domain.Insights, error)
	Report(ctx context.Context, uploadID string) (domain.Report, error)
	Export(ctx context.Context, uploadID, kind string) (*services.ExportFile, error)
}
