package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "gradegraph/internal/errors"
	"gradegraph/pkg/contracts/domain"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "history.db") + "?_pragma=busy_timeout(5000)"
	s, err := OpenSQLStore(context.Background(), DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleUpload(id string, at time.Time) (domain.UploadSummary, domain.Report) {
	summary := domain.UploadSummary{
		ID:                   id,
		FileName:             id + ".xlsx",
		Sheet:                "Sheet1",
		UploadedAt:           at,
		TotalStudents:        2,
		Subjects:             []string{"Dbms", "Maths"},
		CategoryDistribution: map[string]int{"Bright": 1, "Weak": 1},
	}
	report := domain.Report{
		Metadata: domain.ReportMetadata{
			UploadID:      id,
			FileName:      summary.FileName,
			TotalStudents: 2,
			TotalSubjects: 2,
			Subjects:      summary.Subjects,
		},
		Statistics:           domain.ReportStatistics{StudentsWithMarks: 2, Average: 61.77, PassRate: 100},
		CategoryDistribution: summary.CategoryDistribution,
		Subjects: []domain.SubjectSummary{
			{Subject: "Maths", ExamTypes: []string{"ESE", "MSE"}, Totals: []float64{65, 40}, Average: 52.5},
		},
	}
	return summary, report
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Driver("mysql"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestOpenSQLStoreFailure(t *testing.T) {
	_, err := OpenSQLStore(context.Background(), Driver("oracle"), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestSQLStoreSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	summary, report := sampleUpload("u1", at)
	require.NoError(t, s.SaveUpload(ctx, summary, report))

	got, err := s.GetUpload(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, summary, got)

	gotReport, err := s.GetReport(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, report.Statistics, gotReport.Statistics)
	assert.Equal(t, report.Subjects, gotReport.Subjects)
	assert.Equal(t, "u1", gotReport.Metadata.UploadID)
}

func TestSQLStoreSaveReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	summary, report := sampleUpload("u1", time.Now().UTC())
	require.NoError(t, s.SaveUpload(ctx, summary, report))

	summary.FileName = "renamed.xlsx"
	summary.TotalStudents = 40
	require.NoError(t, s.SaveUpload(ctx, summary, report))

	got, err := s.GetUpload(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "renamed.xlsx", got.FileName)
	assert.Equal(t, 40, got.TotalStudents)

	all, err := s.ListUploads(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLStoreListUploads(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		summary, report := sampleUpload(fmt.Sprintf("u%d", i), base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, s.SaveUpload(ctx, summary, report))
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "all newest first", limit: 0, want: []string{"u3", "u2", "u1", "u0"}},
		{name: "limited", limit: 2, want: []string{"u3", "u2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uploads, err := s.ListUploads(ctx, tt.limit)
			require.NoError(t, err)
			ids := make([]string, len(uploads))
			for i, u := range uploads {
				ids[i] = u.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSQLStoreListEmpty(t *testing.T) {
	uploads, err := openTestStore(t).ListUploads(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, uploads)
	assert.Empty(t, uploads)
}

func TestSQLStoreNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetUpload(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	_, err = s.GetReport(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLStorePing(t *testing.T) {
	assert.NoError(t, openTestStore(t).Ping(context.Background()))
}

func TestNopHistory(t *testing.T) {
	var h History = NopHistory{}
	ctx := context.Background()

	summary, report := sampleUpload("u1", time.Now())
	require.NoError(t, h.SaveUpload(ctx, summary, report))

	uploads, err := h.ListUploads(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, uploads)

	_, err = h.GetReport(ctx, "u1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, h.Ping(ctx))
	assert.NoError(t, h.Close())
}
