package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	apperrors "gradegraph/internal/errors"
	"gradegraph/pkg/contracts/domain"
)

// ErrNotFound is wrapped when an upload is not in the history.
var ErrNotFound = errors.New("upload not found")

// History persists analyzed uploads and their reports.
type History interface {
	SaveUpload(ctx context.Context, summary domain.UploadSummary, report domain.Report) error
	ListUploads(ctx context.Context, limit int) ([]domain.UploadSummary, error)
	GetUpload(ctx context.Context, id string) (domain.UploadSummary, error)
	GetReport(ctx context.Context, id string) (domain.Report, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ History = (*SQLStore)(nil)
	_ History = NopHistory{}
)

// SQLStore is a History backed by database/sql. Queries use $n
// placeholders, which both drivers accept.
type SQLStore struct {
	db     *sql.DB
	driver Driver
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sql.DB, driver Driver) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// OpenSQLStore opens the database and returns a store over it.
func OpenSQLStore(ctx context.Context, driver Driver, dsn string) (*SQLStore, error) {
	db, err := Open(ctx, driver, dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open upload history", err).
			WithContext("driver", string(driver))
	}
	return NewSQLStore(db, driver), nil
}

// SaveUpload stores an upload summary with its report, replacing any
// previous row of the same ID.
func (s *SQLStore) SaveUpload(ctx context.Context, summary domain.UploadSummary, report domain.Report) error {
	subjects, err := json.Marshal(summary.Subjects)
	if err != nil {
		return apperrors.NewStorageError("failed to encode subjects", err)
	}
	dist, err := json.Marshal(summary.CategoryDistribution)
	if err != nil {
		return apperrors.NewStorageError("failed to encode category distribution", err)
	}
	rep, err := json.Marshal(report)
	if err != nil {
		return apperrors.NewStorageError("failed to encode report", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO uploads
		(id,file_name,sheet,uploaded_at,total_students,subjects_json,distribution_json,report_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET file_name=EXCLUDED.file_name, sheet=EXCLUDED.sheet,
		uploaded_at=EXCLUDED.uploaded_at, total_students=EXCLUDED.total_students,
		subjects_json=EXCLUDED.subjects_json, distribution_json=EXCLUDED.distribution_json,
		report_json=EXCLUDED.report_json`,
		summary.ID, summary.FileName, summary.Sheet, summary.UploadedAt.UnixMilli(),
		summary.TotalStudents, string(subjects), string(dist), string(rep))
	if err != nil {
		return apperrors.NewStorageError("failed to save upload", err).WithContext("upload_id", summary.ID)
	}
	return nil
}

// ListUploads returns the newest uploads first. limit <= 0 returns all.
func (s *SQLStore) ListUploads(ctx context.Context, limit int) ([]domain.UploadSummary, error) {
	query := `SELECT id,file_name,sheet,uploaded_at,total_students,subjects_json,distribution_json
		FROM uploads ORDER BY uploaded_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to list uploads", err)
	}
	defer rows.Close()

	uploads := []domain.UploadSummary{}
	for rows.Next() {
		u, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to list uploads", err)
	}
	return uploads, nil
}

// GetUpload returns one upload summary.
func (s *SQLStore) GetUpload(ctx context.Context, id string) (domain.UploadSummary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,file_name,sheet,uploaded_at,total_students,subjects_json,distribution_json
		FROM uploads WHERE id=$1`, id)
	u, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UploadSummary{}, notFound(id)
		}
		return domain.UploadSummary{}, err
	}
	return u, nil
}

// GetReport returns the report saved with an upload.
func (s *SQLStore) GetReport(ctx context.Context, id string) (domain.Report, error) {
	var rep string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM uploads WHERE id=$1`, id).Scan(&rep)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Report{}, notFound(id)
		}
		return domain.Report{}, apperrors.NewStorageError("failed to load report", err).WithContext("upload_id", id)
	}

	var report domain.Report
	if err := json.Unmarshal([]byte(rep), &report); err != nil {
		return domain.Report{}, apperrors.NewStorageError("failed to decode report", err).WithContext("upload_id", id)
	}
	return report, nil
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(sc scanner) (domain.UploadSummary, error) {
	var (
		u          domain.UploadSummary
		uploadedAt int64
		subjects   string
		dist       string
	)
	if err := sc.Scan(&u.ID, &u.FileName, &u.Sheet, &uploadedAt, &u.TotalStudents, &subjects, &dist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, err
		}
		return u, apperrors.NewStorageError("failed to read upload", err)
	}
	u.UploadedAt = time.UnixMilli(uploadedAt).UTC()
	if err := json.Unmarshal([]byte(subjects), &u.Subjects); err != nil {
		return u, apperrors.NewStorageError("failed to decode subjects", err).WithContext("upload_id", u.ID)
	}
	if err := json.Unmarshal([]byte(dist), &u.CategoryDistribution); err != nil {
		return u, apperrors.NewStorageError("failed to decode category distribution", err).WithContext("upload_id", u.ID)
	}
	return u, nil
}

func notFound(id string) error {
	return apperrors.NewAppError(apperrors.ErrTypeNotFound, "upload not found", ErrNotFound).WithContext("upload_id", id)
}

// NopHistory is used when persistence is disabled. Writes are dropped and
// lookups find nothing.
type NopHistory struct{}

func (NopHistory) SaveUpload(context.Context, domain.UploadSummary, domain.Report) error { return nil }

func (NopHistory) ListUploads(context.Context, int) ([]domain.UploadSummary, error) {
	return []domain.UploadSummary{}, nil
}

func (NopHistory) GetUpload(_ context.Context, id string) (domain.UploadSummary, error) {
	return domain.UploadSummary{}, notFound(id)
}

func (NopHistory) GetReport(_ context.Context, id string) (domain.Report, error) {
	return domain.Report{}, notFound(id)
}

func (NopHistory) Ping(context.Context) error { return nil }

func (NopHistory) Close() error { return nil }
