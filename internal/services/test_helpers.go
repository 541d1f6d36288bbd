package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gradegraph/pkg/contracts/domain"
)

// MockHistory is a testify mock of store.History.
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) SaveUpload(ctx context.Context, summary domain.UploadSummary, report domain.Report) error {
	args := m.Called(ctx, summary, report)
	return args.Error(0)
}

func (m *MockHistory) ListUploads(ctx context.Context, limit int) ([]domain.UploadSummary, error) {
	args := m.Called(ctx, limit)
	uploads, _ := args.Get(0).([]domain.UploadSummary)
	return uploads, args.Error(1)
}

func (m *MockHistory) GetUpload(ctx context.Context, id string) (domain.UploadSummary, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.UploadSummary), args.Error(1)
}

func (m *MockHistory) GetReport(ctx context.Context, id string) (domain.Report, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Report), args.Error(1)
}

func (m *MockHistory) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHistory) Close() error {
	return m.Called().Error(0)
}
