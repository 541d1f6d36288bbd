package validation

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "gradegraph/internal/errors"
	"gradegraph/internal/shared/testutil"
)

func TestFileValidator_ValidateName(t *testing.T) {
	v := NewFileValidator(0, nil)

	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{"xlsx", "marks.xlsx", false},
		{"upper case", "MARKS.XLSX", false},
		{"macro workbook", "marks.xlsm", false},
		{"with directories", "/tmp/class/marks.xlsx", false},
		{"legacy xls", "marks.xls", true},
		{"csv", "marks.csv", true},
		{"no extension", "marks", true},
		{"lock file", "~$marks.xlsx", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateName(tt.file)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupportedFile))
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
		})
	}
}

func TestFileValidator_ReadUpload(t *testing.T) {
	workbook := testutil.WorkbookBytes(t, testutil.ClassHeaders, testutil.ClassRows)

	tests := []struct {
		name     string
		maxBytes int64
		file     string
		data     []byte
		wantErr  error
	}{
		{name: "valid workbook", maxBytes: 1 << 20, file: "class.xlsx", data: workbook},
		{name: "no limit", maxBytes: 0, file: "class.xlsx", data: workbook},
		{name: "too large", maxBytes: 16, file: "class.xlsx", data: workbook, wantErr: ErrFileTooLarge},
		{name: "empty", maxBytes: 1 << 20, file: "class.xlsx", data: []byte{}, wantErr: ErrEmptyFile},
		{name: "csv renamed", maxBytes: 1 << 20, file: "class.xlsx", data: []byte("SR.No,Name\n"), wantErr: ErrNotWorkbook},
		{name: "wrong extension", maxBytes: 1 << 20, file: "class.csv", data: workbook, wantErr: ErrUnsupportedFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFileValidator(tt.maxBytes, nil)

			data, err := v.ReadUpload(tt.file, bytes.NewReader(tt.data))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.data, data)
		})
	}
}

func TestFileValidator_ReadUploadMaxBytesReader(t *testing.T) {
	body := http.MaxBytesReader(httptest.NewRecorder(), io.NopCloser(bytes.NewReader(make([]byte, 64))), 8)

	_, err := NewFileValidator(0, nil).ReadUpload("class.xlsx", body)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
}

func TestFileValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteWorkbook(t, dir, "class.xlsx", testutil.ClassHeaders, testutil.ClassRows)

	fake := filepath.Join(dir, "fake.xlsx")
	require.NoError(t, os.WriteFile(fake, []byte("not a zip"), 0644))

	empty := filepath.Join(dir, "empty.xlsx")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	v := NewFileValidator(1<<20, nil)

	assert.NoError(t, v.ValidateFile(good))
	assert.True(t, errors.Is(v.ValidateFile(fake), ErrNotWorkbook))
	assert.True(t, errors.Is(v.ValidateFile(empty), ErrEmptyFile))
	assert.True(t, apperrors.IsType(v.ValidateFile(filepath.Join(dir, "missing.xlsx")), apperrors.ErrTypeNotFound))
	assert.True(t, errors.Is(v.ValidateFile(dir), ErrUnsupportedFile))
	assert.True(t, errors.Is(NewFileValidator(8, nil).ValidateFile(good), ErrFileTooLarge))
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(0, nil)

	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, v.ValidateOutputDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary file must be removed")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	assert.Error(t, v.ValidateOutputDirectory(filepath.Join(blocker, "sub")))
}
