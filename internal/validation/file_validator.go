package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	apperrors "gradegraph/internal/errors"
)

var (
	ErrUnsupportedFile = errors.New("only .xlsx workbooks are supported")
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
	ErrEmptyFile       = errors.New("file is empty")
	ErrNotWorkbook     = errors.New("file is not an xlsx workbook")
)

// xlsx files are zip archives.
var zipMagic = []byte("PK\x03\x04")

var allowedExtensions = map[string]bool{".xlsx": true, ".xlsm": true}

// FileValidator checks workbooks before they reach the parser, both for
// HTTP uploads and for files named on the command line.
type FileValidator struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewFileValidator creates a validator. maxBytes <= 0 disables the size
// limit.
func NewFileValidator(maxBytes int64, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		maxBytes: maxBytes,
		logger:   logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateName checks the extension of an upload or path.
func (v *FileValidator) ValidateName(name string) error {
	base := filepath.Base(strings.TrimSpace(name))
	ext := strings.ToLower(filepath.Ext(base))

	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejected temporary Excel file", slog.String("file", base))
		return apperrors.NewAppValidationError(
			fmt.Sprintf("%s is a temporary Excel lock file", base), ErrUnsupportedFile).
			WithContext("file", base)
	}
	if !allowedExtensions[ext] {
		v.logger.Warn("Rejected file extension",
			slog.String("file", base),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError(
			fmt.Sprintf("%s: unsupported extension %q", base, ext), ErrUnsupportedFile).
			WithContext("file", base).
			WithContext("extension", ext)
	}
	return nil
}

// ReadUpload validates the name, then reads r into memory enforcing the
// size limit and checking the workbook signature.
func (v *FileValidator) ReadUpload(name string, r io.Reader) ([]byte, error) {
	if err := v.ValidateName(name); err != nil {
		return nil, err
	}

	src := r
	if v.maxBytes > 0 {
		src = io.LimitReader(r, v.maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, v.tooLarge(name)
		}
		return nil, fmt.Errorf("failed to read upload %s: %w", name, err)
	}
	if v.maxBytes > 0 && int64(len(data)) > v.maxBytes {
		return nil, v.tooLarge(name)
	}

	if err := v.ValidateContent(name, data); err != nil {
		return nil, err
	}

	v.logger.Debug("Upload validated",
		slog.String("file", name),
		slog.Int("size", len(data)))
	return data, nil
}

// ValidateContent checks the leading bytes of a workbook.
func (v *FileValidator) ValidateContent(name string, data []byte) error {
	if len(data) == 0 {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is empty", name), ErrEmptyFile).
			WithContext("file", name)
	}
	if !bytes.HasPrefix(data, zipMagic) {
		v.logger.Warn("Rejected file without xlsx signature", slog.String("file", name))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is not an xlsx workbook", name), ErrNotWorkbook).
			WithContext("file", name)
	}
	return nil
}

func (v *FileValidator) tooLarge(name string) error {
	v.logger.Warn("Rejected oversized upload",
		slog.String("file", name),
		slog.Int64("max_bytes", v.maxBytes))
	return apperrors.NewAppValidationError(fmt.Sprintf("%s exceeds %d bytes", name, v.maxBytes), ErrFileTooLarge).
		WithContext("max_bytes", v.maxBytes)
}

// ValidateFile checks that path is a readable workbook on disk.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path))
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path), ErrUnsupportedFile)
	}
	if v.maxBytes > 0 && info.Size() > v.maxBytes {
		return v.tooLarge(path)
	}
	if err := v.ValidateName(path); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	defer file.Close()

	head := make([]byte, len(zipMagic))
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if err := v.ValidateContent(path, head[:n]); err != nil {
		return err
	}

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures dir exists and is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	tmp.Close()
	os.Remove(tmp.Name())

	return nil
}
