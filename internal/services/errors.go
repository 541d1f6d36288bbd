package services

import "errors"

// Analysis service errors
var (
	// Upload errors
	ErrUploadNotFound = errors.New("upload not found or expired")
	ErrNoUploads      = errors.New("no upload has been analyzed yet")

	// Query errors
	ErrSubjectNotFound = errors.New("subject not found")
	ErrNoSubjectData   = errors.New("no MSE or ESE columns found for subject")
	ErrStudentNotFound = errors.New("no student matches the query")
	ErrInvalidCategory = errors.New("invalid category")

	// Export errors
	ErrUnsupportedExport = errors.New("unsupported export kind")
)
