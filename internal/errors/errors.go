package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Codes sent in the error_code member of problem responses.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidation       = "VALIDATION_FAILED"
	CodeMissingFile      = "MISSING_FILE"
	CodeUnsupportedFile  = "UNSUPPORTED_FILE"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodeNotFound         = "NOT_FOUND"
	CodeUploadNotFound   = "UPLOAD_NOT_FOUND"
	CodeStudentNotFound  = "STUDENT_NOT_FOUND"
	CodeNoSubjectData    = "NO_SUBJECT_DATA"
	CodeMissingColumns   = "MISSING_IDENTITY_COLUMNS"
	CodeEmptySheet       = "UNPROCESSABLE_ENTITY"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
)

var problemTypes = map[string]string{
	CodeInvalidRequest:   TypeValidation,
	CodeValidation:       TypeValidation,
	CodeMissingFile:      TypeValidation,
	CodeUnsupportedFile:  TypeValidation,
	CodeUnsupportedMedia: TypeValidation,
	CodeNotFound:         TypeNotFound,
	CodeUploadNotFound:   TypeUploadNotFound,
	CodeStudentNotFound:  TypeStudentNotFound,
	CodeNoSubjectData:    TypeNoSubjectData,
	CodeMissingColumns:   TypeSheetInvalid,
	CodeEmptySheet:       TypeSheetInvalid,
	CodePayloadTooLarge:  TypePayloadTooLarge,
	CodeRateLimited:      TypeRateLimit,
}

// ProblemType returns the problem type URI for an error code. Unknown codes
// map to TypeInternal.
func ProblemType(code string) string {
	if t, ok := problemTypes[code]; ok {
		return t
	}
	return TypeInternal
}

// APIError is an error the transport layer has already mapped to a status
// and code.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render sets the response status for chi/render.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// WithDetails returns a copy of e carrying details. The predefined errors
// below are shared, so they are never mutated.
func (e *APIError) WithDetails(details interface{}) *APIError {
	c := *e
	c.Details = details
	return &c
}

// New creates an APIError.
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// NewWithDetails creates an APIError with details.
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return New(statusCode, errorCode, message).WithDetails(details)
}

var (
	ErrMissingFile     = New(http.StatusBadRequest, CodeMissingFile, "Multipart field 'file' is required")
	ErrUnsupportedFile = New(http.StatusBadRequest, CodeUnsupportedFile, "Only .xlsx workbooks are supported")

	ErrUploadNotFound  = New(http.StatusNotFound, CodeUploadNotFound, "Upload not found or expired")
	ErrNoUploads       = New(http.StatusNotFound, CodeUploadNotFound, "No upload has been analyzed yet")
	ErrStudentNotFound = New(http.StatusNotFound, CodeStudentNotFound, "No student matches the query")
	ErrNoSubjectData   = New(http.StatusNotFound, CodeNoSubjectData, "No MSE or ESE columns found for subject")

	ErrPayloadTooLarge = New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Uploaded file exceeds the size limit")

	ErrMissingIdentityColumn = New(http.StatusUnprocessableEntity, CodeMissingColumns, "Sheet is missing required identity columns")
	ErrEmptySheet            = New(http.StatusUnprocessableEntity, CodeEmptySheet, "Workbook contains no data")

	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded")
)

// InvalidRequestWithError reports a malformed request body or query.
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// UnsupportedMediaType reports a request whose Content-Type is not allowed.
func UnsupportedMediaType(contentType string, allowed []string) *APIError {
	return NewWithDetails(http.StatusUnsupportedMediaType, CodeUnsupportedMedia, "Unsupported content type",
		map[string]interface{}{"content_type": contentType, "allowed": allowed})
}

// ValidationError is one failed field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload for several failed fields.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ErrValidation reports a single invalid field.
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidation, "Request validation failed",
		ValidationError{Field: field, Message: message})
}

// NewValidationErrors reports several invalid fields at once.
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidation, "Request validation failed",
		ValidationErrors{Errors: errs})
}

// NotFoundError reports a missing resource by name.
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource), resource)
}

// MissingColumnsError lists the identity columns a sheet lacks.
func MissingColumnsError(missing []string) *APIError {
	return ErrMissingIdentityColumn.WithDetails(map[string]interface{}{"missing": missing})
}
