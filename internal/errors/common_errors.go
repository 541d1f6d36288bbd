package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError by the layer that raised it.
type ErrorType string

const (
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
)

// httpMapping is how an AppError type surfaces when no handler translated it
// into an APIError. An empty detail means the AppError message is shown.
type httpMapping struct {
	status      int
	problemType string
	detail      string
}

var typeMappings = map[ErrorType]httpMapping{
	ErrTypeValidation: {http.StatusUnprocessableEntity, TypeSheetInvalid, ""},
	ErrTypeParsing:    {http.StatusUnprocessableEntity, TypeSheetUnreadable, ""},
	ErrTypeNotFound:   {http.StatusNotFound, TypeNotFound, ""},
	ErrTypeStorage:    {http.StatusInternalServerError, TypeStorage, "Storage operation failed"},
}

var internalMapping = httpMapping{
	status:      http.StatusInternalServerError,
	problemType: TypeInternal,
	detail:      "An unexpected error occurred while processing your request",
}

func mappingFor(t ErrorType) httpMapping {
	if m, ok := typeMappings[t]; ok {
		return m
	}
	return internalMapping
}

// AppError is a typed error raised below the transport layer. Context holds
// values safe to expose to clients on 4xx responses.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext records key on the error and returns it for chaining.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates an AppError of the given type.
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewParsingError is for workbooks that cannot be opened or read.
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError is for history store failures.
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError is for inputs that were read but are not acceptable.
func NewAppValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, resource+" not found", nil)
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}
