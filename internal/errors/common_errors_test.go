package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")

	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantMsg  string
	}{
		{"parsing", NewParsingError("failed to open workbook", cause), ErrTypeParsing, "[PARSING] failed to open workbook: zip: not a valid zip file"},
		{"validation", NewAppValidationError("missing required identity columns", nil), ErrTypeValidation, "[VALIDATION] missing required identity columns"},
		{"storage", NewStorageError("insert upload", cause), ErrTypeStorage, "[STORAGE] insert upload: zip: not a valid zip file"},
		{"not found", NewNotFoundError("upload"), ErrTypeNotFound, "[NOT_FOUND] upload not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.NotNil(t, tt.err.Context)
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	sentinel := errors.New("missing required identity columns")
	err := fmt.Errorf("parse upload: %w", NewAppValidationError("invalid sheet", sentinel))

	assert.ErrorIs(t, err, sentinel)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrTypeValidation, appErr.Type)
	assert.True(t, IsType(err, ErrTypeValidation))
	assert.False(t, IsType(err, ErrTypeParsing))
	assert.False(t, IsType(sentinel, ErrTypeValidation))
}

func TestAppErrorWithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeValidation, Message: "invalid"}
	err.WithContext("missing", []string{"Name"}).WithContext("sheet", "Sheet1")

	assert.Equal(t, []string{"Name"}, err.Context["missing"])
	assert.Equal(t, "Sheet1", err.Context["sheet"])
}
