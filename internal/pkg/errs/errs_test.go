package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		details []any
		status  int
		message string
	}{
		{"known code", ErrRoomNotFound, nil, http.StatusNotFound, "Chat room not found."},
		{"formatted details", ErrInvalidPayload, []any{"content"}, http.StatusBadRequest, "Missing required field: content."},
		{"template without details", ErrInvalidPayload, nil, http.StatusBadRequest, "Missing required field."},
		{"unknown code", 424242, nil, http.StatusInternalServerError, "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError(tt.code, tt.details...)
			require.NotNil(t, err)
			assert.Equal(t, tt.status, err.Status)
			assert.Equal(t, tt.message, err.Message)
		})
	}
}

func TestNewErrorDoesNotMutateTemplate(t *testing.T) {
	_ = NewError(ErrUnsupportedEvent, "nope")
	again := NewError(ErrUnsupportedEvent, "ping")
	assert.Equal(t, "Unsupported event type: ping.", again.Message)
}

func TestWrapAndIs(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("append: %w", Wrap(ErrStoreFailure, cause))

	assert.True(t, errors.Is(err, NewError(ErrStoreFailure)))
	assert.False(t, errors.Is(err, NewError(ErrUnauthorized)))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	custom := NewError(ErrNotRoomAdmin)
	assert.Same(t, custom, From(fmt.Errorf("wrapped: %w", custom)))

	plain := From(errors.New("boom"))
	assert.Equal(t, ErrUnknown, plain.Code)
	assert.EqualError(t, plain.Cause, "boom")
}
