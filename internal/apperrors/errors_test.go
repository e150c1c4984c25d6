package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"bad request", BadRequest("No SKU IDs provided"), http.StatusBadRequest},
		{"conflict", Conflict("SKU code already exists: %s", "A-1"), http.StatusBadRequest},
		{"not found", NotFound("SKU not found"), http.StatusNotFound},
		{"plain error", errors.New("disk full"), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("load: %w", NotFound("Invalid shelf ID")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestInternalKeepsRawMessage(t *testing.T) {
	err := As(errors.New("database is locked"))
	assert.Equal(t, KindInternal, err.Kind)
	assert.Equal(t, "database is locked", err.Message)
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("create: %w", Conflict("SKU code already exists: X"))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindNotFound))
	assert.False(t, Is(errors.New("x"), KindConflict))
}

func TestWrapKeepsMessage(t *testing.T) {
	cause := errors.New("http: request body too large")
	err := BadRequest("File too large").Wrap(cause)
	assert.Equal(t, "File too large", err.Error())
	assert.ErrorIs(t, err, cause)
}
