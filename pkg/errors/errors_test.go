package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", New(ErrTermNotFound, http.StatusTeapot, "brew"), http.StatusTeapot},
		{"unknown model", ErrUnknownModel, http.StatusBadRequest},
		{"unknown term", ErrTermNotFound, http.StatusNotFound},
		{"wrapped out of range", fmt.Errorf("setting %q: %w", "P Norm", ErrParameterOutOfRange), http.StatusBadRequest},
		{"unsupported mode", ErrUnsupportedMode, http.StatusBadRequest},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"duplicate document", ErrDocumentExists, http.StatusConflict},
		{"anything else", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "limit %d", -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "invalid input: limit -1", err.Error())
}

func TestIsMissingIndexData(t *testing.T) {
	assert.True(t, IsMissingIndexData(fmt.Errorf("idf: %w", ErrTermNotFound)))
	assert.True(t, IsMissingIndexData(ErrDocumentNotFound))
	assert.False(t, IsMissingIndexData(ErrInternal))
}
