package errors

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", New(ErrEmptyIndex, http.StatusConflict, "build first"), http.StatusConflict},
		{"wrapped app error", fmt.Errorf("handler: %w", Invalid("bad limit %d", -1)), http.StatusBadRequest},
		{"not found", fmt.Errorf("doc 7: %w", ErrDocumentNotFound), http.StatusNotFound},
		{"empty index", ErrEmptyIndex, http.StatusServiceUnavailable},
		{"corrupt", Corrupt("bad checksum"), http.StatusServiceUnavailable},
		{"timeout", fmt.Errorf("query: %w", ErrTimeout), http.StatusServiceUnavailable},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"empty corpus", ErrEmptyCorpus, http.StatusUnprocessableEntity},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

func TestCorruptKeepsCause(t *testing.T) {
	err := Corrupt("%w: %w", ErrIndexNotFound, os.ErrNotExist)
	assert.ErrorIs(t, err, ErrCorruptIndex)
	assert.ErrorIs(t, err, ErrIndexNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "limit must be positive", PublicMessage(Invalid("limit must be positive")))
	assert.Equal(t, "empty index", PublicMessage(ErrEmptyIndex))
	assert.Equal(t, "internal error", PublicMessage(errors.New("pq: password authentication failed")))
}
