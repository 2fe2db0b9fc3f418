package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	err := NotFound("product", "42")
	assert.Equal(t, "NOT_FOUND: product with id 42 not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))

	wrapped := Internal(errors.New("pool exhausted"))
	assert.Contains(t, wrapped.Error(), "pool exhausted")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NotFound("product", "42"), http.StatusNotFound},
		{InvalidInput("bad sort"), http.StatusBadRequest},
		{Unavailable("search engine down"), http.StatusServiceUnavailable},
		{fmt.Errorf("query: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("listing: %w", ErrInvalidInput), http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("timeout")
	err := Wrap(base, "count products")
	assert.Equal(t, "count products: timeout", err.Error())
	assert.True(t, errors.Is(err, base))
}
