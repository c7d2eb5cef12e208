package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("missing name"), http.StatusBadRequest},
		{Unauthenticated("no token"), http.StatusUnauthorized},
		{Forbidden("wrong domain"), http.StatusForbidden},
		{NotFound("car not found"), http.StatusNotFound},
		{Conflict("brand in use"), http.StatusBadRequest},
		{Upstream("failed", errors.New("boom")), http.StatusInternalServerError},
		{New(KindUnknown, "?"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestKindOf_WrappedChain(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("list cars: %w", Upstream("Failed to fetch cars", base))

	assert.Equal(t, KindUpstream, KindOf(err))
	assert.True(t, Is(err, KindUpstream))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, KindUnknown, KindOf(base))
}

func TestError_Message(t *testing.T) {
	err := Upstream("Failed to fetch car", errors.New("timeout")).WithOp("get_car")
	assert.Equal(t, "get_car: Failed to fetch car: timeout", err.Error())
}
