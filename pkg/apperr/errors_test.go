package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestSurface(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Surface(nil, "x"))
	})

	t.Run("tagged errors pass through", func(t *testing.T) {
		in := InvalidArgument("bad input")
		out := Surface(fmt.Errorf("wrapped: %w", in), "API call failed")
		assert.Equal(t, KindInvalidArgument, KindOf(out))
		assert.Equal(t, "bad input", out.(*Error).Message)
	})

	t.Run("timeouts become deadline-exceeded", func(t *testing.T) {
		cases := []error{
			context.DeadlineExceeded,
			fmt.Errorf("completion: %w", ErrTimeout),
			fmt.Errorf("dial: %w", timeoutErr{}),
		}
		for _, c := range cases {
			out := Surface(c, "API call failed")
			assert.Equal(t, KindDeadlineExceeded, KindOf(out), c.Error())
		}
	})

	t.Run("everything else is internal and keeps the cause", func(t *testing.T) {
		cause := fmt.Errorf("decode: %w", ErrMalformedPayload)
		out := Surface(cause, "API call failed")
		require.Equal(t, KindInternal, KindOf(out))
		assert.True(t, errors.Is(out, ErrMalformedPayload))
		assert.Equal(t, "API call failed", out.(*Error).Message)
	})
}

func TestKindOfUntagged(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidArgument, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindDeadlineExceeded, http.StatusGatewayTimeout},
		{KindInternal, http.StatusInternalServerError},
		{Kind("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.kind))
		})
	}
}

func TestProcessErrorUnwrap(t *testing.T) {
	pe := &ProcessError{Tool: "ffmpeg", Stage: "extract", ExitCode: 1, Cause: ErrTimeout}
	assert.True(t, errors.Is(pe, ErrTimeout))
	assert.Contains(t, pe.Error(), "ffmpeg failed at extract")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
}
