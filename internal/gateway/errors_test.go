package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/ratelimit"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{401, KindAuth},
		{403, KindAuth},
		{404, KindNotFound},
		{429, KindRateLimited},
		{500, KindUnavailable},
		{503, KindUnavailable},
		{400, KindRejected},
		{422, KindRejected},
	}
	for _, tc := range tests {
		e := FromStatus("instantly", "list_campaigns", tc.status, http.Header{}, []byte(`{"error":"x"}`))
		assert.Equal(t, tc.want, e.Kind, "status %d", tc.status)
		assert.Equal(t, tc.status, e.StatusCode)
		assert.Equal(t, `{"error":"x"}`, e.Body)
	}
}

func TestFromStatus_RetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "12")
	e := FromStatus("heyreach", "get_stats", 429, h, nil)
	assert.Equal(t, 12*time.Second, e.RetryAfter)

	e = FromStatus("heyreach", "get_stats", 429, http.Header{}, nil)
	assert.Equal(t, DefaultRetryAfter, e.RetryAfter)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, ParseRetryAfter("5", time.Minute))
	assert.Equal(t, time.Minute, ParseRetryAfter("", time.Minute))
	assert.Equal(t, time.Minute, ParseRetryAfter("soon", time.Minute))
	assert.Equal(t, time.Minute, ParseRetryAfter("-3", time.Minute))
	assert.Equal(t, time.Minute, ParseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT", time.Minute), "past date")

	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	d := ParseRetryAfter(future, time.Minute)
	assert.InDelta(t, float64(90*time.Second), float64(d), float64(2*time.Second))
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := FromStatus("instantly", "get_analytics", 404, http.Header{}, nil)
	wrapped := fmt.Errorf("campaign A: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))

	ge, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "get_analytics", ge.Op)
}

func TestFromLimiter(t *testing.T) {
	e := FromLimiter("heyreach", "list_campaigns", &ratelimit.LimitError{Key: "heyreach", Limit: 300, RetryAfter: 4 * time.Second})
	assert.Equal(t, KindRateLimited, e.Kind)
	assert.Equal(t, 4*time.Second, e.RetryAfter)

	e = FromLimiter("heyreach", "list_campaigns", errors.New("redis down"))
	assert.Equal(t, KindTransport, e.Kind)
}

func TestErrorMessage(t *testing.T) {
	e := FromStatus("instantly", "list_campaigns", 500, http.Header{}, []byte(strings.Repeat("x", 5000)))
	assert.Contains(t, e.Error(), "instantly list_campaigns: unavailable (status 500)")
	assert.True(t, strings.HasSuffix(e.Body, "...(truncated)"))

	c := ConfigError("heyreach", "list_campaigns", "missing api key")
	assert.Equal(t, KindConfig, c.Kind)
	assert.Equal(t, "heyreach list_campaigns: config: missing api key", c.Error())
}

func TestIsContextError(t *testing.T) {
	assert.True(t, IsContextError(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	assert.False(t, IsContextError(errors.New("x")))
}
