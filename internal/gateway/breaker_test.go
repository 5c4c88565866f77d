package gateway

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensOnUnavailable(t *testing.T) {
	b := NewBreaker("instantly", BreakerConfig{ConsecutiveFailures: 2, Cooldown: time.Minute})
	calls := 0
	fail := func() error {
		calls++
		return FromStatus("instantly", "op", 503, http.Header{}, nil)
	}

	assert.Equal(t, KindUnavailable, KindOf(b.Do("op", fail)))
	assert.Equal(t, KindUnavailable, KindOf(b.Do("op", fail)))
	assert.Equal(t, "open", b.State())

	err := b.Do("op", fail)
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Equal(t, 2, calls, "open breaker must not call through")
}

func TestBreaker_IgnoresClientErrors(t *testing.T) {
	b := NewBreaker("heyreach", BreakerConfig{ConsecutiveFailures: 1})
	notFound := func() error { return FromStatus("heyreach", "op", 404, http.Header{}, nil) }

	for i := 0; i < 3; i++ {
		assert.Equal(t, KindNotFound, KindOf(b.Do("op", notFound)))
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_NilPassesThrough(t *testing.T) {
	var b *Breaker = NewBreaker("x", BreakerConfig{})
	assert.Nil(t, b)
	assert.NoError(t, b.Do("op", func() error { return nil }))
	assert.Equal(t, "disabled", b.State())
}
