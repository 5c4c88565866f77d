package gateway

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/logger"
)

// BreakerConfig configures a per-platform circuit breaker.
type BreakerConfig struct {
	// ConsecutiveFailures opens the breaker. Zero disables it.
	ConsecutiveFailures uint32
	Cooldown            time.Duration
}

// Breaker stops calling a platform that keeps failing at the transport or
// 5xx level. Auth, not-found and rate-limit failures do not count.
type Breaker struct {
	platform string
	cb       *gobreaker.CircuitBreaker[any]
}

// NewBreaker returns nil when cfg disables the breaker; a nil *Breaker
// passes every call straight through.
func NewBreaker(platform string, cfg BreakerConfig) *Breaker {
	if cfg.ConsecutiveFailures == 0 {
		return nil
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	log := logger.New("gateway").With("platform", platform)

	settings := gobreaker.Settings{
		Name:        platform,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			switch KindOf(err) {
			case KindUnavailable, KindTransport:
				return IsContextError(err)
			}
			return true
		},
	}
	return &Breaker{platform: platform, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// Do runs fn through the breaker. While open, it returns KindUnavailable
// without calling fn.
func (b *Breaker) Do(op string, fn func() error) error {
	if b == nil {
		return fn()
	}
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return &Error{Platform: b.platform, Op: op, Kind: KindUnavailable, Err: err}
	}
	return err
}

// State reports the breaker state name, "disabled" when nil.
func (b *Breaker) State() string {
	if b == nil {
		return "disabled"
	}
	return b.cb.State().String()
}
