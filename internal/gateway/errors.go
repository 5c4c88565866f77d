// Package gateway holds what the platform clients share: the upstream error
// taxonomy, Retry-After parsing and an optional circuit breaker.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/ratelimit"
)

// DefaultRetryAfter applies when a 429 carries no usable hint.
const DefaultRetryAfter = 60 * time.Second

// maxBodyInError caps the upstream payload kept on an Error.
const maxBodyInError = 2048

// Kind classifies a gateway failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindAuth
	KindNotFound
	KindRateLimited
	KindUnavailable
	KindTransport
	KindRejected
	KindDecode
)

var kindNames = map[Kind]string{
	KindUnknown:     "unknown",
	KindConfig:      "config",
	KindAuth:        "auth",
	KindNotFound:    "not_found",
	KindRateLimited: "rate_limited",
	KindUnavailable: "unavailable",
	KindTransport:   "transport",
	KindRejected:    "rejected",
	KindDecode:      "decode",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error is the only error type platform clients return.
type Error struct {
	Platform   string
	Op         string
	Kind       Kind
	StatusCode int
	Body       string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Platform, e.Op, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.RetryAfter > 0 {
		fmt.Fprintf(&b, " retry after %s", e.RetryAfter)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	} else if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var ge *Error
	ok := errors.As(err, &ge)
	return ge, ok
}

// ConfigError reports a missing or malformed credential. No I/O happened.
func ConfigError(platform, op, msg string) *Error {
	return &Error{Platform: platform, Op: op, Kind: KindConfig, Err: errors.New(msg)}
}

// FromStatus classifies a non-2xx response.
func FromStatus(platform, op string, status int, header http.Header, body []byte) *Error {
	e := &Error{
		Platform:   platform,
		Op:         op,
		StatusCode: status,
		Body:       truncate(string(body), maxBodyInError),
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuth
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.RetryAfter = ParseRetryAfter(header.Get("Retry-After"), DefaultRetryAfter)
	case status >= 500:
		e.Kind = KindUnavailable
	default:
		e.Kind = KindRejected
	}
	return e
}

// FromTransport classifies a failed round trip (timeout, DNS, reset).
func FromTransport(platform, op string, err error) *Error {
	return &Error{Platform: platform, Op: op, Kind: KindTransport, Err: err}
}

// FromLimiter converts a local limiter trip into KindRateLimited. Other
// limiter errors (Redis down, cancelled context) are transport failures.
func FromLimiter(platform, op string, err error) *Error {
	if wait, ok := ratelimit.IsLimited(err); ok {
		return &Error{Platform: platform, Op: op, Kind: KindRateLimited, RetryAfter: wait, Err: err}
	}
	return FromTransport(platform, op, err)
}

// DecodeError reports a 2xx body that could not be parsed.
func DecodeError(platform, op string, err error, body []byte) *Error {
	return &Error{Platform: platform, Op: op, Kind: KindDecode, Err: err, Body: truncate(string(body), maxBodyInError)}
}

// ParseRetryAfter reads delta-seconds or an HTTP-date. Missing, malformed or
// past values yield def.
func ParseRetryAfter(v string, def time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return def
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d.Round(time.Second)
		}
	}
	return def
}

// IsContextError reports whether err came from the caller's context.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
