package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/analytics"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/archive"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/gateway"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/httputil"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/service/lead"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/service/syncstate"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/webhook"
)

// Machine-readable error codes.
const (
	codeInvalidRequest        = "invalid_request"
	codeNotFound              = "not_found"
	codePlatformNotConfigured = "platform_not_configured"
	codeWorkflowNotConfigured = "workflow_not_configured"
	codeUpstreamAuth          = "upstream_auth"
	codeUpstreamNotFound      = "upstream_not_found"
	codeUpstreamUnavailable   = "upstream_unavailable"
	codeUpstreamTimeout       = "upstream_timeout"
	codeUpstreamRejected      = "upstream_rejected"
	codeTimeout               = "timeout"
)

// respondError maps service and gateway errors to HTTP responses. Upstream
// bodies are logged, never echoed.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	h.respondErrorDetails(w, r, err, nil)
}

// respondErrorDetails is respondError with a payload attached to the error
// envelope.
func (h *Handlers) respondErrorDetails(w http.ResponseWriter, r *http.Request, err error, details any) {
	fail := func(status int, code, message string) {
		httputil.ErrorDetails(w, status, code, message, details)
	}

	if ge, ok := gateway.As(err); ok {
		h.respondGatewayError(w, r, ge, details)
		return
	}

	switch {
	case errors.Is(err, analytics.ErrPlatformNotConfigured),
		errors.Is(err, syncstate.ErrNoDispatcher):
		fail(http.StatusServiceUnavailable, codePlatformNotConfigured, err.Error())
	case errors.Is(err, webhook.ErrNotConfigured):
		fail(http.StatusServiceUnavailable, codeWorkflowNotConfigured, err.Error())
	case errors.Is(err, analytics.ErrInvalidDays),
		errors.Is(err, lead.ErrInvalidInput),
		errors.Is(err, syncstate.ErrInvalidQuery):
		fail(http.StatusBadRequest, codeInvalidRequest, err.Error())
	case errors.Is(err, lead.ErrNotFound),
		errors.Is(err, syncstate.ErrLeadNotFound):
		fail(http.StatusNotFound, codeNotFound, "lead not found")
	case errors.Is(err, archive.ErrNotFound):
		fail(http.StatusNotFound, codeNotFound, "snapshot not found")
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Warn("request timed out", "path", r.URL.Path, "error", err)
		fail(http.StatusGatewayTimeout, codeTimeout, "request timed out")
	default:
		httputil.InternalError(w, err)
	}
}

func (h *Handlers) respondGatewayError(w http.ResponseWriter, r *http.Request, ge *gateway.Error, details any) {
	h.log.Warn("upstream call failed",
		"platform", ge.Platform, "op", ge.Op, "kind", ge.Kind.String(),
		"status", ge.StatusCode, "path", r.URL.Path, "error", ge.Error())

	fail := func(status int, code, message string) {
		httputil.ErrorDetails(w, status, code, message, details)
	}

	switch ge.Kind {
	case gateway.KindConfig:
		fail(http.StatusServiceUnavailable, codePlatformNotConfigured, ge.Platform+" is not configured")
	case gateway.KindAuth:
		fail(http.StatusBadGateway, codeUpstreamAuth, ge.Platform+" rejected the API key")
	case gateway.KindNotFound:
		fail(http.StatusNotFound, codeUpstreamNotFound, "not found on "+ge.Platform)
	case gateway.KindRateLimited:
		httputil.RateLimited(w, ge.Platform+" rate limit reached", ge.RetryAfter, details)
	case gateway.KindUnavailable:
		fail(http.StatusServiceUnavailable, codeUpstreamUnavailable, ge.Platform+" is unavailable")
	case gateway.KindTransport:
		fail(http.StatusGatewayTimeout, codeUpstreamTimeout, ge.Platform+" did not respond")
	default:
		fail(http.StatusBadGateway, codeUpstreamRejected, ge.Platform+" returned an unexpected response")
	}
}
