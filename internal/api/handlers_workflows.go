package api

import (
	"errors"
	"net/http"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/httputil"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/webhook"
)

// TriggerScrape starts the scrape workflow.
//
//	POST /api/workflows/scrape
func (h *Handlers) TriggerScrape(w http.ResponseWriter, r *http.Request) {
	var req webhook.ScrapeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if h.workflows == nil {
		h.respondError(w, r, webhook.ErrNotConfigured)
		return
	}
	res, err := h.workflows.TriggerScrape(r.Context(), req)
	h.respondWorkflow(w, r, res, err)
}

// TriggerOutreach starts the outreach workflow.
//
//	POST /api/workflows/outreach
func (h *Handlers) TriggerOutreach(w http.ResponseWriter, r *http.Request) {
	var req webhook.OutreachRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if h.workflows == nil {
		h.respondError(w, r, webhook.ErrNotConfigured)
		return
	}
	res, err := h.workflows.TriggerOutreach(r.Context(), req)
	h.respondWorkflow(w, r, res, err)
}

func (h *Handlers) respondWorkflow(w http.ResponseWriter, r *http.Request, res *webhook.Result, err error) {
	switch {
	case errors.Is(err, webhook.ErrNotConfigured):
		h.respondError(w, r, err)
	case errors.Is(err, webhook.ErrInvalidRequest):
		httputil.ErrorCode(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
	case errors.Is(err, webhook.ErrRejected):
		h.log.Warn("workflow refused trigger", "path", r.URL.Path, "error", err)
		httputil.ErrorDetails(w, http.StatusBadGateway, codeUpstreamRejected, "workflow refused the request", res)
	case err != nil:
		h.log.Warn("workflow trigger failed", "path", r.URL.Path, "error", err)
		httputil.ErrorCode(w, http.StatusBadGateway, codeUpstreamUnavailable, "workflow did not accept the request")
	default:
		httputil.Accepted(w, res)
	}
}
