package api

import (
	"net/http"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/httputil"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/service/syncstate"
)

// CheckSyncStatus reports whether a lead was sent to a platform.
//
//	GET /api/sync/status?email=|lead_id=&source=&platform=
func (h *Handlers) CheckSyncStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := q.Get("source")
	if source == "" {
		source = string(domain.SourceEmail)
	}
	st, err := h.sync.CheckStatus(r.Context(), syncstate.Query{
		LeadID:   q.Get("lead_id"),
		Email:    q.Get("email"),
		Source:   domain.LeadSource(source),
		Platform: domain.Platform(q.Get("platform")),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.OK(w, st)
}

// RecordSend stores a send attempt reported by a workflow.
//
//	POST /api/sync/sends
func (h *Handlers) RecordSend(w http.ResponseWriter, r *http.Request) {
	var in syncstate.SendInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	rec, err := h.sync.RecordSend(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.OK(w, rec)
}

// Dispatch pushes a stored lead into a platform campaign. When the platform
// refuses the lead, the failed send record is returned as the error details.
//
//	POST /api/sync/dispatch
func (h *Handlers) Dispatch(w http.ResponseWriter, r *http.Request) {
	var in syncstate.DispatchInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	rec, err := h.sync.Dispatch(r.Context(), in)
	if err != nil {
		if rec != nil {
			h.log.Warn("dispatch recorded as failed", "lead_id", in.LeadID, "platform", in.Platform, "error", err)
			h.respondErrorDetails(w, r, err, rec)
			return
		}
		h.respondError(w, r, err)
		return
	}
	httputil.OK(w, rec)
}
