package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/httputil"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/service/lead"
)

// UpsertLead stores a lead. 201 when inserted, 200 when it already existed.
//
//	POST /api/leads/{source}
func (h *Handlers) UpsertLead(w http.ResponseWriter, r *http.Request) {
	var in domain.LeadInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	res, err := h.leads.Upsert(r.Context(), sourceFrom(r), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if res.WasInserted {
		httputil.Created(w, res)
		return
	}
	httputil.OK(w, res)
}

// ListLeads pages through a lead table.
//
//	GET /api/leads/{source}?niche=&tag=&page=&limit=
func (h *Handlers) ListLeads(w http.ResponseWriter, r *http.Request) {
	pg := ParsePagination(r, lead.DefaultLimit, lead.MaxLimit)
	q := r.URL.Query()
	leads, total, err := h.leads.List(r.Context(), sourceFrom(r), domain.LeadFilter{
		Niche:  q.Get("niche"),
		Tag:    q.Get("tag"),
		Limit:  pg.Limit,
		Offset: pg.Offset,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	httputil.OK(w, NewPaginatedResponse(leads, pg, int64(total)))
}

// GetLead returns one lead with its sync flags.
//
//	GET /api/leads/{source}/{id}
func (h *Handlers) GetLead(w http.ResponseWriter, r *http.Request) {
	l, err := h.leads.Get(r.Context(), sourceFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.OK(w, l)
}

// GetSendHistory returns the lead's send records, most recent first.
//
//	GET /api/leads/{source}/{id}/sends
func (h *Handlers) GetSendHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := h.sync.History(r.Context(), sourceFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"sends": recs, "count": len(recs)})
}
