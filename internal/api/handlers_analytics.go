package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/analytics"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/httputil"
)

// ListCampaigns returns the platform's campaigns.
//
//	GET /api/{platform}/campaigns
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	p := platformFrom(r)
	campaigns, err := h.analytics.ListCampaigns(r.Context(), p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"platform":  p,
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}

// GetCampaignAnalytics returns one campaign's metrics. A campaign with no
// activity yields 200 with "analytics": null.
//
//	GET /api/{platform}/campaigns/{id}/analytics
func (h *Handlers) GetCampaignAnalytics(w http.ResponseWriter, r *http.Request) {
	p := platformFrom(r)
	id := chi.URLParam(r, "id")
	report, err := h.analytics.CampaignAnalytics(r.Context(), p, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"platform":    p,
		"campaign_id": id,
		"analytics":   report,
	})
}

// GetAggregatedAnalytics returns totals, changes and per-campaign reports.
//
//	GET /api/{platform}/analytics
func (h *Handlers) GetAggregatedAnalytics(w http.ResponseWriter, r *http.Request) {
	agg, err := h.analytics.Aggregate(r.Context(), platformFrom(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.OK(w, agg)
}

// GetDailySeries returns the merged daily series.
//
//	GET /api/{platform}/analytics/daily?days=N
func (h *Handlers) GetDailySeries(w http.ResponseWriter, r *http.Request) {
	days := analytics.DefaultDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httputil.ErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "days must be an integer")
			return
		}
		days = n
	}
	series, err := h.analytics.DailySeries(r.Context(), platformFrom(r), days)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.OK(w, series)
}

// SaveSnapshot aggregates the platform and archives the result.
//
//	POST /api/{platform}/analytics/snapshot
func (h *Handlers) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httputil.ErrorCode(w, http.StatusServiceUnavailable, "archive_not_configured", "analytics archive is not configured")
		return
	}
	p := platformFrom(r)
	agg, err := h.analytics.Aggregate(r.Context(), p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	res, err := h.archive.Save(r.Context(), p, agg)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.Created(w, res)
}

// GetSnapshot reads back an archived aggregate by the timestamp Save
// returned.
//
//	GET /api/{platform}/analytics/snapshots/{timestamp}
func (h *Handlers) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httputil.ErrorCode(w, http.StatusServiceUnavailable, "archive_not_configured", "analytics archive is not configured")
		return
	}
	stamp, err := strconv.ParseInt(chi.URLParam(r, "timestamp"), 10, 64)
	if err != nil || stamp <= 0 {
		httputil.ErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "timestamp must be unix seconds")
		return
	}
	snap, err := h.archive.Get(r.Context(), platformFrom(r), time.Unix(stamp, 0))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httputil.OK(w, snap)
}
