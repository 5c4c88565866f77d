package api

import (
	"net/http"
	"strconv"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/heyreach"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/instantly"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/httputil"
)

const inboxMaxLimit = 100

func inboxLimit(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if n <= 0 || n > inboxMaxLimit {
		return 0
	}
	return n
}

func (h *Handlers) notConfigured(w http.ResponseWriter, p domain.Platform) {
	httputil.ErrorCode(w, http.StatusServiceUnavailable, codePlatformNotConfigured, string(p)+" is not configured")
}

// ListAccounts returns the platform's sending accounts: mailboxes for
// Instantly, LinkedIn senders for HeyReach.
//
//	GET /api/{platform}/accounts?limit=&starting_after=|offset=
func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch p := platformFrom(r); p {
	case domain.PlatformInstantly:
		if h.instantly == nil {
			h.notConfigured(w, p)
			return
		}
		page, err := h.instantly.ListAccounts(r.Context(), instantly.ListParams{
			Limit:         inboxLimit(r),
			StartingAfter: q.Get("starting_after"),
		})
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		httputil.OK(w, page)
	default:
		if h.heyreach == nil {
			h.notConfigured(w, p)
			return
		}
		offset, _ := strconv.Atoi(q.Get("offset"))
		page, err := h.heyreach.ListLinkedInAccounts(r.Context(), heyreach.Page{Offset: offset, Limit: inboxLimit(r)})
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		httputil.OK(w, page)
	}
}

// ListConversations returns replies: unibox emails for Instantly,
// LinkedIn conversations for HeyReach.
//
//	GET /api/{platform}/conversations?campaign_id=&limit=
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch p := platformFrom(r); p {
	case domain.PlatformInstantly:
		if h.instantly == nil {
			h.notConfigured(w, p)
			return
		}
		page, err := h.instantly.ListEmails(r.Context(), instantly.EmailListParams{
			CampaignID:    q.Get("campaign_id"),
			Limit:         inboxLimit(r),
			StartingAfter: q.Get("starting_after"),
		})
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		httputil.OK(w, page)
	default:
		if h.heyreach == nil {
			h.notConfigured(w, p)
			return
		}
		var filter heyreach.ConversationFilter
		if v := q.Get("campaign_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				httputil.ErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "campaign_id must be numeric for heyreach")
				return
			}
			filter.CampaignIDs = []int64{id}
		}
		filter.SearchString = q.Get("search")
		offset, _ := strconv.Atoi(q.Get("offset"))
		page, err := h.heyreach.ListConversations(r.Context(), filter, heyreach.Page{Offset: offset, Limit: inboxLimit(r)})
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		httputil.OK(w, page)
	}
}
