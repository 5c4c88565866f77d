package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/httputil"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/logger"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	analytics AnalyticsService
	leads     LeadService
	sync      SyncService
	workflows Workflows
	archive   Archiver
	instantly InstantlyInbox
	heyreach  HeyReachInbox
	health    *HealthChecker
	log       *logger.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		analytics: d.Analytics,
		leads:     d.Leads,
		sync:      d.Sync,
		workflows: d.Workflows,
		archive:   d.Archive,
		instantly: d.Instantly,
		heyreach:  d.HeyReach,
		health:    d.Health,
		log:       logger.New("api"),
	}
}

// HealthCheck reports dependency health when a checker is wired, otherwise
// a bare liveness answer.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		h.health.HandleHealth(w, r)
		return
	}
	httputil.OK(w, map[string]string{"status": "ok"})
}

type ctxKey int

const (
	platformKey ctxKey = iota
	sourceKey
)

// platformCtx validates {platform} once for every route below it.
func platformCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := domain.ParsePlatform(chi.URLParam(r, "platform"))
		if err != nil {
			httputil.NotFound(w, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), platformKey, p)))
	})
}

// sourceCtx validates {source} once for every route below it.
func sourceCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := domain.ParseLeadSource(chi.URLParam(r, "source"))
		if err != nil {
			httputil.NotFound(w, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sourceKey, s)))
	})
}

func platformFrom(r *http.Request) domain.Platform {
	p, _ := r.Context().Value(platformKey).(domain.Platform)
	return p
}

func sourceFrom(r *http.Request) domain.LeadSource {
	s, _ := r.Context().Value(sourceKey).(domain.LeadSource)
	return s
}
