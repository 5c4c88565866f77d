package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/logger"
)

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, allowedOrigins []string, requestTimeout time.Duration) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = defaultOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)
	if h.health != nil {
		r.Get("/health/live", h.health.HandleLiveness)
		r.Get("/health/ready", h.health.HandleReadiness)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/{platform}", func(r chi.Router) {
			r.Use(platformCtx)
			r.Group(func(r chi.Router) {
				r.Use(withTimeout(requestTimeout))
				r.Get("/campaigns", h.ListCampaigns)
				r.Get("/campaigns/{id}/analytics", h.GetCampaignAnalytics)
				r.Get("/analytics", h.GetAggregatedAnalytics)
				r.Get("/analytics/daily", h.GetDailySeries)
				r.Post("/analytics/snapshot", h.SaveSnapshot)
				r.Get("/analytics/snapshots/{timestamp}", h.GetSnapshot)
			})
			r.Get("/accounts", h.ListAccounts)
			r.Get("/conversations", h.ListConversations)
		})

		r.Route("/leads/{source}", func(r chi.Router) {
			r.Use(sourceCtx)
			r.Post("/", h.UpsertLead)
			r.Get("/", h.ListLeads)
			r.Get("/{id}", h.GetLead)
			r.Get("/{id}/sends", h.GetSendHistory)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", h.CheckSyncStatus)
			r.Post("/sends", h.RecordSend)
			r.Post("/dispatch", h.Dispatch)
		})

		r.Route("/workflows", func(r chi.Router) {
			r.Post("/scrape", h.TriggerScrape)
			r.Post("/outreach", h.TriggerOutreach)
		})
	})

	return r
}

// withTimeout bounds the request context; upstream calls honor it.
func withTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var httpLog = logger.New("http")

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		}
		switch {
		case ww.Status() >= 500:
			httpLog.Warn("request failed", fields...)
		case r.URL.Path == "/health":
			httpLog.Debug("request", fields...)
		default:
			httpLog.Info("request", fields...)
		}
	})
}
