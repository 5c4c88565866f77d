package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/analytics"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/archive"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/config"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/heyreach"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/instantly"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/service/syncstate"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/webhook"
)

// AnalyticsService is the campaign aggregation engine.
type AnalyticsService interface {
	ListCampaigns(ctx context.Context, p domain.Platform) ([]domain.Campaign, error)
	CampaignAnalytics(ctx context.Context, p domain.Platform, campaignID string) (*analytics.CampaignReport, error)
	Aggregate(ctx context.Context, p domain.Platform) (*analytics.Aggregate, error)
	DailySeries(ctx context.Context, p domain.Platform, days int) (*analytics.DailySeries, error)
}

// LeadService stores and lists leads.
type LeadService interface {
	Upsert(ctx context.Context, source domain.LeadSource, in domain.LeadInput) (domain.UpsertResult, error)
	Get(ctx context.Context, source domain.LeadSource, id string) (*domain.Lead, error)
	List(ctx context.Context, source domain.LeadSource, f domain.LeadFilter) ([]domain.Lead, int, error)
}

// SyncService answers and records lead-to-platform sends.
type SyncService interface {
	CheckStatus(ctx context.Context, q syncstate.Query) (syncstate.Status, error)
	RecordSend(ctx context.Context, in syncstate.SendInput) (*domain.SendRecord, error)
	Dispatch(ctx context.Context, in syncstate.DispatchInput) (*domain.SendRecord, error)
	History(ctx context.Context, source domain.LeadSource, leadID string) ([]domain.SendRecord, error)
}

// Workflows triggers the external scrape and outreach workflows.
type Workflows interface {
	TriggerScrape(ctx context.Context, req webhook.ScrapeRequest) (*webhook.Result, error)
	TriggerOutreach(ctx context.Context, req webhook.OutreachRequest) (*webhook.Result, error)
}

// Archiver stores aggregate snapshots and reads them back.
type Archiver interface {
	Save(ctx context.Context, platform domain.Platform, agg *analytics.Aggregate) (*archive.SaveResult, error)
	Get(ctx context.Context, platform domain.Platform, at time.Time) (*archive.Snapshot, error)
}

// InstantlyInbox lists Instantly sending accounts and unibox emails.
type InstantlyInbox interface {
	ListAccounts(ctx context.Context, p instantly.ListParams) (*instantly.AccountPage, error)
	ListEmails(ctx context.Context, p instantly.EmailListParams) (*instantly.EmailPage, error)
}

// HeyReachInbox lists HeyReach LinkedIn senders and conversations.
type HeyReachInbox interface {
	ListLinkedInAccounts(ctx context.Context, p heyreach.Page) (*heyreach.AccountPage, error)
	ListConversations(ctx context.Context, filter heyreach.ConversationFilter, p heyreach.Page) (*heyreach.ConversationPage, error)
}

// Deps are the services the handlers call. Workflows, Archive, Instantly,
// HeyReach and Health may be nil.
type Deps struct {
	Analytics AnalyticsService
	Leads     LeadService
	Sync      SyncService
	Workflows Workflows
	Archive   Archiver
	Instantly InstantlyInbox
	HeyReach  HeyReachInbox
	Health    *HealthChecker

	// RequestTimeout bounds each analytics request. Zero disables it.
	RequestTimeout time.Duration
}

// Server represents the API server
type Server struct {
	config   config.ServerConfig
	handler  http.Handler
	handlers *Handlers
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	handlers := NewHandlers(deps)
	router := SetupRoutes(handlers, cfg.AllowedOrigins, deps.RequestTimeout)

	return &Server{
		config:   cfg,
		handler:  router,
		handlers: handlers,
		router:   router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
