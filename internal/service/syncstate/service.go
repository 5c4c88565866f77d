package syncstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/distlock"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/logger"
)

// Dispatcher pushes one lead into a platform campaign.
type Dispatcher interface {
	Dispatch(ctx context.Context, campaignID string, lead domain.Lead) (json.RawMessage, error)
}

// Query identifies the lead and platform to check. One of LeadID or Email
// is required.
type Query struct {
	LeadID   string
	Email    string
	Source   domain.LeadSource
	Platform domain.Platform
}

// CampaignRef names the campaign a lead was sent to.
type CampaignRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Where a positive Status came from.
const (
	BasisAudit = "audit"
	BasisFlag  = "flag"
)

// Status is the checkSyncStatus result.
type Status struct {
	Synced   bool         `json:"synced"`
	SyncedAt *time.Time   `json:"synced_at,omitempty"`
	Campaign *CampaignRef `json:"campaign,omitempty"`
	LeadID   string       `json:"lead_id,omitempty"`
	Basis    string       `json:"basis,omitempty"`
}

// SendInput records one send attempt.
type SendInput struct {
	LeadID       string            `json:"lead_id"`
	Source       domain.LeadSource `json:"lead_source"`
	CampaignID   string            `json:"campaign_id"`
	CampaignName string            `json:"campaign_name"`
	Platform     domain.Platform   `json:"platform"`
	Status       domain.SendStatus `json:"status"`
	Response     json.RawMessage   `json:"response,omitempty"`
	SentAt       time.Time         `json:"sent_at"`
}

// DispatchInput pushes a stored lead to a platform campaign.
type DispatchInput struct {
	LeadID       string            `json:"lead_id"`
	Source       domain.LeadSource `json:"lead_source"`
	Platform     domain.Platform   `json:"platform"`
	CampaignID   string            `json:"campaign_id"`
	CampaignName string            `json:"campaign_name"`
}

// Service implements sync-state logic. It is safe for concurrent use.
type Service struct {
	repo        Repository
	dispatchers map[domain.Platform]Dispatcher
	newLock     func() distlock.DistLock
	now         func() time.Time
	log         *logger.Logger
}

// NewService creates a sync-state service. newLock may be nil, in which case
// Reconcile runs unguarded (single instance).
func NewService(repo Repository, dispatchers map[domain.Platform]Dispatcher, newLock func() distlock.DistLock) *Service {
	if dispatchers == nil {
		dispatchers = map[domain.Platform]Dispatcher{}
	}
	return &Service{
		repo:        repo,
		dispatchers: dispatchers,
		newLock:     newLock,
		now:         time.Now,
		log:         logger.New("syncstate"),
	}
}

func (q Query) validate() error {
	if _, err := domain.ParseLeadSource(string(q.Source)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if _, err := domain.ParsePlatform(string(q.Platform)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if q.LeadID == "" && domain.NormalizeEmail(q.Email) == "" {
		return fmt.Errorf("%w: email or lead_id is required", ErrInvalidQuery)
	}
	if q.LeadID != "" {
		if _, err := uuid.Parse(q.LeadID); err != nil {
			return fmt.Errorf("%w: lead_id is not a uuid", ErrInvalidQuery)
		}
	}
	return nil
}

// CheckStatus reports whether the lead was sent to the platform. Only a
// malformed query returns an error; lookup failures report Synced=false.
func (s *Service) CheckStatus(ctx context.Context, q Query) (Status, error) {
	if err := q.validate(); err != nil {
		return Status{}, err
	}
	log := s.log.With("source", q.Source, "platform", q.Platform)

	lead, err := s.repo.FindLead(ctx, LeadRef{Source: q.Source, LeadID: q.LeadID, Email: domain.NormalizeEmail(q.Email)})
	if err != nil {
		if !errors.Is(err, ErrLeadNotFound) {
			log.Error("sync check lead lookup failed, reporting not synced", "email", q.Email, "lead_id", q.LeadID, "error", err)
		}
		return Status{Synced: false}, nil
	}

	rec, err := s.repo.LatestSuccessfulSend(ctx, q.Source, lead.ID, q.Platform)
	if err != nil {
		log.Error("sync check audit lookup failed, reporting not synced", "lead_id", lead.ID, "error", err)
		return Status{Synced: false, LeadID: lead.ID}, nil
	}
	if rec != nil {
		sentAt := rec.SentAt
		return Status{
			Synced:   true,
			SyncedAt: &sentAt,
			Campaign: &CampaignRef{ID: rec.CampaignID, Name: rec.CampaignName},
			LeadID:   lead.ID,
			Basis:    BasisAudit,
		}, nil
	}

	// Rows synced before the audit table existed only carry the flag.
	if synced, at := lead.SyncFlag(q.Platform); synced {
		return Status{Synced: true, SyncedAt: at, LeadID: lead.ID, Basis: BasisFlag}, nil
	}
	return Status{Synced: false, LeadID: lead.ID}, nil
}

func (in SendInput) validate() error {
	if _, err := domain.ParseLeadSource(string(in.Source)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if _, err := domain.ParsePlatform(string(in.Platform)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if _, err := domain.ParseSendStatus(string(in.Status)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if _, err := uuid.Parse(in.LeadID); err != nil {
		return fmt.Errorf("%w: lead_id is not a uuid", ErrInvalidQuery)
	}
	if in.CampaignID == "" {
		return fmt.Errorf("%w: campaign_id is required", ErrInvalidQuery)
	}
	if len(in.Response) > 0 && !json.Valid(in.Response) {
		return fmt.Errorf("%w: response is not valid JSON", ErrInvalidQuery)
	}
	return nil
}

// RecordSend upserts the audit row and, for a successful send, sets the
// lead's flag. A flag write failure is logged; Reconcile repairs it.
func (s *Service) RecordSend(ctx context.Context, in SendInput) (*domain.SendRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindLead(ctx, LeadRef{Source: in.Source, LeadID: in.LeadID}); err != nil {
		return nil, err
	}

	sentAt := in.SentAt
	if sentAt.IsZero() {
		sentAt = s.now().UTC()
	}
	rec := &domain.SendRecord{
		LeadID:       in.LeadID,
		LeadSource:   in.Source,
		CampaignID:   in.CampaignID,
		CampaignName: in.CampaignName,
		Platform:     in.Platform,
		SentAt:       sentAt,
		Status:       in.Status,
		Response:     in.Response,
	}
	if err := s.repo.UpsertSend(ctx, rec); err != nil {
		return nil, fmt.Errorf("record send: %w", err)
	}

	if rec.Status.Successful() {
		if err := s.repo.MarkSynced(ctx, in.Source, in.LeadID, in.Platform, sentAt); err != nil {
			s.log.Warn("sync flag update failed, audit row kept", "lead_id", in.LeadID, "platform", in.Platform, "error", err)
		}
	}
	return rec, nil
}

// Dispatch pushes the lead through the platform gateway and records the
// outcome. A gateway failure is recorded as a failed send and returned.
func (s *Service) Dispatch(ctx context.Context, in DispatchInput) (*domain.SendRecord, error) {
	d, ok := s.dispatchers[in.Platform]
	if !ok {
		return nil, fmt.Errorf("%s: %w", in.Platform, ErrNoDispatcher)
	}
	if _, err := uuid.Parse(in.LeadID); err != nil {
		return nil, fmt.Errorf("%w: lead_id is not a uuid", ErrInvalidQuery)
	}
	if in.CampaignID == "" {
		return nil, fmt.Errorf("%w: campaign_id is required", ErrInvalidQuery)
	}
	lead, err := s.repo.FindLead(ctx, LeadRef{Source: in.Source, LeadID: in.LeadID})
	if err != nil {
		return nil, err
	}

	resp, sendErr := d.Dispatch(ctx, in.CampaignID, *lead)
	status := domain.SendSent
	if sendErr != nil {
		status = domain.SendFailed
		resp, _ = json.Marshal(map[string]string{"error": sendErr.Error()})
	}

	rec, err := s.RecordSend(ctx, SendInput{
		LeadID:       in.LeadID,
		Source:       in.Source,
		CampaignID:   in.CampaignID,
		CampaignName: in.CampaignName,
		Platform:     in.Platform,
		Status:       status,
		Response:     resp,
	})
	if err != nil {
		if sendErr != nil {
			return nil, errors.Join(sendErr, err)
		}
		return nil, err
	}
	if sendErr != nil {
		return rec, fmt.Errorf("dispatch to %s: %w", in.Platform, sendErr)
	}
	return rec, nil
}

// History returns the lead's send records, most recent first.
func (s *Service) History(ctx context.Context, source domain.LeadSource, leadID string) ([]domain.SendRecord, error) {
	if _, err := domain.ParseLeadSource(string(source)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if _, err := uuid.Parse(leadID); err != nil {
		return nil, ErrLeadNotFound
	}
	return s.repo.History(ctx, source, leadID)
}

// Reconcile rebuilds the flag cache from the audit table. With a lock
// configured, only the instance holding it runs; others get
// ErrReconcileLocked.
func (s *Service) Reconcile(ctx context.Context) (int64, error) {
	if s.newLock != nil {
		lock := s.newLock()
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			return 0, fmt.Errorf("acquire reconcile lock: %w", err)
		}
		if !acquired {
			return 0, ErrReconcileLocked
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("reconcile lock release failed", "error", err)
			}
		}()
	}

	start := s.now()
	n, err := s.repo.ReconcileFlags(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile flags: %w", err)
	}
	s.log.Info("sync flags reconciled", "rows", n, "duration", s.now().Sub(start))
	return n, nil
}
