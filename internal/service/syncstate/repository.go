package syncstate

import (
	"context"
	"time"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
)

// LeadRef locates a lead by id or by normalized email within one table.
type LeadRef struct {
	Source domain.LeadSource
	LeadID string
	Email  string
}

// Repository defines the data access contract for send records and flags.
type Repository interface {
	// FindLead returns ErrLeadNotFound when no row matches.
	FindLead(ctx context.Context, ref LeadRef) (*domain.Lead, error)

	// LatestSuccessfulSend returns the most recent successful send for the
	// lead on the platform, or nil when there is none.
	LatestSuccessfulSend(ctx context.Context, source domain.LeadSource, leadID string, platform domain.Platform) (*domain.SendRecord, error)

	// UpsertSend inserts the record or, for an existing (lead, source,
	// campaign), updates its status, time and payload. rec.ID is set.
	UpsertSend(ctx context.Context, rec *domain.SendRecord) error

	// MarkSynced sets the platform flag; an existing timestamp is kept.
	MarkSynced(ctx context.Context, source domain.LeadSource, leadID string, platform domain.Platform, at time.Time) error

	// History returns the lead's send records, most recent first.
	History(ctx context.Context, source domain.LeadSource, leadID string) ([]domain.SendRecord, error)

	// ReconcileFlags sets every flag that the audit table proves and returns
	// the number of rows changed.
	ReconcileFlags(ctx context.Context) (int64, error)
}
