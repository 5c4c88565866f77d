package lead

import (
	"context"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
)

// Repository defines the data access contract for leads.
type Repository interface {
	// Upsert inserts the lead or, when it collides with an existing row on
	// (email, company) or LinkedIn URL, returns that row's id.
	Upsert(ctx context.Context, source domain.LeadSource, in domain.LeadInput) (domain.UpsertResult, error)

	// Get returns ErrNotFound if the id does not exist in the source table.
	Get(ctx context.Context, source domain.LeadSource, id string) (*domain.Lead, error)

	// List returns leads matching the filter, newest first, and the total match count.
	List(ctx context.Context, source domain.LeadSource, filter domain.LeadFilter) ([]domain.Lead, int, error)
}
