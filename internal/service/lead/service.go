package lead

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/logger"
)

// Listing bounds.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Service implements lead business logic. It is safe for concurrent use.
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService creates a lead service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, log: logger.New("lead")}
}

// Upsert normalizes and validates the input, then inserts or resolves the
// existing lead.
func (s *Service) Upsert(ctx context.Context, source domain.LeadSource, in domain.LeadInput) (domain.UpsertResult, error) {
	if _, err := domain.ParseLeadSource(string(source)); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	res, err := s.repo.Upsert(ctx, source, in)
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("upsert %s lead: %w", source, err)
	}
	s.log.Info("lead upserted", "source", source, "lead_id", res.LeadID,
		"inserted", res.WasInserted, "email", in.Email)
	return res, nil
}

// Get returns one lead. A malformed id is reported as ErrNotFound.
func (s *Service) Get(ctx context.Context, source domain.LeadSource, id string) (*domain.Lead, error) {
	if _, err := domain.ParseLeadSource(string(source)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, source, id)
}

// List returns leads matching the filter and the total match count.
func (s *Service) List(ctx context.Context, source domain.LeadSource, f domain.LeadFilter) ([]domain.Lead, int, error) {
	if _, err := domain.ParseLeadSource(string(source)); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, source, f)
}
