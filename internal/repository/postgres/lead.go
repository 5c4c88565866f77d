package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/service/lead"
)

// LeadRepo implements lead.Repository against the email_leads and
// linkedin_leads tables.
type LeadRepo struct{ db *sql.DB }

// NewLeadRepo creates a Postgres-backed lead repository.
func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

const leadColumns = `id, COALESCE(full_name,''), company, COALESCE(title,''),
	COALESCE(email,''), COALESCE(phone,''), COALESCE(linkedin_url,''),
	COALESCE(niche,''), tags, created_at, updated_at,
	instantly_synced, instantly_synced_at, heyreach_synced, heyreach_synced_at`

// Upsert inserts the lead or resolves the existing row that conflicts on
// (email, company) or linkedin_url. Empty email and URL are stored as NULL
// so they never collide.
func (r *LeadRepo) Upsert(ctx context.Context, source domain.LeadSource, in domain.LeadInput) (domain.UpsertResult, error) {
	table := source.Table()
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	var id string
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, full_name, company, title, email, phone, linkedin_url, niche, tags)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), $6, NULLIF($7,''), $8, $9)
		ON CONFLICT DO NOTHING
		RETURNING id`, table),
		uuid.New().String(), in.FullName, in.Company, in.Title, in.Email,
		in.Phone, in.LinkedInURL, in.Niche, pq.Array(tags),
	).Scan(&id)
	if err == nil {
		return domain.UpsertResult{LeadID: id, WasInserted: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.UpsertResult{}, fmt.Errorf("insert lead: %w", err)
	}

	err = r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id FROM %s
		WHERE (email = NULLIF($1,'') AND company = $2)
		   OR (linkedin_url = NULLIF($3,''))
		ORDER BY created_at
		LIMIT 1`, table),
		in.Email, in.Company, in.LinkedInURL,
	).Scan(&id)
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("resolve existing lead: %w", err)
	}
	return domain.UpsertResult{LeadID: id, WasInserted: false}, nil
}

func (r *LeadRepo) Get(ctx context.Context, source domain.LeadSource, id string) (*domain.Lead, error) {
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, leadColumns, source.Table()), id)
	l, err := scanLead(row, source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, lead.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

func (r *LeadRepo) List(ctx context.Context, source domain.LeadSource, f domain.LeadFilter) ([]domain.Lead, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if f.Niche != "" {
		where += fmt.Sprintf(" AND niche = $%d", idx)
		args = append(args, f.Niche)
		idx++
	}
	if f.Tag != "" {
		where += fmt.Sprintf(" AND tags @> $%d", idx)
		args = append(args, pq.Array([]string{f.Tag}))
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+source.Table()+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	q := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		leadColumns, source.Table(), where, idx, idx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows, source)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLead(s rowScanner, source domain.LeadSource) (*domain.Lead, error) {
	l := &domain.Lead{Source: source}
	var instAt, hrAt sql.NullTime
	var tags pq.StringArray
	err := s.Scan(
		&l.ID, &l.FullName, &l.Company, &l.Title,
		&l.Email, &l.Phone, &l.LinkedInURL,
		&l.Niche, &tags, &l.CreatedAt, &l.UpdatedAt,
		&l.InstantlySynced, &instAt, &l.HeyReachSynced, &hrAt,
	)
	if err != nil {
		return nil, err
	}
	l.Tags = []string(tags)
	if l.Tags == nil {
		l.Tags = []string{}
	}
	l.InstantlySyncedAt = nullTime(instAt)
	l.HeyReachSyncedAt = nullTime(hrAt)
	return l, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
