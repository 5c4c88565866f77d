package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/service/syncstate"
)

// SendRepo implements syncstate.Repository over campaign_sends and the
// lead tables' sync flags.
type SendRepo struct{ db *sql.DB }

// NewSendRepo creates a Postgres-backed send record repository.
func NewSendRepo(db *sql.DB) *SendRepo { return &SendRepo{db: db} }

const sendColumns = `id, lead_id, lead_source, campaign_id, COALESCE(campaign_name,''),
	platform, sent_at, status, response`

func (r *SendRepo) FindLead(ctx context.Context, ref syncstate.LeadRef) (*domain.Lead, error) {
	var row *sql.Row
	if ref.LeadID != "" {
		row = r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`,
			leadColumns, ref.Source.Table()), ref.LeadID)
	} else {
		row = r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE email = $1 ORDER BY created_at LIMIT 1`,
			leadColumns, ref.Source.Table()), ref.Email)
	}
	l, err := scanLead(row, ref.Source)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, syncstate.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find lead: %w", err)
	}
	return l, nil
}

func (r *SendRepo) LatestSuccessfulSend(ctx context.Context, source domain.LeadSource, leadID string, platform domain.Platform) (*domain.SendRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sendColumns+`
		FROM campaign_sends
		WHERE lead_id = $1 AND lead_source = $2 AND platform = $3 AND status = $4
		ORDER BY sent_at DESC
		LIMIT 1`, leadID, source, platform, domain.SendSent)
	rec, err := scanSend(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest send: %w", err)
	}
	return rec, nil
}

func (r *SendRepo) UpsertSend(ctx context.Context, rec *domain.SendRecord) error {
	var payload interface{}
	if len(rec.Response) > 0 {
		payload = []byte(rec.Response)
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO campaign_sends (id, lead_id, lead_source, campaign_id, campaign_name, platform, sent_at, status, response)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (lead_id, lead_source, campaign_id) DO UPDATE SET
			campaign_name = EXCLUDED.campaign_name,
			platform = EXCLUDED.platform,
			sent_at = EXCLUDED.sent_at,
			status = EXCLUDED.status,
			response = EXCLUDED.response
		RETURNING id`,
		uuid.New().String(), rec.LeadID, rec.LeadSource, rec.CampaignID, rec.CampaignName,
		rec.Platform, rec.SentAt, rec.Status, payload,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("upsert send: %w", err)
	}
	return nil
}

func (r *SendRepo) MarkSynced(ctx context.Context, source domain.LeadSource, leadID string, platform domain.Platform, at time.Time) error {
	col := string(platform)
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s
		SET %s_synced = TRUE, %s_synced_at = COALESCE(%s_synced_at, $2), updated_at = NOW()
		WHERE id = $1`, source.Table(), col, col, col), leadID, at)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

func (r *SendRepo) History(ctx context.Context, source domain.LeadSource, leadID string) ([]domain.SendRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sendColumns+`
		FROM campaign_sends
		WHERE lead_id = $1 AND lead_source = $2
		ORDER BY sent_at DESC`, leadID, source)
	if err != nil {
		return nil, fmt.Errorf("send history: %w", err)
	}
	defer rows.Close()

	out := []domain.SendRecord{}
	for rows.Next() {
		rec, err := scanSend(rows)
		if err != nil {
			return nil, fmt.Errorf("scan send: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// ReconcileFlags runs one UPDATE per (table, platform). Each sets the flag
// from the earliest successful send and leaves existing timestamps alone.
func (r *SendRepo) ReconcileFlags(ctx context.Context) (int64, error) {
	var total int64
	for _, source := range []domain.LeadSource{domain.SourceEmail, domain.SourceLinkedIn} {
		for _, platform := range []domain.Platform{domain.PlatformInstantly, domain.PlatformHeyReach} {
			col := string(platform)
			res, err := r.db.ExecContext(ctx, fmt.Sprintf(`
				UPDATE %s AS l
				SET %s_synced = TRUE,
				    %s_synced_at = COALESCE(l.%s_synced_at, s.first_sent),
				    updated_at = NOW()
				FROM (
					SELECT lead_id, MIN(sent_at) AS first_sent
					FROM campaign_sends
					WHERE lead_source = $1 AND platform = $2 AND status = $3
					GROUP BY lead_id
				) AS s
				WHERE l.id = s.lead_id
				  AND (l.%s_synced IS NOT TRUE OR l.%s_synced_at IS NULL)`,
				source.Table(), col, col, col, col, col),
				source, platform, domain.SendSent)
			if err != nil {
				return total, fmt.Errorf("reconcile %s %s: %w", source.Table(), platform, err)
			}
			n, _ := res.RowsAffected()
			total += n
		}
	}
	return total, nil
}

func scanSend(s rowScanner) (*domain.SendRecord, error) {
	rec := &domain.SendRecord{}
	var payload []byte
	err := s.Scan(&rec.ID, &rec.LeadID, &rec.LeadSource, &rec.CampaignID, &rec.CampaignName,
		&rec.Platform, &rec.SentAt, &rec.Status, &payload)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		rec.Response = payload
	}
	return rec, nil
}
