package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
)

var (
	// ErrPlatformNotConfigured is returned for a platform with no registered source.
	ErrPlatformNotConfigured = errors.New("platform not configured")
	// ErrInvalidDays is returned when a daily range is outside 1..MaxDays.
	ErrInvalidDays = errors.New("days out of range")
)

// Daily range bounds.
const (
	DefaultDays = 7
	MaxDays     = 90
)

// Source is one platform as seen by the engine.
type Source interface {
	Platform() domain.Platform
	Campaigns(ctx context.Context) ([]domain.Campaign, error)
	// CampaignMetrics returns nil, nil when the campaign has no activity.
	CampaignMetrics(ctx context.Context, campaignID string) (*domain.CampaignMetrics, error)
	DailyMetrics(ctx context.Context, campaignID string, from, to time.Time) ([]domain.DailyPoint, error)
}

// CampaignReport is one campaign's metrics with derived figures.
type CampaignReport struct {
	domain.Campaign
	Metrics        domain.CampaignMetrics `json:"metrics"`
	Rates          domain.Rates           `json:"rates"`
	LeadsReady     int64                  `json:"leads_ready"`
	NoActivity     bool                   `json:"no_activity"`
	Degraded       bool                   `json:"degraded"`
	DegradedReason string                 `json:"degraded_reason,omitempty"`
}

// Summary is the field-wise total over a set of campaigns.
type Summary struct {
	domain.CampaignMetrics
	Rates         domain.Rates `json:"rates"`
	LeadsReady    int64        `json:"leads_ready"`
	CampaignCount int          `json:"campaign_count"`
	ActiveCount   int          `json:"active_count"`
	DegradedCount int          `json:"degraded_count"`
}

// Changes are percentage deltas between the two halves of a daily series,
// rounded to one decimal.
type Changes struct {
	Sent    float64 `json:"sent"`
	Opened  float64 `json:"opened"`
	Replies float64 `json:"replies"`
	Clicks  float64 `json:"clicks"`
}

// Aggregate is the getAggregatedAnalytics result.
type Aggregate struct {
	Platform    domain.Platform  `json:"platform"`
	Totals      Summary          `json:"totals"`
	Changes     Changes          `json:"changes"`
	Campaigns   []CampaignReport `json:"campaigns"`
	GeneratedAt time.Time        `json:"generated_at"`
	// ChangesDegraded is set when a campaign's daily series could not be
	// fetched, so Changes under-count.
	ChangesDegraded bool `json:"changes_degraded,omitempty"`
}

// DailyTotals sums a daily series.
type DailyTotals struct {
	Sent          int64 `json:"sent"`
	Opened        int64 `json:"opened"`
	UniqueOpened  int64 `json:"unique_opened"`
	Replies       int64 `json:"replies"`
	UniqueReplies int64 `json:"unique_replies"`
	Clicks        int64 `json:"clicks"`
	UniqueClicks  int64 `json:"unique_clicks"`
	OpenRate      int   `json:"open_rate"`
	ReplyRate     int   `json:"reply_rate"`
	ClickRate     int   `json:"click_rate"`
}

// DailySeries is the getDailySeries result.
type DailySeries struct {
	Platform          domain.Platform     `json:"platform"`
	Days              int                 `json:"days"`
	From              string              `json:"from"`
	To                string              `json:"to"`
	DailyData         []domain.DailyPoint `json:"daily_data"`
	Totals            DailyTotals         `json:"totals"`
	Changes           Changes             `json:"changes"`
	DegradedCampaigns []string            `json:"degraded_campaigns,omitempty"`
}
