package instantly

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/gateway"
)

// Source adapts the client to the analytics engine and the sync dispatcher.
type Source struct {
	client *Client
}

// NewSource wraps a client.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// Platform implements analytics.Source.
func (s *Source) Platform() domain.Platform { return domain.PlatformInstantly }

// Configured reports whether the underlying client has a credential.
func (s *Source) Configured() bool { return s.client.Configured() }

// Campaigns lists every campaign, normalized.
func (s *Source) Campaigns(ctx context.Context) ([]domain.Campaign, error) {
	raw, err := s.client.AllCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Campaign, 0, len(raw))
	for _, c := range raw {
		out = append(out, domain.Campaign{
			ID:        c.ID,
			Name:      c.Name,
			Status:    domain.StatusFromInstantly(c.Status),
			CreatedAt: c.TimestampCreated,
			Platform:  domain.PlatformInstantly,
		})
	}
	return out, nil
}

// CampaignMetrics returns nil when the campaign has no recorded activity.
// When the analytics record lacks unique counts, the overview endpoint
// fills them; an overview failure leaves them at zero.
func (s *Source) CampaignMetrics(ctx context.Context, campaignID string) (*domain.CampaignMetrics, error) {
	a, err := s.client.GetCampaignAnalytics(ctx, campaignID)
	if err != nil || a == nil {
		return nil, err
	}
	m := metricsFromAnalytics(a)

	if !a.hasUniqueCounts() && (a.OpenCount > 0 || a.ReplyCount > 0 || a.LinkClickCount > 0) {
		ov, err := s.client.GetAnalyticsOverview(ctx, campaignID)
		if err != nil {
			s.client.log.Warn("analytics overview unavailable", "campaign_id", campaignID, "error", err)
		} else {
			m.UniqueOpens = ov.OpenCountUnique
			m.UniqueClicks = ov.LinkClickCountUnique
			m.UniqueReplies = ov.ReplyCountUnique
		}
	}
	return m, nil
}

func metricsFromAnalytics(a *CampaignAnalytics) *domain.CampaignMetrics {
	return &domain.CampaignMetrics{
		LeadsTotal:         a.LeadsCount,
		Contacted:          a.ContactedCount,
		Sent:               a.EmailsSentCount,
		Opens:              a.OpenCount,
		UniqueOpens:        a.OpenCountUnique,
		Clicks:             a.LinkClickCount,
		UniqueClicks:       a.LinkClickCountUnique,
		Replies:            a.ReplyCount,
		UniqueReplies:      a.ReplyCountUnique,
		Bounces:            a.BouncedCount,
		Unsubscribes:       a.UnsubscribedCount,
		MeetingsBooked:     a.TotalMeetingBooked,
		MeetingsCompleted:  a.TotalMeetingCompleted,
		Opportunities:      a.TotalOpportunities,
		CompletedLeadCount: a.CompletedCount,
	}
}

// DailyMetrics returns the campaign's per-day points between from and to.
func (s *Source) DailyMetrics(ctx context.Context, campaignID string, from, to time.Time) ([]domain.DailyPoint, error) {
	days, err := s.client.GetDailyAnalytics(ctx, campaignID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DailyPoint, 0, len(days))
	for _, d := range days {
		out = append(out, domain.DailyPoint{
			Date:          normalizeDate(d.Date),
			Sent:          d.Sent,
			Opened:        d.Opened,
			UniqueOpened:  d.UniqueOpened,
			Replies:       d.Replies,
			UniqueReplies: d.UniqueReplies,
			Clicks:        d.Clicks,
			UniqueClicks:  d.UniqueClicks,
		})
	}
	return out, nil
}

// normalizeDate keeps the calendar part of "2025-01-01" or an RFC 3339 stamp.
func normalizeDate(s string) string {
	if len(s) >= len(domain.DateLayout) {
		return s[:len(domain.DateLayout)]
	}
	return s
}

// Dispatch pushes a lead into a campaign.
func (s *Source) Dispatch(ctx context.Context, campaignID string, lead domain.Lead) (json.RawMessage, error) {
	if lead.Email == "" {
		return nil, &gateway.Error{Platform: platform, Op: "add_lead", Kind: gateway.KindRejected,
			Err: errMissingEmail}
	}
	first, last := splitName(lead.FullName)
	in := LeadInput{
		Campaign:    campaignID,
		Email:       lead.Email,
		FirstName:   first,
		LastName:    last,
		CompanyName: lead.Company,
		Phone:       lead.Phone,
	}
	vars := map[string]string{}
	if lead.Title != "" {
		vars["jobTitle"] = lead.Title
	}
	if lead.LinkedInURL != "" {
		vars["linkedIn"] = lead.LinkedInURL
	}
	if lead.Niche != "" {
		vars["niche"] = lead.Niche
	}
	if len(vars) > 0 {
		in.CustomVariables = vars
	}
	return s.client.AddLead(ctx, in)
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
