package heyreach

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/gateway"
)

// statsLookback is the start of the lifetime stats window when the
// campaign reports no creation time.
const statsLookback = 365 * 24 * time.Hour

// Source adapts the client to the analytics engine and the sync dispatcher.
type Source struct {
	client *Client
	now    func() time.Time
}

// NewSource wraps a client.
func NewSource(client *Client) *Source {
	return &Source{client: client, now: time.Now}
}

// Platform implements analytics.Source.
func (s *Source) Platform() domain.Platform { return domain.PlatformHeyReach }

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
		out = append(out, toDomainCampaign(c))
	}
	return out, nil
}

func toDomainCampaign(c Campaign) domain.Campaign {
	return domain.Campaign{
		ID:        string(c.ID),
		Name:      c.Name,
		Status:    domain.StatusFromHeyReach(c.Status),
		CreatedAt: c.CreationTime,
		Platform:  domain.PlatformHeyReach,
	}
}

// CampaignMetrics maps LinkedIn activity onto the shared metrics shape:
// sends are messages plus connection requests, opens are accepted
// connections, replies are message replies. Clicks are not tracked.
// Returns nil when the campaign has neither leads nor activity.
func (s *Source) CampaignMetrics(ctx context.Context, campaignID string) (*domain.CampaignMetrics, error) {
	id, err := ID(campaignID).Int()
	if err != nil {
		return nil, &gateway.Error{Platform: platform, Op: "get_campaign", Kind: gateway.KindNotFound, Err: err}
	}

	campaign, err := s.client.GetCampaign(ctx, campaignID)
	if err != nil {
		if gateway.KindOf(err) == gateway.KindNotFound {
			return nil, nil
		}
		return nil, err
	}

	now := s.now()
	start := now.Add(-statsLookback)
	if campaign.CreationTime != nil && campaign.CreationTime.Before(now) {
		start = *campaign.CreationTime
	}
	stats, err := s.client.GetOverallStats(ctx, StatsRequest{
		CampaignIDs: []int64{id},
		StartDate:   start,
		EndDate:     now,
	})
	if err != nil {
		return nil, err
	}

	var overall StatBlock
	if stats.Overall != nil {
		overall = *stats.Overall
	}
	var progress ProgressStats
	if campaign.ProgressStats != nil {
		progress = *campaign.ProgressStats
	}
	if overall.Empty() && progress.TotalUsers == 0 {
		return nil, nil
	}
	return metricsFromStats(overall, progress), nil
}

func metricsFromStats(st StatBlock, p ProgressStats) *domain.CampaignMetrics {
	contacted := p.TotalUsers - p.TotalUsersPending
	if contacted < 0 {
		contacted = 0
	}
	return &domain.CampaignMetrics{
		LeadsTotal:         p.TotalUsers,
		Contacted:          contacted,
		Sent:               st.MessagesSent + st.ConnectionsSent,
		Opens:              st.ConnectionsAccepted,
		UniqueOpens:        st.ConnectionsAccepted,
		Replies:            st.TotalMessageReplies,
		UniqueReplies:      st.TotalMessageReplies,
		CompletedLeadCount: p.TotalUsersFinished,
	}
}

// DailyMetrics returns per-day points for one campaign, sorted by date.
func (s *Source) DailyMetrics(ctx context.Context, campaignID string, from, to time.Time) ([]domain.DailyPoint, error) {
	id, err := ID(campaignID).Int()
	if err != nil {
		return nil, &gateway.Error{Platform: platform, Op: "get_overall_stats", Kind: gateway.KindNotFound, Err: err}
	}
	stats, err := s.client.GetOverallStats(ctx, StatsRequest{
		CampaignIDs: []int64{id},
		StartDate:   from,
		EndDate:     to,
	})
	if err != nil {
		if gateway.KindOf(err) == gateway.KindNotFound {
			return nil, nil
		}
		return nil, err
	}

	out := make([]domain.DailyPoint, 0, len(stats.ByDay))
	for day, st := range stats.ByDay {
		date := day
		if len(date) > len(domain.DateLayout) {
			date = date[:len(domain.DateLayout)]
		}
		out = append(out, domain.DailyPoint{
			Date:          date,
			Sent:          st.MessagesSent + st.ConnectionsSent,
			Opened:        st.ConnectionsAccepted,
			UniqueOpened:  st.ConnectionsAccepted,
			Replies:       st.TotalMessageReplies,
			UniqueReplies: st.TotalMessageReplies,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

var errMissingProfile = errors.New("lead has no LinkedIn profile URL")

// Dispatch pushes a lead into a campaign.
func (s *Source) Dispatch(ctx context.Context, campaignID string, lead domain.Lead) (json.RawMessage, error) {
	if lead.LinkedInURL == "" {
		return nil, &gateway.Error{Platform: platform, Op: "add_leads_to_campaign", Kind: gateway.KindRejected, Err: errMissingProfile}
	}
	parts := strings.Fields(lead.FullName)
	in := LeadInput{
		ProfileURL:   lead.LinkedInURL,
		CompanyName:  lead.Company,
		Position:     lead.Title,
		EmailAddress: lead.Email,
	}
	if len(parts) > 0 {
		in.FirstName = parts[0]
		in.LastName = strings.Join(parts[1:], " ")
	}
	if lead.Niche != "" {
		in.CustomUserFields = []CustomField{{Name: "niche", Value: lead.Niche}}
	}
	return s.client.AddLeadsToCampaign(ctx, campaignID, []LeadInput{in})
}
