package instantly

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

// Config holds the client settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	PageSize   int
}

// ListParams pages through cursor-based list endpoints.
type ListParams struct {
	Limit         int
	StartingAfter string
}

// Campaign is a campaign as returned by GET /api/v2/campaigns.
type Campaign struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Status           int        `json:"status"`
	TimestampCreated *time.Time `json:"timestamp_created,omitempty"`
	TimestampUpdated *time.Time `json:"timestamp_updated,omitempty"`
	DailyLimit       int        `json:"daily_limit,omitempty"`
}

// CampaignPage is one page of campaigns.
type CampaignPage struct {
	Items             []Campaign `json:"items"`
	NextStartingAfter string     `json:"next_starting_after,omitempty"`
	HasMore           bool       `json:"has_more"`
}

// CampaignAnalytics is one record from GET /api/v2/campaigns/analytics.
type CampaignAnalytics struct {
	CampaignID            string `json:"campaign_id"`
	CampaignName          string `json:"campaign_name"`
	CampaignStatus        int    `json:"campaign_status"`
	LeadsCount            int64  `json:"leads_count"`
	ContactedCount        int64  `json:"contacted_count"`
	CompletedCount        int64  `json:"completed_count"`
	EmailsSentCount       int64  `json:"emails_sent_count"`
	NewLeadsContacted     int64  `json:"new_leads_contacted_count"`
	OpenCount             int64  `json:"open_count"`
	OpenCountUnique       int64  `json:"open_count_unique"`
	ReplyCount            int64  `json:"reply_count"`
	ReplyCountUnique      int64  `json:"reply_count_unique"`
	LinkClickCount        int64  `json:"link_click_count"`
	LinkClickCountUnique  int64  `json:"link_click_count_unique"`
	BouncedCount          int64  `json:"bounced_count"`
	UnsubscribedCount     int64  `json:"unsubscribed_count"`
	TotalOpportunities    int64  `json:"total_opportunities"`
	TotalMeetingBooked    int64  `json:"total_meeting_booked"`
	TotalMeetingCompleted int64  `json:"total_meeting_completed"`
}

// hasUniqueCounts reports whether the record already carries unique metrics.
func (a *CampaignAnalytics) hasUniqueCounts() bool {
	return a.OpenCountUnique > 0 || a.ReplyCountUnique > 0 || a.LinkClickCountUnique > 0
}

// FirstAnalytics reduces an analytics list to one record: the first record,
// or nil when the list is empty.
func FirstAnalytics(list []CampaignAnalytics) *CampaignAnalytics {
	if len(list) == 0 {
		return nil
	}
	first := list[0]
	return &first
}

// decodeAnalytics accepts a single object, a list, or an empty body.
func decodeAnalytics(body []byte) ([]CampaignAnalytics, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []CampaignAnalytics
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var one CampaignAnalytics
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, err
	}
	if one == (CampaignAnalytics{}) {
		return nil, nil
	}
	return []CampaignAnalytics{one}, nil
}

// AnalyticsOverview carries the unique-visitor metrics from
// GET /api/v2/campaigns/analytics/overview.
type AnalyticsOverview struct {
	OpenCount            int64 `json:"open_count"`
	OpenCountUnique      int64 `json:"open_count_unique"`
	LinkClickCount       int64 `json:"link_click_count"`
	LinkClickCountUnique int64 `json:"link_click_count_unique"`
	ReplyCount           int64 `json:"reply_count"`
	ReplyCountUnique     int64 `json:"reply_count_unique"`
	BouncedCount         int64 `json:"bounced_count"`
	UnsubscribedCount    int64 `json:"unsubscribed_count"`
	EmailsSentCount      int64 `json:"emails_sent_count"`
	TotalOpportunities   int64 `json:"total_opportunities"`
	MeetingsBooked       int64 `json:"total_meeting_booked"`
	MeetingsCompleted    int64 `json:"total_meeting_completed"`
}

// DailyAnalytics is one day from GET /api/v2/campaigns/analytics/daily.
type DailyAnalytics struct {
	Date          string `json:"date"`
	Sent          int64  `json:"sent"`
	Opened        int64  `json:"opened"`
	UniqueOpened  int64  `json:"unique_opened"`
	Replies       int64  `json:"replies"`
	UniqueReplies int64  `json:"unique_replies"`
	Clicks        int64  `json:"clicks"`
	UniqueClicks  int64  `json:"unique_clicks"`
}

// Account is a sending mailbox.
type Account struct {
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name,omitempty"`
	LastName     string     `json:"last_name,omitempty"`
	Status       int        `json:"status"`
	WarmupStatus int        `json:"warmup_status"`
	DailyLimit   int        `json:"daily_limit,omitempty"`
	CreatedAt    *time.Time `json:"timestamp_created,omitempty"`
}

// AccountPage is one page of accounts.
type AccountPage struct {
	Items             []Account `json:"items"`
	NextStartingAfter string    `json:"next_starting_after,omitempty"`
	HasMore           bool      `json:"has_more"`
}

// EmailListParams filters the unibox listing.
type EmailListParams struct {
	CampaignID    string
	Limit         int
	StartingAfter string
}

// Email is one message in the unibox.
type Email struct {
	ID             string     `json:"id"`
	Subject        string     `json:"subject"`
	FromAddress    string     `json:"from_address_email"`
	ToAddressList  string     `json:"to_address_email_list"`
	CampaignID     string     `json:"campaign_id,omitempty"`
	Lead           string     `json:"lead,omitempty"`
	ThreadID       string     `json:"thread_id,omitempty"`
	Timestamp      *time.Time `json:"timestamp_email,omitempty"`
	IsUnread       int        `json:"is_unread,omitempty"`
	ContentPreview string     `json:"content_preview,omitempty"`
}

// EmailPage is one page of unibox messages.
type EmailPage struct {
	Items             []Email `json:"items"`
	NextStartingAfter string  `json:"next_starting_after,omitempty"`
	HasMore           bool    `json:"has_more"`
}

// LeadInput is the body of POST /api/v2/leads.
type LeadInput struct {
	Campaign        string            `json:"campaign"`
	Email           string            `json:"email"`
	FirstName       string            `json:"first_name,omitempty"`
	LastName        string            `json:"last_name,omitempty"`
	CompanyName     string            `json:"company_name,omitempty"`
	Phone           string            `json:"phone,omitempty"`
	CustomVariables map[string]string `json:"custom_variables,omitempty"`
}

var errMissingEmail = errors.New("lead has no email address")
