package domain

// CampaignMetrics holds the counts reported for one campaign, or the sum
// over many. Rates are derived, never stored.
type CampaignMetrics struct {
	LeadsTotal         int64 `json:"leads_count"`
	Contacted          int64 `json:"contacted_count"`
	Sent               int64 `json:"emails_sent_count"`
	Opens              int64 `json:"open_count"`
	UniqueOpens        int64 `json:"open_count_unique"`
	Clicks             int64 `json:"link_click_count"`
	UniqueClicks       int64 `json:"link_click_count_unique"`
	Replies            int64 `json:"reply_count"`
	UniqueReplies      int64 `json:"reply_count_unique"`
	Bounces            int64 `json:"bounced_count"`
	Unsubscribes       int64 `json:"unsubscribed_count"`
	MeetingsBooked     int64 `json:"meetings_booked"`
	MeetingsCompleted  int64 `json:"meetings_completed"`
	Opportunities      int64 `json:"total_opportunities"`
	CompletedLeadCount int64 `json:"completed_count"`
}

// Add accumulates other into m field by field.
func (m *CampaignMetrics) Add(other CampaignMetrics) {
	m.LeadsTotal += other.LeadsTotal
	m.Contacted += other.Contacted
	m.Sent += other.Sent
	m.Opens += other.Opens
	m.UniqueOpens += other.UniqueOpens
	m.Clicks += other.Clicks
	m.UniqueClicks += other.UniqueClicks
	m.Replies += other.Replies
	m.UniqueReplies += other.UniqueReplies
	m.Bounces += other.Bounces
	m.Unsubscribes += other.Unsubscribes
	m.MeetingsBooked += other.MeetingsBooked
	m.MeetingsCompleted += other.MeetingsCompleted
	m.Opportunities += other.Opportunities
	m.CompletedLeadCount += other.CompletedLeadCount
}

// Rates are integer percentages in [0,100].
type Rates struct {
	OpenRate        int `json:"open_rate"`
	UniqueOpenRate  int `json:"unique_open_rate"`
	ClickRate       int `json:"click_rate"`
	ReplyRate       int `json:"reply_rate"`
	BounceRate      int `json:"bounce_rate"`
	UnsubscribeRate int `json:"unsubscribe_rate"`
}

// DailyPoint is one calendar day of activity, summed across campaigns.
type DailyPoint struct {
	Date          string `json:"date"`
	Sent          int64  `json:"sent"`
	Opened        int64  `json:"opened"`
	UniqueOpened  int64  `json:"unique_opened"`
	Replies       int64  `json:"replies"`
	UniqueReplies int64  `json:"unique_replies"`
	Clicks        int64  `json:"clicks"`
	UniqueClicks  int64  `json:"unique_clicks"`
}

// Add accumulates other into p. The date is left unchanged.
func (p *DailyPoint) Add(other DailyPoint) {
	p.Sent += other.Sent
	p.Opened += other.Opened
	p.UniqueOpened += other.UniqueOpened
	p.Replies += other.Replies
	p.UniqueReplies += other.UniqueReplies
	p.Clicks += other.Clicks
	p.UniqueClicks += other.UniqueClicks
}

// DateLayout is the calendar-date key used by daily series.
const DateLayout = "2006-01-02"
