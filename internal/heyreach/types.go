package heyreach

import (
	"encoding/json"
	"strconv"
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

// Page is the offset/limit body every list operation takes.
type Page struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ID accepts numeric or string identifiers and renders them as strings.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Int returns the numeric form the API expects in request bodies.
func (id ID) Int() (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

// ProgressStats summarizes lead progress through a campaign.
type ProgressStats struct {
	TotalUsers                int64 `json:"totalUsers"`
	TotalUsersInProgress      int64 `json:"totalUsersInProgress"`
	TotalUsersPending         int64 `json:"totalUsersPending"`
	TotalUsersFinished        int64 `json:"totalUsersFinished"`
	TotalUsersFailed          int64 `json:"totalUsersFailed"`
	TotalUsersManuallyStopped int64 `json:"totalUsersManuallyStopped"`
}

// Campaign is a campaign as returned by campaign/GetAll and GetById.
type Campaign struct {
	ID                 ID             `json:"id"`
	Name               string         `json:"name"`
	Status             string         `json:"status"`
	CreationTime       *time.Time     `json:"creationTime,omitempty"`
	ProgressStats      *ProgressStats `json:"progressStats,omitempty"`
	CampaignAccountIDs []int64        `json:"campaignAccountIds,omitempty"`
}

// listEnvelope tolerates both totalCount and total_count.
type listEnvelope[T any] struct {
	Items      []T  `json:"items"`
	TotalCount *int `json:"totalCount"`
	TotalCnt   *int `json:"total_count"`
}

// total returns the reported total, or -1 when the response carries none.
func (e listEnvelope[T]) total() int {
	if e.TotalCount != nil {
		return *e.TotalCount
	}
	if e.TotalCnt != nil {
		return *e.TotalCnt
	}
	return -1
}

// hasMore decides whether another page follows one of n items fetched at
// offset. Without a reported total, only a full page implies more.
func hasMore(offset, n, limit, total int) bool {
	if n == 0 {
		return false
	}
	if total < 0 {
		return n >= limit
	}
	return offset+n < total
}

// CampaignPage is one page of campaigns.
type CampaignPage struct {
	Items      []Campaign `json:"items"`
	TotalCount int        `json:"total_count"`
	HasMore    bool       `json:"has_more"`
}

// StatsRequest is the body of stats/GetOverallStats.
type StatsRequest struct {
	AccountIDs  []int64   `json:"accountIds"`
	CampaignIDs []int64   `json:"campaignIds"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

// StatBlock is the set of counters HeyReach reports per day and overall.
type StatBlock struct {
	ProfileViews         int64   `json:"profileViews"`
	PostLikes            int64   `json:"postLikes"`
	Follows              int64   `json:"follows"`
	MessagesSent         int64   `json:"messagesSent"`
	TotalMessageStarted  int64   `json:"totalMessageStarted"`
	TotalMessageReplies  int64   `json:"totalMessageReplies"`
	InmailMessagesSent   int64   `json:"inmailMessagesSent"`
	TotalInmailStarted   int64   `json:"totalInmailStarted"`
	TotalInmailReplies   int64   `json:"totalInmailReplies"`
	ConnectionsSent      int64   `json:"connectionsSent"`
	ConnectionsAccepted  int64   `json:"connectionsAccepted"`
	MessageReplyRate     float64 `json:"messageReplyRate"`
	ConnectionAcceptRate float64 `json:"connectionAcceptanceRate"`
}

// Empty reports whether no counter is set.
func (s StatBlock) Empty() bool {
	return s.MessagesSent == 0 && s.ConnectionsSent == 0 && s.ConnectionsAccepted == 0 &&
		s.TotalMessageReplies == 0 && s.InmailMessagesSent == 0 && s.ProfileViews == 0
}

// Stats is the GetOverallStats response.
type Stats struct {
	ByDay   map[string]StatBlock `json:"byDayStats"`
	Overall *StatBlock           `json:"overallStats"`
}

// LinkedInAccount is a connected sender account.
type LinkedInAccount struct {
	ID           ID     `json:"id"`
	EmailAddress string `json:"emailAddress,omitempty"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	ProfileURL   string `json:"profileUrl,omitempty"`
	IsActive     bool   `json:"isActive"`
	AuthIsValid  bool   `json:"authIsValid"`
}

// AccountPage is one page of LinkedIn accounts.
type AccountPage struct {
	Items      []LinkedInAccount `json:"items"`
	TotalCount int               `json:"total_count"`
	HasMore    bool              `json:"has_more"`
}

// ConversationFilter narrows an inbox listing.
type ConversationFilter struct {
	LinkedInAccountIDs []int64 `json:"linkedInAccountIds,omitempty"`
	CampaignIDs        []int64 `json:"campaignIds,omitempty"`
	SearchString       string  `json:"searchString,omitempty"`
	LeadProfileURL     string  `json:"leadProfileUrl,omitempty"`
	Seen               *bool   `json:"seen,omitempty"`
}

// Conversation is one inbox thread.
type Conversation struct {
	ID                   string          `json:"id"`
	Read                 bool            `json:"read"`
	LastMessageAt        *time.Time      `json:"lastMessageAt,omitempty"`
	LastMessageText      string          `json:"lastMessageText,omitempty"`
	LastMessageSender    string          `json:"lastMessageSender,omitempty"`
	TotalMessages        int             `json:"totalMessages"`
	CampaignID           ID              `json:"campaignId,omitempty"`
	LinkedInAccountID    ID              `json:"linkedInAccountId,omitempty"`
	CorrespondentProfile json.RawMessage `json:"correspondentProfile,omitempty"`
}

// ConversationPage is one page of inbox threads.
type ConversationPage struct {
	Items      []Conversation `json:"items"`
	TotalCount int            `json:"total_count"`
	HasMore    bool           `json:"has_more"`
}

// LeadInput is one lead for AddLeadsToCampaignV2.
type LeadInput struct {
	FirstName        string        `json:"firstName,omitempty"`
	LastName         string        `json:"lastName,omitempty"`
	ProfileURL       string        `json:"profileUrl"`
	CompanyName      string        `json:"companyName,omitempty"`
	Position         string        `json:"position,omitempty"`
	EmailAddress     string        `json:"emailAddress,omitempty"`
	CustomUserFields []CustomField `json:"customUserFields,omitempty"`
}

// CustomField is a name/value pair attached to a lead.
type CustomField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type accountLeadPair struct {
	LinkedInAccountID *int64    `json:"linkedInAccountId,omitempty"`
	Lead              LeadInput `json:"lead"`
}

type addLeadsRequest struct {
	CampaignID       int64             `json:"campaignId"`
	AccountLeadPairs []accountLeadPair `json:"accountLeadPairs"`
}

// AddLeadsResult is the AddLeadsToCampaignV2 response.
type AddLeadsResult struct {
	AddedLeadsCount   int `json:"addedLeadsCount"`
	UpdatedLeadsCount int `json:"updatedLeadsCount"`
	FailedLeadsCount  int `json:"failedLeadsCount"`
}
