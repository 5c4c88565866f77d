package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SendStatus is the outcome of dispatching a lead to a campaign.
type SendStatus string

const (
	SendPending SendStatus = "pending"
	SendSent    SendStatus = "sent"
	SendFailed  SendStatus = "failed"
)

// ParseSendStatus validates a status from a request body.
func ParseSendStatus(s string) (SendStatus, error) {
	switch st := SendStatus(s); st {
	case SendPending, SendSent, SendFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown send status %q", s)
}

// Successful reports whether the status counts as "sent" for sync checks.
func (s SendStatus) Successful() bool { return s == SendSent }

// SendRecord is the audit row for one (lead, source, campaign).
// It is the authoritative answer to "was this lead sent".
type SendRecord struct {
	ID           string          `json:"id" db:"id"`
	LeadID       string          `json:"lead_id" db:"lead_id"`
	LeadSource   LeadSource      `json:"lead_source" db:"lead_source"`
	CampaignID   string          `json:"campaign_id" db:"campaign_id"`
	CampaignName string          `json:"campaign_name" db:"campaign_name"`
	Platform     Platform        `json:"platform" db:"platform"`
	SentAt       time.Time       `json:"sent_at" db:"sent_at"`
	Status       SendStatus      `json:"status" db:"status"`
	Response     json.RawMessage `json:"response,omitempty" db:"response"`
}
