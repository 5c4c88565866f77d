package domain

import (
	"strings"
	"time"
)

// CampaignStatus is the normalized campaign state across platforms.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignUnknown   CampaignStatus = "unknown"
)

// Campaign is a read-only snapshot of a platform-owned campaign.
type Campaign struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    CampaignStatus `json:"status"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
	Platform  Platform       `json:"platform"`
}

// StatusFromInstantly maps Instantly's integer status.
func StatusFromInstantly(code int) CampaignStatus {
	switch code {
	case 0:
		return CampaignDraft
	case 1:
		return CampaignActive
	case 2:
		return CampaignPaused
	case 3:
		return CampaignCompleted
	case -1, -2:
		// account suspended / bounce protection: sending is halted
		return CampaignPaused
	}
	return CampaignUnknown
}

// StatusFromHeyReach maps HeyReach's string status.
func StatusFromHeyReach(s string) CampaignStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DRAFT":
		return CampaignDraft
	case "STARTING", "IN_PROGRESS":
		return CampaignActive
	case "PAUSED":
		return CampaignPaused
	case "FINISHED", "CANCELED", "CANCELLED", "FAILED":
		return CampaignCompleted
	}
	return CampaignUnknown
}
