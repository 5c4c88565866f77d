package domain

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Lead is a contact record in one of the two source tables.
type Lead struct {
	ID          string     `json:"id" db:"id"`
	Source      LeadSource `json:"source"`
	FullName    string     `json:"full_name" db:"full_name"`
	Company     string     `json:"company" db:"company"`
	Title       string     `json:"title" db:"title"`
	Email       string     `json:"email" db:"email"`
	Phone       string     `json:"phone" db:"phone"`
	LinkedInURL string     `json:"linkedin_url" db:"linkedin_url"`
	Niche       string     `json:"niche" db:"niche"`
	Tags        []string   `json:"tags" db:"tags"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	InstantlySynced   bool       `json:"instantly_synced" db:"instantly_synced"`
	InstantlySyncedAt *time.Time `json:"instantly_synced_at,omitempty" db:"instantly_synced_at"`
	HeyReachSynced    bool       `json:"heyreach_synced" db:"heyreach_synced"`
	HeyReachSyncedAt  *time.Time `json:"heyreach_synced_at,omitempty" db:"heyreach_synced_at"`
}

// SyncFlag returns the denormalized flag for a platform.
func (l *Lead) SyncFlag(p Platform) (bool, *time.Time) {
	switch p {
	case PlatformInstantly:
		return l.InstantlySynced, l.InstantlySyncedAt
	case PlatformHeyReach:
		return l.HeyReachSynced, l.HeyReachSyncedAt
	}
	return false, nil
}

// LeadInput is the writable subset of a Lead.
type LeadInput struct {
	FullName    string   `json:"full_name"`
	Company     string   `json:"company"`
	Title       string   `json:"title"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	LinkedInURL string   `json:"linkedin_url"`
	Niche       string   `json:"niche"`
	Tags        []string `json:"tags"`
}

// ErrLeadIdentity is returned by Validate when no identifying field is set.
var ErrLeadIdentity = errors.New("one of email, linkedin_url or full_name is required")

// Normalize trims every field, lower-cases the email and de-duplicates tags.
func (in LeadInput) Normalize() LeadInput {
	out := LeadInput{
		FullName:    strings.TrimSpace(in.FullName),
		Company:     strings.TrimSpace(in.Company),
		Title:       strings.TrimSpace(in.Title),
		Email:       NormalizeEmail(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		LinkedInURL: strings.TrimSpace(in.LinkedInURL),
		Niche:       strings.TrimSpace(in.Niche),
		Tags:        NormalizeTags(in.Tags),
	}
	return out
}

// Validate checks a normalized input.
func (in LeadInput) Validate() error {
	if in.Email == "" && in.LinkedInURL == "" && in.FullName == "" {
		return ErrLeadIdentity
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return errors.New("email is malformed")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeTags trims, drops empties and de-duplicates case-insensitively.
// The result is sorted so equal sets compare equal.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// UpsertResult is returned by lead upserts. LeadID is always usable.
type UpsertResult struct {
	LeadID      string `json:"lead_id"`
	WasInserted bool   `json:"was_inserted"`
}

// LeadFilter narrows a lead listing.
type LeadFilter struct {
	Niche  string
	Tag    string
	Limit  int
	Offset int
}
