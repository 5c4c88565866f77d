package domain

import "fmt"

// Platform identifies an outreach platform.
type Platform string

const (
	PlatformInstantly Platform = "instantly"
	PlatformHeyReach  Platform = "heyreach"
)

// ParsePlatform validates a platform name from a route or query.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(s); p {
	case PlatformInstantly, PlatformHeyReach:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// LeadSource identifies which lead table a lead lives in.
type LeadSource string

const (
	SourceEmail    LeadSource = "email"
	SourceLinkedIn LeadSource = "linkedin"
)

// ParseLeadSource validates a lead source from a route or query.
func ParseLeadSource(s string) (LeadSource, error) {
	switch src := LeadSource(s); src {
	case SourceEmail, SourceLinkedIn:
		return src, nil
	}
	return "", fmt.Errorf("unknown lead source %q", s)
}

// Table returns the lead table backing this source.
func (s LeadSource) Table() string {
	if s == SourceLinkedIn {
		return "linkedin_leads"
	}
	return "email_leads"
}
