package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadInputNormalize(t *testing.T) {
	in := LeadInput{
		FullName: "  Jane Smith ",
		Company:  "Acme ",
		Email:    " Jane.Smith@ACME.io ",
		Tags:     []string{"saas", " SaaS", "", "fintech"},
	}.Normalize()

	assert.Equal(t, "Jane Smith", in.FullName)
	assert.Equal(t, "Acme", in.Company)
	assert.Equal(t, "jane.smith@acme.io", in.Email)
	assert.Equal(t, []string{"fintech", "saas"}, in.Tags)
	require.NoError(t, in.Validate())
}

func TestLeadInputValidate(t *testing.T) {
	assert.ErrorIs(t, LeadInput{Company: "Acme"}.Normalize().Validate(), ErrLeadIdentity)
	assert.NoError(t, LeadInput{LinkedInURL: "https://linkedin.com/in/x"}.Validate())
	assert.Error(t, LeadInput{Email: "nope"}.Validate())
}

func TestNormalizeTagsEmpty(t *testing.T) {
	assert.Equal(t, []string{}, NormalizeTags(nil))
}

func TestStatusFromInstantly(t *testing.T) {
	assert.Equal(t, CampaignDraft, StatusFromInstantly(0))
	assert.Equal(t, CampaignActive, StatusFromInstantly(1))
	assert.Equal(t, CampaignPaused, StatusFromInstantly(2))
	assert.Equal(t, CampaignCompleted, StatusFromInstantly(3))
	assert.Equal(t, CampaignPaused, StatusFromInstantly(-1))
	assert.Equal(t, CampaignUnknown, StatusFromInstantly(-99))
}

func TestStatusFromHeyReach(t *testing.T) {
	assert.Equal(t, CampaignDraft, StatusFromHeyReach("DRAFT"))
	assert.Equal(t, CampaignActive, StatusFromHeyReach("IN_PROGRESS"))
	assert.Equal(t, CampaignActive, StatusFromHeyReach("starting"))
	assert.Equal(t, CampaignPaused, StatusFromHeyReach("PAUSED"))
	assert.Equal(t, CampaignCompleted, StatusFromHeyReach("CANCELED"))
	assert.Equal(t, CampaignUnknown, StatusFromHeyReach("ARCHIVED"))
}

func TestParsers(t *testing.T) {
	p, err := ParsePlatform("heyreach")
	require.NoError(t, err)
	assert.Equal(t, PlatformHeyReach, p)
	_, err = ParsePlatform("lemlist")
	assert.Error(t, err)

	s, err := ParseLeadSource("linkedin")
	require.NoError(t, err)
	assert.Equal(t, "linkedin_leads", s.Table())
	assert.Equal(t, "email_leads", SourceEmail.Table())

	st, err := ParseSendStatus("sent")
	require.NoError(t, err)
	assert.True(t, st.Successful())
	assert.False(t, SendFailed.Successful())
}

func TestMetricsAdd(t *testing.T) {
	m := CampaignMetrics{Sent: 5, Opens: 2}
	m.Add(CampaignMetrics{Sent: 3, Replies: 1})
	assert.Equal(t, int64(8), m.Sent)
	assert.Equal(t, int64(2), m.Opens)
	assert.Equal(t, int64(1), m.Replies)

	p := DailyPoint{Date: "2025-01-01", Sent: 5}
	p.Add(DailyPoint{Date: "ignored", Sent: 5})
	assert.Equal(t, DailyPoint{Date: "2025-01-01", Sent: 10}, p)
}

func TestLeadSyncFlag(t *testing.T) {
	l := &Lead{InstantlySynced: true}
	ok, _ := l.SyncFlag(PlatformInstantly)
	assert.True(t, ok)
	ok, _ = l.SyncFlag(PlatformHeyReach)
	assert.False(t, ok)
}
