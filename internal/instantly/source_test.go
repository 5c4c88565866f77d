package instantly

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/gateway"
)

func TestSource_CampaignsNormalizesStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"A","name":"Alpha","status":0},{"id":"B","name":"Beta","status":3}]}`))
	})
	got, err := NewSource(client).Campaigns(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.CampaignDraft, got[0].Status)
	assert.Equal(t, domain.CampaignCompleted, got[1].Status)
	assert.Equal(t, domain.PlatformInstantly, got[1].Platform)
}

func TestSource_CampaignMetricsUsesOverviewForUniques(t *testing.T) {
	overviewCalls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/campaigns/analytics":
			w.Write([]byte(`[{"campaign_id":"A","leads_count":40,"contacted_count":30,"emails_sent_count":100,"open_count":50,"reply_count":4}]`))
		case "/api/v2/campaigns/analytics/overview":
			overviewCalls++
			w.Write([]byte(`{"open_count_unique":20,"reply_count_unique":3}`))
		}
	})

	m, err := NewSource(client).CampaignMetrics(context.Background(), "A")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(100), m.Sent)
	assert.Equal(t, int64(50), m.Opens)
	assert.Equal(t, int64(20), m.UniqueOpens)
	assert.Equal(t, int64(3), m.UniqueReplies)
	assert.Equal(t, 1, overviewCalls)
}

func TestSource_CampaignMetricsOverviewFailureIgnored(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/campaigns/analytics/overview" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"campaign_id":"A","emails_sent_count":10,"open_count":5}`))
	})
	m, err := NewSource(client).CampaignMetrics(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, int64(5), m.Opens)
	assert.Equal(t, int64(0), m.UniqueOpens)
}

func TestSource_CampaignMetricsNoActivity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	m, err := NewSource(client).CampaignMetrics(context.Background(), "B")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestSource_DailyMetricsTrimsTimestamps(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"date":"2025-01-01T00:00:00.000Z","sent":5},{"date":"2025-01-02","sent":1}]`))
	})
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	pts, err := NewSource(client).DailyMetrics(context.Background(), "A", from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, "2025-01-01", pts[0].Date)
	assert.Equal(t, int64(5), pts[0].Sent)
}

func TestSource_Dispatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var in LeadInput
		require.NoError(t, json.Unmarshal(raw, &in))
		assert.Equal(t, "Jane", in.FirstName)
		assert.Equal(t, "van Smith", in.LastName)
		assert.Equal(t, "CTO", in.CustomVariables["jobTitle"])
		w.Write([]byte(`{"id":"lead-1"}`))
	})
	src := NewSource(client)

	resp, err := src.Dispatch(context.Background(), "A", domain.Lead{
		FullName: "Jane van Smith", Email: "jane@acme.io", Title: "CTO",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"lead-1"}`, string(resp))

	_, err = src.Dispatch(context.Background(), "A", domain.Lead{FullName: "No Email"})
	assert.Equal(t, gateway.KindRejected, gateway.KindOf(err))
}
