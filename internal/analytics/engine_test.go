package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
)

type fakeSource struct {
	platform  domain.Platform
	campaigns []domain.Campaign
	listErr   error
	metrics   map[string]*domain.CampaignMetrics
	failing   map[string]error
	daily     map[string][]domain.DailyPoint
	delay     time.Duration

	inFlight    int32
	maxInFlight int32
}

func (f *fakeSource) Platform() domain.Platform { return f.platform }

func (f *fakeSource) Campaigns(ctx context.Context) ([]domain.Campaign, error) {
	return f.campaigns, f.listErr
}

func (f *fakeSource) CampaignMetrics(ctx context.Context, id string) (*domain.CampaignMetrics, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		m := atomic.LoadInt32(&f.maxInFlight)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxInFlight, m, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.failing[id]; err != nil {
		return nil, err
	}
	return f.metrics[id], nil
}

func (f *fakeSource) DailyMetrics(ctx context.Context, id string, from, to time.Time) ([]domain.DailyPoint, error) {
	if err := f.failing[id]; err != nil {
		return nil, err
	}
	return f.daily[id], nil
}

func campaigns(ids ...string) []domain.Campaign {
	out := make([]domain.Campaign, len(ids))
	for i, id := range ids {
		out[i] = domain.Campaign{ID: id, Name: "Campaign " + id, Status: domain.CampaignActive, Platform: domain.PlatformInstantly}
	}
	return out
}

func TestAggregate_PartialFailureKeepsEveryCampaign(t *testing.T) {
	src := &fakeSource{
		platform:  domain.PlatformInstantly,
		campaigns: campaigns("A", "B", "C", "D"),
		metrics: map[string]*domain.CampaignMetrics{
			"A": {Sent: 100, Opens: 50, LeadsTotal: 40, Contacted: 30},
			"C": {Sent: 20, Replies: 2},
		},
		failing: map[string]error{"B": errors.New("upstream 503")},
	}
	e := NewEngine(Options{}, src)

	agg, err := e.Aggregate(context.Background(), domain.PlatformInstantly)
	require.NoError(t, err)
	require.Len(t, agg.Campaigns, 4)

	ids := []string{agg.Campaigns[0].ID, agg.Campaigns[1].ID, agg.Campaigns[2].ID, agg.Campaigns[3].ID}
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids, "list order is kept")

	b := agg.Campaigns[1]
	assert.True(t, b.Degraded)
	assert.Contains(t, b.DegradedReason, "503")
	assert.Equal(t, ZeroMetrics(), b.Metrics)

	d := agg.Campaigns[3]
	assert.True(t, d.NoActivity)
	assert.False(t, d.Degraded)

	var sent int64
	for _, c := range agg.Campaigns {
		sent += c.Metrics.Sent
	}
	assert.Equal(t, sent, agg.Totals.Sent)
	assert.Equal(t, int64(120), agg.Totals.Sent)
	assert.Equal(t, 1, agg.Totals.DegradedCount)
	assert.Equal(t, 4, agg.Totals.CampaignCount)
	assert.Equal(t, int64(10), agg.Totals.LeadsReady)
	assert.Equal(t, 50, agg.Campaigns[0].Rates.OpenRate)
	assert.True(t, agg.ChangesDegraded)
}

func TestAggregate_ListFailureIsFatal(t *testing.T) {
	src := &fakeSource{platform: domain.PlatformHeyReach, listErr: errors.New("401")}
	e := NewEngine(Options{}, src)

	_, err := e.Aggregate(context.Background(), domain.PlatformHeyReach)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list heyreach campaigns")
}

func TestAggregate_BoundedConcurrency(t *testing.T) {
	ids := make([]string, 20)
	metrics := map[string]*domain.CampaignMetrics{}
	for i := range ids {
		ids[i] = fmt.Sprintf("c%d", i)
		metrics[ids[i]] = &domain.CampaignMetrics{Sent: 1}
	}
	src := &fakeSource{
		platform:  domain.PlatformInstantly,
		campaigns: campaigns(ids...),
		metrics:   metrics,
		delay:     5 * time.Millisecond,
	}
	e := NewEngine(Options{Concurrency: 3}, src)

	agg, err := e.Aggregate(context.Background(), domain.PlatformInstantly)
	require.NoError(t, err)
	assert.Equal(t, int64(20), agg.Totals.Sent)
	assert.LessOrEqual(t, atomic.LoadInt32(&src.maxInFlight), int32(3))
}

func TestAggregate_CallTimeoutDegradesSlowCampaign(t *testing.T) {
	src := &fakeSource{
		platform:  domain.PlatformInstantly,
		campaigns: campaigns("slow"),
		metrics:   map[string]*domain.CampaignMetrics{"slow": {Sent: 1}},
		delay:     time.Second,
	}
	e := NewEngine(Options{CallTimeout: 10 * time.Millisecond}, src)

	start := time.Now()
	agg, err := e.Aggregate(context.Background(), domain.PlatformInstantly)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.True(t, agg.Campaigns[0].Degraded)
	assert.Contains(t, agg.Campaigns[0].DegradedReason, "deadline")
}

func TestAggregate_ChangesFromChangeWindow(t *testing.T) {
	src := &fakeSource{
		platform:  domain.PlatformInstantly,
		campaigns: campaigns("A", "B"),
		metrics:   map[string]*domain.CampaignMetrics{"A": {Sent: 10}, "B": {Sent: 10}},
		daily: map[string][]domain.DailyPoint{
			"A": {{Date: "2025-01-01", Sent: 0}, {Date: "2025-01-02", Sent: 5}},
			"B": {{Date: "2025-01-01", Sent: 0}, {Date: "2025-01-02", Sent: 5}},
		},
	}
	agg, err := NewEngine(Options{}, src).Aggregate(context.Background(), domain.PlatformInstantly)
	require.NoError(t, err)
	assert.Equal(t, 100.0, agg.Changes.Sent)
	assert.False(t, agg.ChangesDegraded)
}

func TestDailySeries_MergesAcrossCampaigns(t *testing.T) {
	src := &fakeSource{
		platform:  domain.PlatformInstantly,
		campaigns: campaigns("A", "B", "C"),
		daily: map[string][]domain.DailyPoint{
			"A": {{Date: "2025-01-01", Sent: 5}},
			"B": {{Date: "2025-01-01", Sent: 5}},
		},
		failing: map[string]error{"C": errors.New("timeout")},
	}
	e := NewEngine(Options{}, src)
	e.now = func() time.Time { return time.Date(2025, 1, 7, 15, 0, 0, 0, time.UTC) }

	s, err := e.DailySeries(context.Background(), domain.PlatformInstantly, 7)
	require.NoError(t, err)
	require.Len(t, s.DailyData, 1)
	assert.Equal(t, "2025-01-01", s.DailyData[0].Date)
	assert.Equal(t, int64(10), s.DailyData[0].Sent)
	assert.Equal(t, int64(10), s.Totals.Sent)
	assert.Equal(t, "2025-01-01", s.From)
	assert.Equal(t, "2025-01-07", s.To)
	assert.Equal(t, []string{"C"}, s.DegradedCampaigns)
}

func TestDailySeries_RejectsBadRange(t *testing.T) {
	e := NewEngine(Options{}, &fakeSource{platform: domain.PlatformInstantly})
	for _, days := range []int{0, -1, MaxDays + 1} {
		_, err := e.DailySeries(context.Background(), domain.PlatformInstantly, days)
		assert.ErrorIs(t, err, ErrInvalidDays)
	}
}

func TestCampaignAnalytics(t *testing.T) {
	src := &fakeSource{
		platform: domain.PlatformInstantly,
		metrics:  map[string]*domain.CampaignMetrics{"A": {Sent: 100, Opens: 50}},
		failing:  map[string]error{"X": errors.New("boom")},
	}
	e := NewEngine(Options{}, src)

	r, err := e.CampaignAnalytics(context.Background(), domain.PlatformInstantly, "A")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 50, r.Rates.OpenRate)

	r, err = e.CampaignAnalytics(context.Background(), domain.PlatformInstantly, "B")
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = e.CampaignAnalytics(context.Background(), domain.PlatformInstantly, "X")
	assert.Error(t, err)
}

func TestUnknownPlatform(t *testing.T) {
	e := NewEngine(Options{}, &fakeSource{platform: domain.PlatformInstantly})
	_, err := e.ListCampaigns(context.Background(), domain.PlatformHeyReach)
	assert.ErrorIs(t, err, ErrPlatformNotConfigured)
	assert.Equal(t, []domain.Platform{domain.PlatformInstantly}, e.Platforms())
}

func TestAggregate_CancelledContextStillReturnsShape(t *testing.T) {
	src := &fakeSource{
		platform:  domain.PlatformInstantly,
		campaigns: campaigns("A", "B"),
		metrics:   map[string]*domain.CampaignMetrics{"A": {Sent: 1}, "B": {Sent: 1}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg, err := NewEngine(Options{Concurrency: 1}, src).Aggregate(ctx, domain.PlatformInstantly)
	require.NoError(t, err)
	assert.Len(t, agg.Campaigns, 2)
}
