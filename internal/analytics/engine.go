package analytics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/logger"
)

// Options bound the per-campaign fan-out.
type Options struct {
	// Concurrency caps in-flight campaign fetches. Default 8.
	Concurrency int
	// CallTimeout is the deadline for each upstream call. Default 15s.
	CallTimeout time.Duration
	// ChangeWindowDays is the daily range Aggregate compares halves of. Default 14.
	ChangeWindowDays int
}

// Engine aggregates campaign analytics across registered platforms.
type Engine struct {
	sources map[domain.Platform]Source
	opts    Options
	now     func() time.Time
	log     *logger.Logger
}

// NewEngine registers one source per platform.
func NewEngine(opts Options, sources ...Source) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 15 * time.Second
	}
	if opts.ChangeWindowDays <= 0 {
		opts.ChangeWindowDays = 14
	}
	e := &Engine{
		sources: make(map[domain.Platform]Source, len(sources)),
		opts:    opts,
		now:     time.Now,
		log:     logger.New("analytics"),
	}
	for _, s := range sources {
		e.sources[s.Platform()] = s
	}
	return e
}

// Platforms lists the registered platforms.
func (e *Engine) Platforms() []domain.Platform {
	out := make([]domain.Platform, 0, len(e.sources))
	for p := range e.sources {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (e *Engine) source(p domain.Platform) (Source, error) {
	s, ok := e.sources[p]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrPlatformNotConfigured)
	}
	return s, nil
}

// ListCampaigns returns the platform's campaigns in upstream order.
func (e *Engine) ListCampaigns(ctx context.Context, p domain.Platform) ([]domain.Campaign, error) {
	src, err := e.source(p)
	if err != nil {
		return nil, err
	}
	return src.Campaigns(ctx)
}

// CampaignAnalytics returns one campaign's report, or nil when the campaign
// has no recorded activity. Unlike Aggregate, a fetch failure is returned.
func (e *Engine) CampaignAnalytics(ctx context.Context, p domain.Platform, campaignID string) (*CampaignReport, error) {
	src, err := e.source(p)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	m, err := src.CampaignMetrics(callCtx, campaignID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	r := newReport(domain.Campaign{ID: campaignID, Platform: p}, *m)
	return &r, nil
}

func newReport(c domain.Campaign, m domain.CampaignMetrics) CampaignReport {
	return CampaignReport{
		Campaign:   c,
		Metrics:    m,
		Rates:      RatesFor(m),
		LeadsReady: LeadsReady(m.LeadsTotal, m.Contacted),
	}
}

func degradedReport(c domain.Campaign, err error) CampaignReport {
	r := newReport(c, ZeroMetrics())
	r.Degraded = true
	r.DegradedReason = err.Error()
	return r
}

// campaignResult is what one fan-out branch produces.
type campaignResult struct {
	report   CampaignReport
	daily    []domain.DailyPoint
	dailyErr error
}

// Aggregate lists the platform's campaigns, fetches each one's metrics and
// change-window series, and folds them into totals and changes.
func (e *Engine) Aggregate(ctx context.Context, p domain.Platform) (*Aggregate, error) {
	src, err := e.source(p)
	if err != nil {
		return nil, err
	}
	campaigns, err := src.Campaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s campaigns: %w", p, err)
	}

	from, to := e.dayRange(e.opts.ChangeWindowDays)
	results := make([]campaignResult, len(campaigns))

	e.fanOut(ctx, campaigns, func(ctx context.Context, i int, c domain.Campaign) {
		results[i].report = e.fetchReport(ctx, src, c)

		callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
		defer cancel()
		results[i].daily, results[i].dailyErr = src.DailyMetrics(callCtx, c.ID, from, to)
	}, func(i int, c domain.Campaign, err error) {
		results[i].report = degradedReport(c, err)
		results[i].dailyErr = err
	})

	agg := &Aggregate{
		Platform:    p,
		Campaigns:   make([]CampaignReport, len(results)),
		GeneratedAt: e.now().UTC(),
	}
	series := make([][]domain.DailyPoint, 0, len(results))
	for i, r := range results {
		agg.Campaigns[i] = r.report
		if r.dailyErr != nil {
			agg.ChangesDegraded = true
			continue
		}
		series = append(series, r.daily)
	}
	agg.Totals = summarize(agg.Campaigns)
	agg.Changes = ComputeChanges(MergeDaily(series...))

	e.log.Info("aggregated campaign analytics",
		"platform", p, "campaigns", len(campaigns), "degraded", agg.Totals.DegradedCount)
	return agg, nil
}

func (e *Engine) fetchReport(ctx context.Context, src Source, c domain.Campaign) CampaignReport {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	m, err := src.CampaignMetrics(callCtx, c.ID)
	if err != nil {
		e.log.Warn("campaign analytics degraded", "platform", c.Platform, "campaign_id", c.ID, "error", err)
		return degradedReport(c, err)
	}
	if m == nil {
		r := newReport(c, ZeroMetrics())
		r.NoActivity = true
		return r
	}
	return newReport(c, *m)
}

func summarize(reports []CampaignReport) Summary {
	total := SumMetrics(reports)
	s := Summary{
		CampaignMetrics: total,
		Rates:           RatesFor(total),
		LeadsReady:      LeadsReady(total.LeadsTotal, total.Contacted),
		CampaignCount:   len(reports),
	}
	for _, r := range reports {
		if r.Status == domain.CampaignActive {
			s.ActiveCount++
		}
		if r.Degraded {
			s.DegradedCount++
		}
	}
	return s
}

// DailySeries merges every campaign's last `days` days into one series.
func (e *Engine) DailySeries(ctx context.Context, p domain.Platform, days int) (*DailySeries, error) {
	if days < 1 || days > MaxDays {
		return nil, fmt.Errorf("%d: %w (1..%d)", days, ErrInvalidDays, MaxDays)
	}
	src, err := e.source(p)
	if err != nil {
		return nil, err
	}
	campaigns, err := src.Campaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s campaigns: %w", p, err)
	}

	from, to := e.dayRange(days)
	series := make([][]domain.DailyPoint, len(campaigns))
	failed := make([]error, len(campaigns))

	e.fanOut(ctx, campaigns, func(ctx context.Context, i int, c domain.Campaign) {
		callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
		defer cancel()
		pts, err := src.DailyMetrics(callCtx, c.ID, from, to)
		if err != nil {
			e.log.Warn("campaign daily series degraded", "platform", p, "campaign_id", c.ID, "error", err)
			failed[i] = err
			return
		}
		series[i] = pts
	}, func(i int, c domain.Campaign, err error) {
		failed[i] = err
	})

	out := &DailySeries{
		Platform: p,
		Days:     days,
		From:     from.Format(domain.DateLayout),
		To:       to.Format(domain.DateLayout),
	}
	for i, err := range failed {
		if err != nil {
			out.DegradedCampaigns = append(out.DegradedCampaigns, campaigns[i].ID)
		}
	}
	out.DailyData = MergeDaily(series...)
	out.Totals = TotalsFor(out.DailyData)
	out.Changes = ComputeChanges(out.DailyData)
	return out, nil
}

// dayRange returns [today-(days-1), today] in UTC calendar days.
func (e *Engine) dayRange(days int) (time.Time, time.Time) {
	now := e.now().UTC()
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return to.AddDate(0, 0, -(days - 1)), to
}

// fanOut runs fetch for every campaign with at most Concurrency in flight.
// Each branch owns its result slot, so one failure never cancels another.
// Campaigns not started before ctx ends are passed to skipped.
func (e *Engine) fanOut(ctx context.Context, campaigns []domain.Campaign,
	fetch func(ctx context.Context, i int, c domain.Campaign),
	skipped func(i int, c domain.Campaign, err error)) {

	sem := make(chan struct{}, e.opts.Concurrency)
	var wg sync.WaitGroup

	for i, c := range campaigns {
		select {
		case <-ctx.Done():
			skipped(i, c, fmt.Errorf("not fetched: %w", ctx.Err()))
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, c domain.Campaign) {
			defer wg.Done()
			defer func() { <-sem }()
			fetch(ctx, i, c)
		}(i, c)
	}

	wg.Wait()
}
