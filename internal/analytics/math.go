package analytics

import (
	"math"
	"sort"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
)

// Rate returns round(100*n/d) clamped to [0,100]; 0 when d <= 0.
func Rate(n, d int64) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	r := math.Round(100 * float64(n) / float64(d))
	if r > 100 {
		return 100
	}
	return int(r)
}

// RatesFor derives every rate from sends.
func RatesFor(m domain.CampaignMetrics) domain.Rates {
	return domain.Rates{
		OpenRate:        Rate(m.Opens, m.Sent),
		UniqueOpenRate:  Rate(m.UniqueOpens, m.Sent),
		ClickRate:       Rate(m.Clicks, m.Sent),
		ReplyRate:       Rate(m.Replies, m.Sent),
		BounceRate:      Rate(m.Bounces, m.Sent),
		UnsubscribeRate: Rate(m.Unsubscribes, m.Sent),
	}
}

// LeadsReady is max(0, total-contacted).
func LeadsReady(total, contacted int64) int64 {
	if contacted >= total {
		return 0
	}
	return total - contacted
}

// ZeroMetrics is the substitute record for a campaign with no usable analytics.
func ZeroMetrics() domain.CampaignMetrics {
	return domain.CampaignMetrics{}
}

// SumMetrics adds every field across campaigns.
func SumMetrics(reports []CampaignReport) domain.CampaignMetrics {
	var total domain.CampaignMetrics
	for _, r := range reports {
		total.Add(r.Metrics)
	}
	return total
}

// MergeDaily groups points from any number of series by date, sums each
// metric and returns one series sorted by date. Points without a date are
// dropped.
func MergeDaily(series ...[]domain.DailyPoint) []domain.DailyPoint {
	byDate := make(map[string]*domain.DailyPoint)
	for _, s := range series {
		for _, p := range s {
			if p.Date == "" {
				continue
			}
			acc, ok := byDate[p.Date]
			if !ok {
				acc = &domain.DailyPoint{Date: p.Date}
				byDate[p.Date] = acc
			}
			acc.Add(p)
		}
	}

	out := make([]domain.DailyPoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// PeriodChange is (second-first)/first*100 rounded to one decimal; 100 when
// first is zero and second is not, 0 when both are zero.
func PeriodChange(first, second int64) float64 {
	if first == 0 {
		if second > 0 {
			return 100
		}
		return 0
	}
	return round1(float64(second-first) / float64(first) * 100)
}

// ComputeChanges splits a date-sorted series at len/2 and compares the
// halves. The split is positional, not calendar-aware. A single point falls
// entirely in the second half.
func ComputeChanges(points []domain.DailyPoint) Changes {
	mid := len(points) / 2
	first := sumDaily(points[:mid])
	second := sumDaily(points[mid:])
	return Changes{
		Sent:    PeriodChange(first.Sent, second.Sent),
		Opened:  PeriodChange(first.Opened, second.Opened),
		Replies: PeriodChange(first.Replies, second.Replies),
		Clicks:  PeriodChange(first.Clicks, second.Clicks),
	}
}

// TotalsFor sums a series and derives its rates.
func TotalsFor(points []domain.DailyPoint) DailyTotals {
	sum := sumDaily(points)
	return DailyTotals{
		Sent:          sum.Sent,
		Opened:        sum.Opened,
		UniqueOpened:  sum.UniqueOpened,
		Replies:       sum.Replies,
		UniqueReplies: sum.UniqueReplies,
		Clicks:        sum.Clicks,
		UniqueClicks:  sum.UniqueClicks,
		OpenRate:      Rate(sum.Opened, sum.Sent),
		ReplyRate:     Rate(sum.Replies, sum.Sent),
		ClickRate:     Rate(sum.Clicks, sum.Sent),
	}
}

func sumDaily(points []domain.DailyPoint) domain.DailyPoint {
	var sum domain.DailyPoint
	for _, p := range points {
		sum.Add(p)
	}
	return sum
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
