// Package analytics is the campaign aggregation engine. It lists a
// platform's campaigns, fetches per-campaign analytics with bounded
// concurrency and a per-call deadline, and folds the results into totals,
// rates, a merged daily series and period-over-period changes.
//
// A failed campaign list fails the request. A failed per-campaign fetch
// does not: the campaign is kept with zero metrics and flagged Degraded, so
// a partial dashboard is returned instead of none. A campaign with no
// recorded activity is also zero, but flagged NoActivity instead.
package analytics
