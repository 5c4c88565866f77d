// Package instantly is the email platform gateway: a typed client for the
// Instantly v2 REST API and an adapter exposing it to the analytics engine.
package instantly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/gateway"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/httpretry"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/logger"
)

const platform = string(domain.PlatformInstantly)

// maxPages bounds AllCampaigns against a cursor that never terminates.
const maxPages = 200

// Client is the Instantly API client
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient httpretry.HTTPDoer
	breaker    *gateway.Breaker
	log        *logger.Logger
}

// NewClient creates a new Instantly API client. A missing key is not an
// error here; every call reports it as gateway.KindConfig.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.instantly.ai"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout,
		}, cfg.MaxRetries),
		log: logger.New("instantly"),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// SetBreaker installs a circuit breaker around every call.
func (c *Client) SetBreaker(b *gateway.Breaker) {
	c.breaker = b
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// doRequest performs an authenticated request and classifies failures.
func (c *Client) doRequest(ctx context.Context, op, method, endpoint string, query url.Values, body interface{}) ([]byte, error) {
	if c.apiKey == "" {
		return nil, gateway.ConfigError(platform, op, "INSTANTLY_API_KEY is not configured")
	}

	var respBody []byte
	err := c.breaker.Do(op, func() error {
		var err error
		respBody, err = c.roundTrip(ctx, op, method, endpoint, query, body)
		return err
	})
	return respBody, err
}

func (c *Client) roundTrip(ctx context.Context, op, method, endpoint string, query url.Values, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed", "op", op, "error", err)
		return nil, gateway.FromTransport(platform, op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gateway.FromTransport(platform, op, fmt.Errorf("failed to read response body: %w", err))
	}

	c.log.Debug("request", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, gateway.FromStatus(platform, op, resp.StatusCode, resp.Header, respBody)
	}
	return respBody, nil
}

func decode[T any](op string, body []byte) (*T, error) {
	var out T
	if len(bytes.TrimSpace(body)) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, gateway.DecodeError(platform, op, err, body)
	}
	return &out, nil
}

func pageQuery(p ListParams, defaultLimit int) url.Values {
	q := url.Values{}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	q.Set("limit", strconv.Itoa(limit))
	if p.StartingAfter != "" {
		q.Set("starting_after", p.StartingAfter)
	}
	return q
}

// ========== Campaigns ==========

// ListCampaigns returns one page of campaigns.
func (c *Client) ListCampaigns(ctx context.Context, p ListParams) (*CampaignPage, error) {
	const op = "list_campaigns"
	body, err := c.doRequest(ctx, op, http.MethodGet, "/api/v2/campaigns", pageQuery(p, c.pageSize), nil)
	if err != nil {
		return nil, err
	}
	page, err := decode[CampaignPage](op, body)
	if err != nil {
		return nil, err
	}
	if page.NextStartingAfter != "" && len(page.Items) > 0 {
		page.HasMore = true
	}
	if page.Items == nil {
		page.Items = []Campaign{}
	}
	return page, nil
}

// AllCampaigns follows next_starting_after until the listing is exhausted.
func (c *Client) AllCampaigns(ctx context.Context) ([]Campaign, error) {
	var (
		all    []Campaign
		cursor string
	)
	for i := 0; i < maxPages; i++ {
		page, err := c.ListCampaigns(ctx, ListParams{StartingAfter: cursor})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.HasMore || page.NextStartingAfter == "" || page.NextStartingAfter == cursor {
			return all, nil
		}
		cursor = page.NextStartingAfter
	}
	c.log.Warn("campaign pagination stopped at page limit", "pages", maxPages)
	return all, nil
}

// ========== Analytics ==========

// GetCampaignAnalytics returns the campaign's analytics, or nil when the
// campaign has no recorded activity (empty body, empty list or 404).
func (c *Client) GetCampaignAnalytics(ctx context.Context, campaignID string) (*CampaignAnalytics, error) {
	const op = "get_campaign_analytics"
	q := url.Values{}
	q.Set("id", campaignID)

	body, err := c.doRequest(ctx, op, http.MethodGet, "/api/v2/campaigns/analytics", q, nil)
	if err != nil {
		if gateway.KindOf(err) == gateway.KindNotFound {
			return nil, nil
		}
		return nil, err
	}

	list, err := decodeAnalytics(body)
	if err != nil {
		return nil, gateway.DecodeError(platform, op, err, body)
	}
	return FirstAnalytics(list), nil
}

// GetAnalyticsOverview returns unique-visitor metrics for one campaign.
func (c *Client) GetAnalyticsOverview(ctx context.Context, campaignID string) (*AnalyticsOverview, error) {
	const op = "get_analytics_overview"
	q := url.Values{}
	q.Set("id", campaignID)

	body, err := c.doRequest(ctx, op, http.MethodGet, "/api/v2/campaigns/analytics/overview", q, nil)
	if err != nil {
		return nil, err
	}
	return decode[AnalyticsOverview](op, body)
}

// GetDailyAnalytics returns per-day counts for one campaign, both dates inclusive.
func (c *Client) GetDailyAnalytics(ctx context.Context, campaignID string, start, end time.Time) ([]DailyAnalytics, error) {
	const op = "get_daily_analytics"
	q := url.Values{}
	q.Set("campaign_id", campaignID)
	q.Set("start_date", start.Format(domain.DateLayout))
	q.Set("end_date", end.Format(domain.DateLayout))

	body, err := c.doRequest(ctx, op, http.MethodGet, "/api/v2/campaigns/analytics/daily", q, nil)
	if err != nil {
		if gateway.KindOf(err) == gateway.KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	days, err := decode[[]DailyAnalytics](op, body)
	if err != nil {
		return nil, err
	}
	return *days, nil
}

// ========== Accounts & unibox ==========

// ListAccounts returns one page of sending accounts.
func (c *Client) ListAccounts(ctx context.Context, p ListParams) (*AccountPage, error) {
	const op = "list_accounts"
	body, err := c.doRequest(ctx, op, http.MethodGet, "/api/v2/accounts", pageQuery(p, c.pageSize), nil)
	if err != nil {
		return nil, err
	}
	page, err := decode[AccountPage](op, body)
	if err != nil {
		return nil, err
	}
	page.HasMore = page.HasMore || (page.NextStartingAfter != "" && len(page.Items) > 0)
	if page.Items == nil {
		page.Items = []Account{}
	}
	return page, nil
}

// ListEmails returns one page of unibox messages, optionally for one campaign.
func (c *Client) ListEmails(ctx context.Context, p EmailListParams) (*EmailPage, error) {
	const op = "list_emails"
	q := pageQuery(ListParams{Limit: p.Limit, StartingAfter: p.StartingAfter}, c.pageSize)
	if p.CampaignID != "" {
		q.Set("campaign_id", p.CampaignID)
	}
	body, err := c.doRequest(ctx, op, http.MethodGet, "/api/v2/emails", q, nil)
	if err != nil {
		return nil, err
	}
	page, err := decode[EmailPage](op, body)
	if err != nil {
		return nil, err
	}
	page.HasMore = page.HasMore || (page.NextStartingAfter != "" && len(page.Items) > 0)
	if page.Items == nil {
		page.Items = []Email{}
	}
	return page, nil
}

// ========== Leads ==========

// AddLead pushes one lead into a campaign and returns the raw upstream reply.
func (c *Client) AddLead(ctx context.Context, in LeadInput) (json.RawMessage, error) {
	const op = "add_lead"
	if in.Campaign == "" || in.Email == "" {
		return nil, &gateway.Error{Platform: platform, Op: op, Kind: gateway.KindRejected,
			Err: fmt.Errorf("campaign and email are required")}
	}
	body, err := c.doRequest(ctx, op, http.MethodPost, "/api/v2/leads", nil, in)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(body), nil
}
