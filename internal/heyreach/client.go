// Package heyreach is the LinkedIn platform gateway: a typed client for the
// HeyReach public API and an adapter exposing it to the analytics engine.
// Every call first passes the platform rate limiter.
package heyreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/gateway"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/httpretry"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/logger"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/ratelimit"
)

const platform = string(domain.PlatformHeyReach)

// HeyReach caps list pages at 100.
const maxPageSize = 100

// maxPages bounds AllCampaigns against an upstream that never reports a total.
const maxPages = 200

// Client is the HeyReach API client
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	limiter    ratelimit.Limiter
	httpClient httpretry.HTTPDoer
	breaker    *gateway.Breaker
	log        *logger.Logger
}

// NewClient creates a new HeyReach API client. A nil limiter selects the
// in-process 300/minute sliding window.
func NewClient(cfg Config, limiter ratelimit.Limiter) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.heyreach.io"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PageSize <= 0 || cfg.PageSize > maxPageSize {
		cfg.PageSize = maxPageSize
	}
	if limiter == nil {
		limiter = ratelimit.NewSlidingWindow(platform, ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		limiter:  limiter,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout,
		}, cfg.MaxRetries),
		log: logger.New("heyreach"),
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

// doRequest checks the credential, then the limiter, then performs the call.
func (c *Client) doRequest(ctx context.Context, op, method, endpoint string, query url.Values, body interface{}) ([]byte, error) {
	if c.apiKey == "" {
		return nil, gateway.ConfigError(platform, op, "HEYREACH_API_KEY is not configured")
	}
	if err := c.limiter.Allow(ctx); err != nil {
		c.log.Warn("rate limiter rejected call", "op", op, "error", err)
		return nil, gateway.FromLimiter(platform, op, err)
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
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

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

func (c *Client) page(p Page) Page {
	if p.Limit <= 0 || p.Limit > maxPageSize {
		p.Limit = c.pageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ========== Campaigns ==========

// ListCampaigns returns one page of campaigns.
func (c *Client) ListCampaigns(ctx context.Context, p Page) (*CampaignPage, error) {
	const op = "list_campaigns"
	p = c.page(p)
	body, err := c.doRequest(ctx, op, http.MethodPost, "/api/public/campaign/GetAll", nil, p)
	if err != nil {
		return nil, err
	}
	env, err := decode[listEnvelope[Campaign]](op, body)
	if err != nil {
		return nil, err
	}
	items := env.Items
	if items == nil {
		items = []Campaign{}
	}
	total := env.total()
	more := hasMore(p.Offset, len(items), p.Limit, total)
	if total < 0 {
		total = p.Offset + len(items)
	}
	return &CampaignPage{Items: items, TotalCount: total, HasMore: more}, nil
}

// AllCampaigns pages by offset until total_count is reached or a short page.
func (c *Client) AllCampaigns(ctx context.Context) ([]Campaign, error) {
	var all []Campaign
	offset := 0
	for i := 0; i < maxPages; i++ {
		page, err := c.ListCampaigns(ctx, Page{Offset: offset, Limit: c.pageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.HasMore {
			return all, nil
		}
		offset += len(page.Items)
	}
	c.log.Warn("campaign pagination stopped at page limit", "pages", maxPages)
	return all, nil
}

// GetCampaign returns one campaign with its progress stats.
func (c *Client) GetCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	const op = "get_campaign"
	q := url.Values{}
	q.Set("campaignId", campaignID)
	body, err := c.doRequest(ctx, op, http.MethodGet, "/api/public/campaign/GetById", q, nil)
	if err != nil {
		return nil, err
	}
	return decode[Campaign](op, body)
}

// ========== Stats ==========

// GetOverallStats returns per-day and overall counters. Absent stats decode
// to an empty result, which callers treat as zero engagement.
func (c *Client) GetOverallStats(ctx context.Context, req StatsRequest) (*Stats, error) {
	const op = "get_overall_stats"
	if req.AccountIDs == nil {
		req.AccountIDs = []int64{}
	}
	if req.CampaignIDs == nil {
		req.CampaignIDs = []int64{}
	}
	body, err := c.doRequest(ctx, op, http.MethodPost, "/api/public/stats/GetOverallStats", nil, req)
	if err != nil {
		return nil, err
	}
	stats, err := decode[Stats](op, body)
	if err != nil {
		return nil, err
	}
	if stats.ByDay == nil {
		stats.ByDay = map[string]StatBlock{}
	}
	return stats, nil
}

// ========== Accounts & inbox ==========

// ListLinkedInAccounts returns one page of connected sender accounts.
func (c *Client) ListLinkedInAccounts(ctx context.Context, p Page) (*AccountPage, error) {
	const op = "list_linkedin_accounts"
	p = c.page(p)
	body, err := c.doRequest(ctx, op, http.MethodPost, "/api/public/li_account/GetAll", nil, p)
	if err != nil {
		return nil, err
	}
	env, err := decode[listEnvelope[LinkedInAccount]](op, body)
	if err != nil {
		return nil, err
	}
	items := env.Items
	if items == nil {
		items = []LinkedInAccount{}
	}
	total := env.total()
	more := hasMore(p.Offset, len(items), p.Limit, total)
	if total < 0 {
		total = p.Offset + len(items)
	}
	return &AccountPage{Items: items, TotalCount: total, HasMore: more}, nil
}

// ListConversations returns one page of inbox threads.
func (c *Client) ListConversations(ctx context.Context, filter ConversationFilter, p Page) (*ConversationPage, error) {
	const op = "list_conversations"
	p = c.page(p)
	reqBody := struct {
		Filters ConversationFilter `json:"filters"`
		Offset  int                `json:"offset"`
		Limit   int                `json:"limit"`
	}{filter, p.Offset, p.Limit}

	body, err := c.doRequest(ctx, op, http.MethodPost, "/api/public/inbox/GetConversationsV2", nil, reqBody)
	if err != nil {
		return nil, err
	}
	env, err := decode[listEnvelope[Conversation]](op, body)
	if err != nil {
		return nil, err
	}
	items := env.Items
	if items == nil {
		items = []Conversation{}
	}
	total := env.total()
	more := hasMore(p.Offset, len(items), p.Limit, total)
	if total < 0 {
		total = p.Offset + len(items)
	}
	return &ConversationPage{Items: items, TotalCount: total, HasMore: more}, nil
}

// ========== Leads ==========

// AddLeadsToCampaign pushes leads into a campaign and returns the raw reply.
func (c *Client) AddLeadsToCampaign(ctx context.Context, campaignID string, leads []LeadInput) (json.RawMessage, error) {
	const op = "add_leads_to_campaign"
	id, err := ID(campaignID).Int()
	if err != nil {
		return nil, &gateway.Error{Platform: platform, Op: op, Kind: gateway.KindRejected,
			Err: fmt.Errorf("campaign id %q is not numeric", campaignID)}
	}
	req := addLeadsRequest{CampaignID: id}
	for _, l := range leads {
		req.AccountLeadPairs = append(req.AccountLeadPairs, accountLeadPair{Lead: l})
	}

	body, err := c.doRequest(ctx, op, http.MethodPost, "/api/public/campaign/AddLeadsToCampaignV2", nil, req)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(body), nil
}
