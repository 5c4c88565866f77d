// Package webhook triggers the external scrape and outreach workflows.
// The workflow engine is opaque: requests are JSON, responses are passed
// back untouched.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/httpretry"
	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/logger"
)

var (
	// ErrNotConfigured is returned when the workflow URL is empty.
	ErrNotConfigured = errors.New("workflow webhook not configured")
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid workflow request")
	// ErrRejected wraps non-2xx replies from the workflow engine. The
	// Result is still returned alongside it.
	ErrRejected = errors.New("workflow webhook rejected the request")
)

// SecretHeader carries the shared secret when one is configured.
const SecretHeader = "X-Webhook-Secret"

// maxBody caps how much of a workflow response is kept.
const maxBody = 1 << 20

// Config holds the webhook endpoints.
type Config struct {
	ScrapeURL   string
	OutreachURL string
	Secret      string
	Timeout     time.Duration
	MaxRetries  int
}

// ScrapeRequest asks the scrape workflow to find new leads.
type ScrapeRequest struct {
	Source   domain.LeadSource `json:"source"`
	Niche    string            `json:"niche"`
	Query    string            `json:"query,omitempty"`
	Location string            `json:"location,omitempty"`
	Limit    int               `json:"limit,omitempty"`
}

// Validate checks the request before it is sent.
func (r ScrapeRequest) Validate() error {
	if _, err := domain.ParseLeadSource(string(r.Source)); err != nil {
		return err
	}
	if r.Niche == "" && r.Query == "" {
		return errors.New("niche or query is required")
	}
	if r.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

// OutreachRequest asks the outreach workflow to push leads into a campaign.
type OutreachRequest struct {
	Platform   domain.Platform   `json:"platform"`
	CampaignID string            `json:"campaign_id"`
	Source     domain.LeadSource `json:"source"`
	LeadIDs    []string          `json:"lead_ids,omitempty"`
	Niche      string            `json:"niche,omitempty"`
}

// Validate checks the request before it is sent.
func (r OutreachRequest) Validate() error {
	if _, err := domain.ParsePlatform(string(r.Platform)); err != nil {
		return err
	}
	if _, err := domain.ParseLeadSource(string(r.Source)); err != nil {
		return err
	}
	if r.CampaignID == "" {
		return errors.New("campaign_id is required")
	}
	return nil
}

// Result is the workflow's response.
type Result struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// Client posts to the workflow webhooks.
type Client struct {
	cfg        Config
	httpClient httpretry.HTTPDoer
	log        *logger.Logger
}

// NewClient creates a webhook client; a zero MaxRetries means 3.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &Client{
		cfg: cfg,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout,
		}, cfg.MaxRetries),
		log: logger.New("webhook"),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// TriggerScrape starts the scrape workflow.
func (c *Client) TriggerScrape(ctx context.Context, req ScrapeRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return c.post(ctx, "scrape", c.cfg.ScrapeURL, req)
}

// TriggerOutreach starts the outreach workflow.
func (c *Client) TriggerOutreach(ctx context.Context, req OutreachRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return c.post(ctx, "outreach", c.cfg.OutreachURL, req)
}

func (c *Client) post(ctx context.Context, name, url string, payload interface{}) (*Result, error) {
	if url == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Secret != "" {
		req.Header.Set(SecretHeader, c.cfg.Secret)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("workflow trigger failed", "workflow", name, "error", err)
		return nil, fmt.Errorf("%s webhook: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", name, err)
	}

	res := &Result{StatusCode: resp.StatusCode, Body: opaqueBody(raw)}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("workflow refused trigger", "workflow", name, "status", resp.StatusCode, "duration", time.Since(start))
		return res, fmt.Errorf("%s webhook: status %d: %w", name, resp.StatusCode, ErrRejected)
	}

	c.log.Info("workflow triggered", "workflow", name, "status", resp.StatusCode, "duration", time.Since(start))
	return res, nil
}

// opaqueBody returns JSON bodies as-is and wraps anything else as a string.
func opaqueBody(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return raw
	}
	quoted, _ := json.Marshal(string(raw))
	return quoted
}
