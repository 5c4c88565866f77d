package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/domain"
)

func TestTriggerScrape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get(SecretHeader); got != "s3cret" {
			t.Errorf("secret header = %q", got)
		}
		var req ScrapeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Niche != "dental clinics" || req.Source != domain.SourceEmail {
			t.Errorf("request = %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"executionId":"42"}`))
	}))
	defer server.Close()

	c := NewClient(Config{ScrapeURL: server.URL, Secret: "s3cret"})
	c.SetHTTPClient(server.Client())

	res, err := c.TriggerScrape(context.Background(), ScrapeRequest{Source: domain.SourceEmail, Niche: "dental clinics", Limit: 50})
	if err != nil {
		t.Fatalf("TriggerScrape() error: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", res.StatusCode)
	}
	if string(res.Body) != `{"executionId":"42"}` {
		t.Errorf("Body = %s", res.Body)
	}
}

func TestTriggerOutreach_RetriesThenPassesThroughPlainText(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(SecretHeader) != "" {
			t.Error("secret header should be absent")
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("Workflow was started"))
	}))
	defer server.Close()

	c := NewClient(Config{OutreachURL: server.URL})
	c.SetHTTPClient(retryingClient(server.Client()))

	res, err := c.TriggerOutreach(context.Background(), OutreachRequest{
		Platform: domain.PlatformHeyReach, CampaignID: "77", Source: domain.SourceLinkedIn,
	})
	if err != nil {
		t.Fatalf("TriggerOutreach() error: %v", err)
	}
	if res.StatusCode != http.StatusAccepted {
		t.Errorf("StatusCode = %d", res.StatusCode)
	}
	if string(res.Body) != `"Workflow was started"` {
		t.Errorf("Body = %s", res.Body)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestTriggerScrape_InactiveWebhookIsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"webhook not registered"}`))
	}))
	defer server.Close()

	c := NewClient(Config{ScrapeURL: server.URL})
	c.SetHTTPClient(server.Client())

	res, err := c.TriggerScrape(context.Background(), ScrapeRequest{Source: domain.SourceEmail, Niche: "roofers"})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("error = %v, want ErrRejected", err)
	}
	if res == nil || res.StatusCode != http.StatusNotFound {
		t.Fatalf("result = %+v, want status 404", res)
	}
	if string(res.Body) != `{"message":"webhook not registered"}` {
		t.Errorf("Body = %s", res.Body)
	}
}

func TestTriggerOutreach_ServerErrorAfterRetriesIsRejected(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(Config{OutreachURL: server.URL})
	c.SetHTTPClient(retryingClient(server.Client()))

	res, err := c.TriggerOutreach(context.Background(), OutreachRequest{
		Platform: domain.PlatformInstantly, CampaignID: "c1", Source: domain.SourceEmail,
	})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("error = %v, want ErrRejected", err)
	}
	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", res.StatusCode)
	}
	if atomic.LoadInt32(&calls) != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestTrigger_NotConfigured(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.TriggerScrape(context.Background(), ScrapeRequest{Source: domain.SourceEmail, Niche: "x"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
	_, err = c.TriggerOutreach(context.Background(), OutreachRequest{
		Platform: domain.PlatformInstantly, CampaignID: "c", Source: domain.SourceEmail,
	})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestTrigger_Validation(t *testing.T) {
	c := NewClient(Config{ScrapeURL: "http://unused", OutreachURL: "http://unused"})
	if _, err := c.TriggerScrape(context.Background(), ScrapeRequest{Source: domain.SourceEmail}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("scrape without niche or query: error = %v, want ErrInvalidRequest", err)
	}
	if _, err := c.TriggerOutreach(context.Background(), OutreachRequest{Platform: "mailchimp", Source: domain.SourceEmail, CampaignID: "1"}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("unknown platform: error = %v, want ErrInvalidRequest", err)
	}
}
