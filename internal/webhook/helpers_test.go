package webhook

import (
	"net/http"
	"time"

	"github.com/nodeagencyai/lead-gen-os-sub001/internal/pkg/httpretry"
)

func retryingClient(base *http.Client) httpretry.HTTPDoer {
	rc := httpretry.NewRetryClient(base, 3)
	rc.SetBackoff(time.Millisecond, 2*time.Millisecond)
	return rc
}
