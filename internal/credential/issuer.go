// Package credential holds the client for the external credential
// issuer, which mints one proof-of-purchase per allocated ticket.
package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/onsale/marketplace/internal/domain"
)

// Issuer mints a credential for the owner, tagged with the event.
type Issuer interface {
	Issue(ctx context.Context, owner string, eventID uint64) error
}

// HTTPIssuer issues credentials through a remote issuer service.
type HTTPIssuer struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPIssuer(baseURL string) *HTTPIssuer {
	return &HTTPIssuer{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type issueRequest struct {
	Owner   string `json:"owner"`
	EventID uint64 `json:"event_id"`
}

func (c *HTTPIssuer) Issue(ctx context.Context, owner string, eventID uint64) error {
	body, err := json.Marshal(issueRequest{
		Owner:   owner,
		EventID: eventID,
	})
	if err != nil {
		return fmt.Errorf("marshal issue request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/credentials", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build issue request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call issuer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("issuer returned status %d: %w", resp.StatusCode, domain.ErrIssuanceFailed)
	}
	return nil
}
