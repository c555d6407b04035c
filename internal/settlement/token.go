// Package settlement holds the secondary-currency settlement channel.
// The primary (native) denomination needs no channel: callers attach
// funds to the purchase request and the engine only checks the amount.
package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/onsale/marketplace/internal/domain"
)

// TokenChannel pulls settlement funds from a payer. The pull must
// complete before a purchase commits.
type TokenChannel interface {
	TransferFrom(ctx context.Context, payer, beneficiary string, amount uint64) error
}

// HTTPTokenChannel settles token payments against a remote token
// service. The service address can be repointed at runtime by the
// administrator.
type HTTPTokenChannel struct {
	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client
}

func NewHTTPTokenChannel(baseURL string) *HTTPTokenChannel {
	return &HTTPTokenChannel{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Repoint swaps the token service address for subsequent transfers.
func (c *HTTPTokenChannel) Repoint(baseURL string) {
	c.mu.Lock()
	c.baseURL = baseURL
	c.mu.Unlock()
}

// Address returns the current token service address.
func (c *HTTPTokenChannel) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

type transferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

func (c *HTTPTokenChannel) TransferFrom(ctx context.Context, payer, beneficiary string, amount uint64) error {
	body, err := json.Marshal(transferRequest{
		From:   payer,
		To:     beneficiary,
		Amount: amount,
	})
	if err != nil {
		return fmt.Errorf("marshal transfer: %w", err)
	}

	url := c.Address() + "/transfers"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call token service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("token service returned status %d: %w", resp.StatusCode, domain.ErrPaymentTransferFailed)
	}
	return nil
}
