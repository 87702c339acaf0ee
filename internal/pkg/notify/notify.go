package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client delivers the outbound redemption callback. Delivery is best-effort:
// a failed callback is reported to the caller for logging but never rolls
// back a redemption.
type Client struct {
	HTTPClient *http.Client
}

func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type redeemedPayload struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Spent  bool   `json:"spent"`
}

// GiftRedeemed posts {id, amount, spent:true} to the configured callback URL.
func (c *Client) GiftRedeemed(ctx context.Context, url, giftID string, amountSats int64) error {
	body, err := json.Marshal(redeemedPayload{ID: giftID, Amount: amountSats, Spent: true})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify %s: status %d", url, resp.StatusCode)
	}
	return nil
}
