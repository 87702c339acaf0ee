package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lngifts/LightningGifts/app/models"
	"github.com/lngifts/LightningGifts/internal/pkg/env"
)

const (
	defaultOpenNodeAPIV1 = "https://api.opennode.co/v1"
	defaultOpenNodeAPIV2 = "https://api.opennode.co/v2"
)

// OpenNodeClient adapts the hosted OpenNode invoicing/withdrawal API to the
// Provider interface. Charges live on the v1 API, withdrawals on v2.
type OpenNodeClient struct {
	APIKey    string
	BaseURLV1 string
	BaseURLV2 string

	HTTPClient *http.Client
}

func NewOpenNodeClientFromEnv() *OpenNodeClient {
	return &OpenNodeClient{
		APIKey:    strings.TrimSpace(env.GetEnv("OPENNODE_KEY", "")),
		BaseURLV1: strings.TrimRight(env.GetEnv("OPENNODE_API_V1", defaultOpenNodeAPIV1), "/"),
		BaseURLV2: strings.TrimRight(env.GetEnv("OPENNODE_API_V2", defaultOpenNodeAPIV2), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type openNodeCharge struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	Amount           int64  `json:"amount"`
	OrderID          string `json:"order_id"`
	LightningInvoice struct {
		PayReq string `json:"payreq"`
	} `json:"lightning_invoice"`
}

type openNodeWithdrawal struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Fee       int64  `json:"fee"`
	Reference string `json:"reference"`
}

func (c *OpenNodeClient) CreateInvoice(ctx context.Context, amountSats int64, meta InvoiceMetadata) (*Invoice, error) {
	payload := map[string]any{
		"order_id":    meta.OrderID,
		"amount":      amountSats,
		"description": meta.Description,
	}

	var out struct {
		Data openNodeCharge `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, c.BaseURLV1+"/charges", payload, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" || out.Data.LightningInvoice.PayReq == "" {
		return nil, fmt.Errorf("%w: incomplete charge response", ErrProviderRejected)
	}
	return &Invoice{
		ChargeID:       out.Data.ID,
		PaymentRequest: out.Data.LightningInvoice.PayReq,
		Status:         normalizeChargeStatus(out.Data.Status),
	}, nil
}

func (c *OpenNodeClient) GetInvoiceStatus(ctx context.Context, chargeID string) (*InvoiceStatus, error) {
	var out struct {
		Data openNodeCharge `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, c.BaseURLV1+"/charge/"+chargeID, nil, &out); err != nil {
		return nil, err
	}
	return &InvoiceStatus{
		Status:     normalizeChargeStatus(out.Data.Status),
		AmountSats: out.Data.Amount,
	}, nil
}

func (c *OpenNodeClient) InitiateWithdrawal(ctx context.Context, amountSats int64, paymentRequest string) (*Withdrawal, error) {
	payload := map[string]any{
		"type":    "ln",
		"amount":  amountSats,
		"address": paymentRequest,
	}

	var out struct {
		Data openNodeWithdrawal `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, c.BaseURLV2+"/withdrawals", payload, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, fmt.Errorf("%w: incomplete withdrawal response", ErrProviderRejected)
	}
	return &Withdrawal{WithdrawalID: out.Data.ID}, nil
}

func (c *OpenNodeClient) GetWithdrawalStatus(ctx context.Context, withdrawalID string) (*WithdrawalStatus, error) {
	var out struct {
		Data openNodeWithdrawal `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, c.BaseURLV1+"/withdrawal/"+withdrawalID, nil, &out); err != nil {
		return nil, err
	}
	return &WithdrawalStatus{
		Status:  normalizeWithdrawalStatus(out.Data.Status),
		FeeSats: out.Data.Fee,
	}, nil
}

// VerifyHashedOrder checks the HMAC OpenNode attaches to charge webhooks:
// hashed_order = HMAC-SHA256(order_id) keyed with the API key.
func (c *OpenNodeClient) VerifyHashedOrder(orderID, hashedOrder string) bool {
	if c.APIKey == "" || hashedOrder == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(c.APIKey))
	mac.Write([]byte(orderID))
	expected, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(hashedOrder)))
	if err != nil {
		return false
	}
	return hmac.Equal(mac.Sum(nil), expected)
}

func (c *OpenNodeClient) do(ctx context.Context, method, url string, payload any, out any) error {
	var bodyReader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: opennode %s %s: %v", ErrProviderUnavailable, method, url, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: opennode status %d: %s", ErrProviderUnavailable, resp.StatusCode, body)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: opennode status %d: %s", ErrProviderRejected, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode opennode response: %v", ErrProviderUnavailable, err)
	}
	return nil
}

func normalizeChargeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "paid", "settled":
		return models.ChargeStatusPaid
	default:
		return models.ChargeStatusUnpaid
	}
}

func normalizeWithdrawalStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirmed", "settled", "complete":
		return WithdrawalStatusConfirmed
	case "failed", "error":
		return WithdrawalStatusFailed
	default:
		return WithdrawalStatusPending
	}
}
