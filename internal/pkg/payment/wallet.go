package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lngifts/LightningGifts/internal/pkg/env"
)

// WalletClient adapts a custodial wallet daemon to the Provider interface.
// The wallet settles invoices and payouts asynchronously and reports
// outcomes through its webhook, so status answers here are often "pending".
type WalletClient struct {
	BaseURL string
	Token   string

	HTTPClient *http.Client
}

func NewWalletClientFromEnv() *WalletClient {
	return &WalletClient{
		BaseURL: strings.TrimRight(env.GetEnv("WALLET_API_URL", "http://localhost:9090"), "/"),
		Token:   strings.TrimSpace(env.GetEnv("WALLET_API_TOKEN", "")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type walletInvoice struct {
	ID             string `json:"id"`
	PaymentRequest string `json:"payment_request"`
	Status         string `json:"status"`
	AmountSats     int64  `json:"amount_sats"`
}

type walletPayment struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	FeeSats int64  `json:"fee_sats"`
	Error   string `json:"error"`
}

func (c *WalletClient) CreateInvoice(ctx context.Context, amountSats int64, meta InvoiceMetadata) (*Invoice, error) {
	payload := map[string]any{
		"amount_sats": amountSats,
		"memo":        meta.Description,
		"order_id":    meta.OrderID,
	}

	var inv walletInvoice
	if err := c.do(ctx, http.MethodPost, "/invoices", payload, &inv); err != nil {
		return nil, err
	}
	if inv.ID == "" || inv.PaymentRequest == "" {
		return nil, fmt.Errorf("%w: incomplete invoice response", ErrProviderRejected)
	}
	return &Invoice{
		ChargeID:       inv.ID,
		PaymentRequest: inv.PaymentRequest,
		Status:         normalizeChargeStatus(inv.Status),
	}, nil
}

func (c *WalletClient) GetInvoiceStatus(ctx context.Context, chargeID string) (*InvoiceStatus, error) {
	var inv walletInvoice
	if err := c.do(ctx, http.MethodGet, "/invoices/"+chargeID, nil, &inv); err != nil {
		return nil, err
	}
	return &InvoiceStatus{
		Status:     normalizeChargeStatus(inv.Status),
		AmountSats: inv.AmountSats,
	}, nil
}

func (c *WalletClient) InitiateWithdrawal(ctx context.Context, amountSats int64, paymentRequest string) (*Withdrawal, error) {
	// The payout call is not idempotent on the wallet side; a client key lets
	// the daemon dedupe a resubmitted request after a transport failure.
	payload := map[string]any{
		"invoice":         paymentRequest,
		"amount_sats":     amountSats,
		"idempotency_key": uuid.NewString(),
	}

	var p walletPayment
	if err := c.do(ctx, http.MethodPost, "/payments", payload, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: incomplete payment response", ErrProviderRejected)
	}
	return &Withdrawal{WithdrawalID: p.ID}, nil
}

func (c *WalletClient) GetWithdrawalStatus(ctx context.Context, withdrawalID string) (*WithdrawalStatus, error) {
	var p walletPayment
	if err := c.do(ctx, http.MethodGet, "/payments/"+withdrawalID, nil, &p); err != nil {
		return nil, err
	}
	return &WithdrawalStatus{
		Status:  normalizeWithdrawalStatus(p.Status),
		FeeSats: p.FeeSats,
	}, nil
}

func (c *WalletClient) do(ctx context.Context, method, path string, payload any, out any) error {
	var bodyReader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: wallet %s %s: %v", ErrProviderUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: wallet status %d: %s", ErrProviderUnavailable, resp.StatusCode, body)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: wallet status %d: %s", ErrProviderRejected, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode wallet response: %v", ErrProviderUnavailable, err)
	}
	return nil
}
