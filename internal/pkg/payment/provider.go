package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/lngifts/LightningGifts/internal/pkg/env"
)

var (
	// ErrProviderUnavailable covers timeouts, network failures and provider
	// 5xx answers. Callers surface it as an upstream failure, never retry
	// silently.
	ErrProviderUnavailable = errors.New("PROVIDER_UNAVAILABLE")
	// ErrProviderRejected covers provider-side rejections such as an
	// insufficient balance. For withdrawals this maps to a redemption
	// failure, not a retry.
	ErrProviderRejected = errors.New("PROVIDER_REJECTED")
)

const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusConfirmed = "confirmed"
	WithdrawalStatusFailed    = "failed"
)

// Invoice is the provider-neutral result of creating a funding charge.
type Invoice struct {
	ChargeID       string
	PaymentRequest string
	Status         string
}

// InvoiceStatus is the provider-neutral answer to a charge status query.
type InvoiceStatus struct {
	Status     string
	AmountSats int64
}

// Withdrawal identifies an initiated payout.
type Withdrawal struct {
	WithdrawalID string
}

// WithdrawalStatus is the provider-neutral answer to a payout status query.
type WithdrawalStatus struct {
	Status  string
	FeeSats int64
}

// InvoiceMetadata is attached to charge creation so webhook events can be
// correlated back to the gift.
type InvoiceMetadata struct {
	OrderID     string
	Description string
}

// Provider abstracts the payment back-end. The gift state machine only ever
// talks to this interface; concrete adapters translate each provider's wire
// format to these four operations.
type Provider interface {
	CreateInvoice(ctx context.Context, amountSats int64, meta InvoiceMetadata) (*Invoice, error)
	GetInvoiceStatus(ctx context.Context, chargeID string) (*InvoiceStatus, error)
	InitiateWithdrawal(ctx context.Context, amountSats int64, paymentRequest string) (*Withdrawal, error)
	GetWithdrawalStatus(ctx context.Context, withdrawalID string) (*WithdrawalStatus, error)
}

// FromEnv selects the configured provider adapter.
func FromEnv() Provider {
	switch strings.ToLower(env.GetEnv("PAYMENT_PROVIDER", "opennode")) {
	case "wallet":
		return NewWalletClientFromEnv()
	default:
		return NewOpenNodeClientFromEnv()
	}
}
