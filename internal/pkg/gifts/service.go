package gifts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/lngifts/LightningGifts/app/models"
	"github.com/lngifts/LightningGifts/internal/pkg/bolt11"
	"github.com/lngifts/LightningGifts/internal/pkg/env"
	"github.com/lngifts/LightningGifts/internal/pkg/lnurl"
	"github.com/lngifts/LightningGifts/internal/pkg/metrics/counter"
	"github.com/lngifts/LightningGifts/internal/pkg/notify"
	"github.com/lngifts/LightningGifts/internal/pkg/payment"
)

// Notifier delivers the outbound redemption callback.
type Notifier interface {
	GiftRedeemed(ctx context.Context, url, giftID string, amountSats int64) error
}

// Service owns every valid transition of a gift between creation, funding
// and redemption. It holds no gift state of its own: each operation re-reads
// the current record through the repository, so concurrent webhooks and
// redemption attempts are arbitrated by the store's conditional updates.
type Service struct {
	repo     Repository
	provider payment.Provider
	notifier Notifier
	baseURL  string

	// redeemedHook fires at most once per gift, when a withdrawal is
	// confirmed. Optional.
	redeemedHook func(giftID string, amountSats int64)
}

// NewService creates a gift service from injected collaborators.
func NewService(repo Repository, provider payment.Provider, notifier Notifier, baseURL string) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// NewServiceFromDB creates a gift service from a GORM DB handle, wiring the
// provider and notifier from the environment.
func NewServiceFromDB(db *gorm.DB) *Service {
	svc := NewService(
		NewRepository(db),
		payment.FromEnv(),
		notify.NewClient(),
		env.GetEnv("SERVICE_URL", "http://localhost:4000"),
	)
	svc.redeemedHook = func(giftID string, amountSats int64) {
		if err := counter.AddGiftRedeemed(amountSats); err != nil {
			log.Printf("failed to count redemption of gift %s: %v", giftID, err)
		}
	}
	return svc
}

// CreateGift validates the input, requests a provider invoice and persists a
// fresh unspent gift. Validation failures cause no side effect.
func (s *Service) CreateGift(ctx context.Context, in CreateGiftInput) (*CreateGiftResult, error) {
	if in.Amount != math.Trunc(in.Amount) {
		return nil, ErrAmountNotWhole
	}
	if err := validator.New().Struct(in); err != nil {
		return nil, mapValidationError(err)
	}
	amount := int64(in.Amount)

	id, err := models.NewGiftID()
	if err != nil {
		return nil, fmt.Errorf("generate gift id: %w", err)
	}

	invoice, err := s.provider.CreateInvoice(ctx, amount, payment.InvoiceMetadata{
		OrderID:     id,
		Description: fmt.Sprintf("Lightning gift for %d sats", amount),
	})
	if err != nil {
		return nil, err
	}

	gift := &models.Gift{
		ID:     id,
		Amount: amount,
		ChargeInfo: models.ChargeInfo{
			ChargeID:      invoice.ChargeID,
			ChargeInvoice: invoice.PaymentRequest,
			ChargeStatus:  invoice.Status,
		},
		Spent:         models.SpentNo,
		Notify:        strings.TrimSpace(in.Notify),
		SenderName:    strings.TrimSpace(in.SenderName),
		SenderMessage: strings.TrimSpace(in.SenderMessage),
	}
	if in.VerifyCode != "" {
		if err := gift.SetVerifyCode(in.VerifyCode); err != nil {
			return nil, fmt.Errorf("hash verify code: %w", err)
		}
	}

	if err := s.repo.CreateGift(gift); err != nil {
		return nil, fmt.Errorf("persist gift: %w", err)
	}

	encoded, err := lnurl.Encode(s.baseURL, id)
	if err != nil {
		return nil, err
	}
	return &CreateGiftResult{Gift: gift, LNURL: encoded}, nil
}

// GetGift returns the gift record. When the gift is PIN-gated and the
// attempt does not match, the result is marked restricted and the handler
// withholds the invoices and the notify target.
func (s *Service) GetGift(ctx context.Context, id, verifyCodeAttempt string) (*GiftDetails, error) {
	_ = ctx
	gift, err := s.repo.GetGift(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGiftNotFound
		}
		return nil, err
	}

	if gift.HasVerifyCode() && !gift.CheckVerifyCode(verifyCodeAttempt) {
		return &GiftDetails{Gift: gift, Restricted: true}, nil
	}
	return &GiftDetails{Gift: gift}, nil
}

// RequestRedemption drives the spent false -> pending transition and asks
// the provider to pay the submitted invoice. The claim is taken *before* the
// provider call: of two concurrent attempts exactly one wins the conditional
// update, and the loser never reaches the provider.
func (s *Service) RequestRedemption(ctx context.Context, id, paymentRequest, verifyCodeAttempt string) (string, error) {
	gift, err := s.repo.GetGift(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrGiftNotFound
		}
		return "", err
	}

	// First failing check wins; none of these have side effects.
	amount, err := bolt11.AmountSats(paymentRequest)
	if err != nil {
		return "", err
	}
	if amount != gift.Amount {
		return "", ErrBadInvoiceAmount
	}
	if gift.Spent == models.SpentPending {
		return "", ErrRedeemPending
	}
	if gift.Spent == models.SpentYes {
		return "", ErrGiftAlreadySpent
	}
	if gift.ChargeInfo.ChargeStatus != models.ChargeStatusPaid {
		return "", ErrInvoiceUnpaid
	}
	if gift.HasVerifyCode() && !gift.CheckVerifyCode(verifyCodeAttempt) {
		return "", ErrBadVerifyCode
	}

	claimed, err := s.repo.ClaimRedemption(id)
	if err != nil {
		return "", fmt.Errorf("claim redemption: %w", err)
	}
	if !claimed {
		// Lost a race with a concurrent attempt or webhook; report the state
		// the winner produced.
		if current, err := s.repo.GetGift(id); err == nil && current.Spent == models.SpentYes {
			return "", ErrGiftAlreadySpent
		}
		return "", ErrRedeemPending
	}

	withdrawal, err := s.provider.InitiateWithdrawal(ctx, gift.Amount, paymentRequest)
	if err != nil {
		if released, relErr := s.repo.ReleaseRedemption(id, err.Error()); relErr != nil || !released {
			log.Printf("CRITICAL: gift %s stuck pending after failed withdrawal initiation: %v", id, relErr)
		}
		return "", err
	}

	if err := s.repo.AttachWithdrawal(id, withdrawal.WithdrawalID, paymentRequest); err != nil {
		// The provider payout is already in flight but unrecorded. There is
		// no compensating call; flag for manual reconciliation.
		log.Printf("CRITICAL: withdrawal %s initiated for gift %s but not recorded: %v",
			withdrawal.WithdrawalID, id, err)
		return "", fmt.Errorf("record withdrawal: %w", err)
	}
	return withdrawal.WithdrawalID, nil
}

// ReconcileCharge applies a charge status report. Already-paid charges and
// unknown charge ids are no-ops, which makes duplicate webhook delivery and
// concurrent polls safe.
func (s *Service) ReconcileCharge(ctx context.Context, chargeID, newStatus string) error {
	_ = ctx
	if newStatus != models.ChargeStatusPaid {
		return nil
	}
	changed, err := s.repo.MarkChargePaid(chargeID)
	if err != nil {
		return fmt.Errorf("mark charge paid: %w", err)
	}
	if !changed {
		log.Printf("charge %s already paid or unknown, ignoring", chargeID)
	}
	return nil
}

// ReconcileWithdrawal applies a withdrawal outcome. A confirmed outcome
// settles the gift and fires the notify callback exactly once; a failed
// outcome returns the gift to the redeemable pool. Outcomes for unknown
// withdrawal ids are logged no-ops, and a late "failed" can never regress a
// gift that is already spent.
func (s *Service) ReconcileWithdrawal(ctx context.Context, withdrawalID, outcome string, feeSats int64, failureReason string) error {
	gift, err := s.repo.GetGiftByWithdrawalID(withdrawalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("no gift matches withdrawal %s, ignoring %s event", withdrawalID, outcome)
			return nil
		}
		return err
	}

	switch outcome {
	case payment.WithdrawalStatusConfirmed:
		changed, err := s.repo.ConfirmWithdrawal(withdrawalID, feeSats)
		if err != nil {
			return fmt.Errorf("confirm withdrawal: %w", err)
		}
		if !changed {
			log.Printf("withdrawal %s already confirmed, ignoring duplicate", withdrawalID)
			return nil
		}
		if s.redeemedHook != nil {
			s.redeemedHook(gift.ID, gift.Amount)
		}
		if gift.Notify != "" {
			if err := s.notifier.GiftRedeemed(ctx, gift.Notify, gift.ID, gift.Amount); err != nil {
				log.Printf("notify callback for gift %s failed: %v", gift.ID, err)
			}
		}
	case payment.WithdrawalStatusFailed:
		changed, err := s.repo.FailWithdrawal(withdrawalID, failureReason)
		if err != nil {
			return fmt.Errorf("fail withdrawal: %w", err)
		}
		if !changed {
			log.Printf("withdrawal %s not pending, ignoring stale failure event", withdrawalID)
		}
	default:
		// Still pending on the provider side; nothing to reconcile.
	}
	return nil
}

// PollCharge asks the provider for the current charge status and folds a
// paid answer into the gift record.
func (s *Service) PollCharge(ctx context.Context, chargeID string) (string, error) {
	status, err := s.provider.GetInvoiceStatus(ctx, chargeID)
	if err != nil {
		return "", err
	}
	if err := s.ReconcileCharge(ctx, chargeID, status.Status); err != nil {
		return "", err
	}
	return status.Status, nil
}

// PollWithdrawal asks the provider for the current withdrawal outcome and
// folds it into the gift record.
func (s *Service) PollWithdrawal(ctx context.Context, withdrawalID string) (*payment.WithdrawalStatus, error) {
	status, err := s.provider.GetWithdrawalStatus(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if err := s.ReconcileWithdrawal(ctx, withdrawalID, status.Status, status.FeeSats, ""); err != nil {
		return nil, err
	}
	return status, nil
}

// RecordWebhookEvent persists an incoming webhook exactly once. The first
// delivery reports created=true; replays get the stored event back.
func (s *Service) RecordWebhookEvent(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed stamps a webhook event with its processing outcome.
func (s *Service) MarkWebhookProcessed(id uint, processingError string) error {
	return s.repo.MarkWebhookProcessed(id, processingError)
}

// WithdrawResponse builds the first-step LNURL-withdraw object for a gift.
func (s *Service) WithdrawResponse(gift *models.Gift) lnurl.WithdrawResponse {
	return lnurl.NewWithdrawResponse(s.baseURL, gift.ID, gift.Amount)
}

// LNURL returns the bech32-encoded withdraw link of a gift.
func (s *Service) LNURL(giftID string) (string, error) {
	return lnurl.Encode(s.baseURL, giftID)
}

func mapValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	switch fe := fieldErrs[0]; fe.Field() {
	case "Amount":
		if fe.Tag() == "max" {
			return ErrAmountTooHigh
		}
		return ErrAmountTooLow
	case "SenderName":
		return ErrSenderNameTooLong
	case "SenderMessage":
		return ErrSenderMessageTooLong
	case "Notify":
		return ErrNotifyURLInvalid
	case "VerifyCode":
		return ErrVerifyCodeInvalid
	default:
		return err
	}
}
