package controllers

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lngifts/LightningGifts/app/models"
	"github.com/lngifts/LightningGifts/internal/pkg/env"
	"github.com/lngifts/LightningGifts/internal/pkg/payment"
)

const webhookProvider = "opennode"

// OpenNode delivers webhooks form-encoded; the struct tags also accept JSON
// so the wallet back-end can use the same endpoints.
type chargeWebhookRequest struct {
	ID          string `json:"id" form:"id"`
	Status      string `json:"status" form:"status"`
	OrderID     string `json:"order_id" form:"order_id"`
	HashedOrder string `json:"hashed_order" form:"hashed_order"`
}

type withdrawalWebhookRequest struct {
	ID          string `json:"id" form:"id"`
	Status      string `json:"status" form:"status"`
	Fee         int64  `json:"fee" form:"fee"`
	Error       string `json:"error" form:"error"`
	HashedOrder string `json:"hashed_order" form:"hashed_order"`
}

// HandleChargeWebhook ingests provider charge status events. Events are
// recorded before processing so duplicate deliveries become cheap no-ops,
// and business no-ops still answer 200 so the provider stops retrying.
func HandleChargeWebhook(c *fiber.Ctx) error {
	var req chargeWebhookRequest
	if err := c.BodyParser(&req); err != nil || req.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"statusCode": fiber.StatusBadRequest,
			"message":    "INVALID_BODY",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	svc := GiftService()
	signatureValid := verifyWebhookSignature(req.OrderID, req.HashedOrder)
	created, stored, err := svc.RecordWebhookEvent(&models.WebhookEvent{
		Provider:        webhookProvider,
		ProviderEventID: fmt.Sprintf("charge:%s:%s", req.ID, strings.ToLower(req.Status)),
		EventType:       "charge." + strings.ToLower(req.Status),
		PayloadJSON:     string(c.BodyRaw()),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if !signatureValid {
		_ = svc.MarkWebhookProcessed(stored.ID, "invalid webhook signature")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	reconcileErr := svc.ReconcileCharge(ctx, req.ID, req.Status)
	_ = svc.MarkWebhookProcessed(stored.ID, errString(reconcileErr))
	if reconcileErr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "charge_reconcile_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// HandleWithdrawalWebhook ingests provider withdrawal outcome events.
func HandleWithdrawalWebhook(c *fiber.Ctx) error {
	var req withdrawalWebhookRequest
	if err := c.BodyParser(&req); err != nil || req.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"statusCode": fiber.StatusBadRequest,
			"message":    "INVALID_BODY",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	svc := GiftService()
	created, stored, err := svc.RecordWebhookEvent(&models.WebhookEvent{
		Provider:        webhookProvider,
		ProviderEventID: fmt.Sprintf("withdrawal:%s:%s", req.ID, strings.ToLower(req.Status)),
		EventType:       "withdrawal." + strings.ToLower(req.Status),
		PayloadJSON:     string(c.BodyRaw()),
		SignatureValid:  true,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	outcome := normalizeWebhookWithdrawalStatus(req.Status)
	reconcileErr := svc.ReconcileWithdrawal(ctx, req.ID, outcome, req.Fee, req.Error)
	_ = svc.MarkWebhookProcessed(stored.ID, errString(reconcileErr))
	if reconcileErr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "withdrawal_reconcile_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// verifyWebhookSignature checks the OpenNode hashed_order HMAC. Deployments
// without an API key (the wallet back-end) skip verification.
func verifyWebhookSignature(orderID, hashedOrder string) bool {
	if env.GetEnv("OPENNODE_KEY", "") == "" {
		return true
	}
	return payment.NewOpenNodeClientFromEnv().VerifyHashedOrder(orderID, hashedOrder)
}

func normalizeWebhookWithdrawalStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirmed", "settled", "complete":
		return payment.WithdrawalStatusConfirmed
	case "failed", "error":
		return payment.WithdrawalStatusFailed
	default:
		return payment.WithdrawalStatusPending
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
