package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skip2/go-qrcode"

	"github.com/lngifts/LightningGifts/app/models"
	"github.com/lngifts/LightningGifts/internal/pkg/cache"
	"github.com/lngifts/LightningGifts/internal/pkg/gifts"
	"github.com/lngifts/LightningGifts/internal/pkg/metrics/counter"
)

const requestTimeout = 15 * time.Second

type createGiftRequest struct {
	Amount        float64 `json:"amount"`
	SenderName    string  `json:"senderName"`
	SenderMessage string  `json:"senderMessage"`
	Notify        string  `json:"notify"`
	VerifyCode    string  `json:"verifyCode"`
}

type redeemRequest struct {
	Invoice    string `json:"invoice"`
	VerifyCode string `json:"verifyCode"`
}

// HandleCreateGift creates a gift and answers with the funding invoice plus
// the encoded LNURL-withdraw link.
func HandleCreateGift(c *fiber.Ctx) error {
	var req createGiftRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"statusCode": fiber.StatusBadRequest,
			"message":    "INVALID_BODY",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	svc := GiftService()
	result, err := svc.CreateGift(ctx, gifts.CreateGiftInput{
		Amount:        req.Amount,
		SenderName:    req.SenderName,
		SenderMessage: req.SenderMessage,
		Notify:        req.Notify,
		VerifyCode:    req.VerifyCode,
	})
	if err != nil {
		return apiError(c, err)
	}

	gift := result.Gift
	if err := counter.AddGiftCreated(gift.Amount); err != nil {
		log.Printf("failed to count gift creation: %v", err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"orderId":  gift.ID,
		"chargeId": gift.ChargeInfo.ChargeID,
		"status":   gift.ChargeInfo.ChargeStatus,
		"lightningInvoice": fiber.Map{
			"payreq": gift.ChargeInfo.ChargeInvoice,
		},
		"amount":        gift.Amount,
		"notify":        gift.Notify,
		"lnurl":         result.LNURL,
		"senderName":    gift.SenderName,
		"senderMessage": gift.SenderMessage,
	})
}

// HandleGetGift returns a gift. PIN-gated gifts answer with a reduced view
// until the matching verifyCode query parameter is presented.
func HandleGetGift(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	details, err := GiftService().GetGift(ctx, c.Params("id"), c.Query("verifyCode"))
	if err != nil {
		return apiError(c, err)
	}

	gift := details.Gift
	if details.Restricted {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"orderId":            gift.ID,
			"amount":             gift.Amount,
			"chargeStatus":       gift.ChargeInfo.ChargeStatus,
			"spent":              gift.Spent,
			"verifyCodeRequired": true,
		})
	}

	lnurlStr, err := GiftService().LNURL(gift.ID)
	if err != nil {
		return apiError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"orderId":        gift.ID,
		"amount":         gift.Amount,
		"chargeId":       gift.ChargeInfo.ChargeID,
		"chargeInvoice":  gift.ChargeInfo.ChargeInvoice,
		"chargeStatus":   gift.ChargeInfo.ChargeStatus,
		"spent":          gift.Spent,
		"lnurl":          lnurlStr,
		"notify":         gift.Notify,
		"senderName":     gift.SenderName,
		"senderMessage":  gift.SenderMessage,
		"withdrawalInfo": gift.WithdrawalInfo,
		"createdAt":      gift.CreatedAt,
	})
}

// HandleGetGiftQR renders the LNURL of a gift as a PNG QR code.
func HandleGetGiftQR(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	details, err := GiftService().GetGift(ctx, c.Params("id"), c.Query("verifyCode"))
	if err != nil {
		return apiError(c, err)
	}
	if details.Restricted {
		return apiError(c, gifts.ErrBadVerifyCode)
	}

	encoded, err := GiftService().LNURL(details.Gift.ID)
	if err != nil {
		return apiError(c, err)
	}
	png, err := qrcode.Encode(encoded, qrcode.Medium, 256)
	if err != nil {
		return apiError(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Status(fiber.StatusOK).Send(png)
}

// HandleRedeem pays out a gift to the submitted BOLT-11 invoice.
func HandleRedeem(c *fiber.Ctx) error {
	var req redeemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"statusCode": fiber.StatusBadRequest,
			"message":    "INVALID_BODY",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	withdrawalID, err := GiftService().RequestRedemption(ctx, c.Params("id"), req.Invoice, req.VerifyCode)
	if err != nil {
		return apiError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"withdrawalId": withdrawalID,
	})
}

// HandleChargeStatus polls the provider for a funding invoice and folds the
// answer into the gift record. Paid results are cached: they are terminal,
// and creation pages poll this endpoint in a tight loop.
func HandleChargeStatus(c *fiber.Ctx) error {
	chargeID := c.Params("chargeId")

	if cached, err := cache.Get(cache.ChargeStatusKey(chargeID)); err == nil && cached == models.ChargeStatusPaid {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": cached})
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	status, err := GiftService().PollCharge(ctx, chargeID)
	if err != nil {
		return apiError(c, err)
	}
	if status == models.ChargeStatusPaid {
		_ = cache.Set(cache.ChargeStatusKey(chargeID), status, time.Hour)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": status})
}

// HandleRedeemStatus polls the provider for a withdrawal outcome and folds
// the answer into the gift record.
func HandleRedeemStatus(c *fiber.Ctx) error {
	withdrawalID := c.Params("withdrawalId")

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	status, err := GiftService().PollWithdrawal(ctx, withdrawalID)
	if err != nil {
		return apiError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": status.Status,
		"fee":    status.FeeSats,
	})
}

// HandleStats reports the running gift counters.
func HandleStats(c *fiber.Ctx) error {
	stats, err := counter.GetStats()
	if err != nil {
		return apiError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}
