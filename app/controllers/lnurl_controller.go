package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/lngifts/LightningGifts/app/models"
	"github.com/lngifts/LightningGifts/internal/pkg/gifts"
	"github.com/lngifts/LightningGifts/internal/pkg/lnurl"
)

// HandleLNURLWithdraw serves both steps of the LNURL-withdraw flow on the
// same callback URL. Without a pr parameter it describes the withdrawable
// amount; with one it pays the wallet's invoice. Errors always use the LNURL
// envelope, wallets do not understand the JSON API's one.
func HandleLNURLWithdraw(c *fiber.Ctx) error {
	giftID := c.Params("id")

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if pr := c.Query("pr"); pr != "" {
		// k1 must echo the id the first step handed out.
		if k1 := c.Query("k1"); k1 != "" && k1 != giftID {
			return lnurlError(c, gifts.ErrGiftNotFound.Error())
		}
		if _, err := GiftService().RequestRedemption(ctx, giftID, pr, c.Query("verifyCode")); err != nil {
			return lnurlError(c, err.Error())
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "OK"})
	}

	details, err := GiftService().GetGift(ctx, giftID, c.Query("verifyCode"))
	if err != nil {
		return lnurlError(c, err.Error())
	}
	gift := details.Gift
	switch {
	case gift.ChargeInfo.ChargeStatus != models.ChargeStatusPaid:
		return lnurlError(c, gifts.ErrInvoiceUnpaid.Error())
	case gift.Spent == models.SpentPending:
		return lnurlError(c, gifts.ErrRedeemPending.Error())
	case gift.Spent == models.SpentYes:
		return lnurlError(c, gifts.ErrGiftAlreadySpent.Error())
	case details.Restricted:
		return lnurlError(c, gifts.ErrBadVerifyCode.Error())
	}

	return c.Status(fiber.StatusOK).JSON(GiftService().WithdrawResponse(gift))
}

func lnurlError(c *fiber.Ctx, reason string) error {
	// Always 200: LNURL wallets read the envelope, not the HTTP status.
	return c.Status(fiber.StatusOK).JSON(lnurl.NewError(reason))
}
