package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/lngifts/LightningGifts/internal/pkg/bolt11"
	"github.com/lngifts/LightningGifts/internal/pkg/database"
	"github.com/lngifts/LightningGifts/internal/pkg/gifts"
	"github.com/lngifts/LightningGifts/internal/pkg/payment"
)

var giftService *gifts.Service

// GiftService returns the shared gift service, built lazily from the global
// DB handle.
func GiftService() *gifts.Service {
	if giftService == nil {
		giftService = gifts.NewServiceFromDB(database.GetDB())
	}
	return giftService
}

// SetGiftService replaces the shared service, used by tests.
func SetGiftService(svc *gifts.Service) {
	giftService = svc
}

// apiError writes the JSON error envelope every endpoint shares. The message
// is a stable machine-readable code, never free text.
func apiError(c *fiber.Ctx, err error) error {
	status, message := classifyError(err)
	return c.Status(status).JSON(fiber.Map{
		"statusCode": status,
		"message":    message,
	})
}

func classifyError(err error) (int, string) {
	for _, sentinel := range []error{
		gifts.ErrAmountNotWhole,
		gifts.ErrAmountTooLow,
		gifts.ErrAmountTooHigh,
		gifts.ErrSenderNameTooLong,
		gifts.ErrSenderMessageTooLong,
		gifts.ErrVerifyCodeInvalid,
		gifts.ErrNotifyURLInvalid,
		gifts.ErrBadInvoiceAmount,
		gifts.ErrRedeemPending,
		gifts.ErrGiftAlreadySpent,
		gifts.ErrInvoiceUnpaid,
		gifts.ErrBadVerifyCode,
		bolt11.ErrInvalidInvoiceFormat,
		bolt11.ErrInvalidAmountEncoding,
	} {
		if errors.Is(err, sentinel) {
			return fiber.StatusBadRequest, sentinel.Error()
		}
	}

	switch {
	case errors.Is(err, gifts.ErrGiftNotFound):
		return fiber.StatusNotFound, gifts.ErrGiftNotFound.Error()
	case errors.Is(err, payment.ErrProviderRejected):
		return fiber.StatusBadGateway, payment.ErrProviderRejected.Error()
	case errors.Is(err, payment.ErrProviderUnavailable):
		return fiber.StatusServiceUnavailable, payment.ErrProviderUnavailable.Error()
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
