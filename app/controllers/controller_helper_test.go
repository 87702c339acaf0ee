package controllers

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/lngifts/LightningGifts/internal/pkg/bolt11"
	"github.com/lngifts/LightningGifts/internal/pkg/gifts"
	"github.com/lngifts/LightningGifts/internal/pkg/payment"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err         error
		wantStatus  int
		wantMessage string
	}{
		{gifts.ErrAmountNotWhole, fiber.StatusBadRequest, "AMOUNT_NOT_WHOLE"},
		{gifts.ErrAmountTooLow, fiber.StatusBadRequest, "AMOUNT_TOO_LOW"},
		{gifts.ErrAmountTooHigh, fiber.StatusBadRequest, "AMOUNT_TOO_HIGH"},
		{gifts.ErrBadInvoiceAmount, fiber.StatusBadRequest, "BAD_INVOICE_AMOUNT"},
		{gifts.ErrInvoiceUnpaid, fiber.StatusBadRequest, "INVOICE_UNPAID"},
		{gifts.ErrBadVerifyCode, fiber.StatusBadRequest, "BAD_VERIFY_CODE"},
		{bolt11.ErrInvalidInvoiceFormat, fiber.StatusBadRequest, "NOT_A_BOLT11_INVOICE"},
		{gifts.ErrRedeemPending, fiber.StatusBadRequest, "REDEEM_PENDING"},
		{gifts.ErrGiftAlreadySpent, fiber.StatusBadRequest, "GIFT_SPENT"},
		{gifts.ErrGiftNotFound, fiber.StatusNotFound, "GIFT_NOT_FOUND"},
		{payment.ErrProviderRejected, fiber.StatusBadGateway, "PROVIDER_REJECTED"},
		{payment.ErrProviderUnavailable, fiber.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE"},
		{assert.AnError, fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		status, message := classifyError(tc.err)
		assert.Equal(t, tc.wantStatus, status, tc.err.Error())
		assert.Equal(t, tc.wantMessage, message, tc.err.Error())
	}
}

func TestClassifyErrorWrapped(t *testing.T) {
	t.Parallel()

	status, message := classifyError(fmt.Errorf("opennode status 503: %w", payment.ErrProviderUnavailable))
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "PROVIDER_UNAVAILABLE", message)
}
