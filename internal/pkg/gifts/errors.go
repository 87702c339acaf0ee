package gifts

import "errors"

// Validation errors, detected before any side effect.
var (
	ErrAmountNotWhole       = errors.New("AMOUNT_NOT_WHOLE")
	ErrAmountTooLow         = errors.New("AMOUNT_TOO_LOW")
	ErrAmountTooHigh        = errors.New("AMOUNT_TOO_HIGH")
	ErrSenderNameTooLong    = errors.New("SENDER_NAME_TOO_LONG")
	ErrSenderMessageTooLong = errors.New("SENDER_MESSAGE_TOO_LONG")
	ErrVerifyCodeInvalid    = errors.New("VERIFY_CODE_INVALID")
	ErrNotifyURLInvalid     = errors.New("NOTIFY_URL_INVALID")
)

// Lookup and state-conflict errors.
var (
	ErrGiftNotFound     = errors.New("GIFT_NOT_FOUND")
	ErrBadInvoiceAmount = errors.New("BAD_INVOICE_AMOUNT")
	ErrRedeemPending    = errors.New("REDEEM_PENDING")
	ErrGiftAlreadySpent = errors.New("GIFT_SPENT")
	ErrInvoiceUnpaid    = errors.New("INVOICE_UNPAID")
	ErrBadVerifyCode    = errors.New("BAD_VERIFY_CODE")
)
