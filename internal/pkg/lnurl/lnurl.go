package lnurl

import (
	"fmt"
	"strings"

	golnurl "github.com/fiatjaf/go-lnurl"
)

// WithdrawResponse is the first-step reply of the LNURL-withdraw protocol.
// Amounts are in millisatoshis and both bounds carry the full gift balance,
// so wallets can only pull the exact amount.
type WithdrawResponse struct {
	Status             string `json:"status"`
	Callback           string `json:"callback"`
	K1                 string `json:"k1"`
	MaxWithdrawable    int64  `json:"maxWithdrawable"`
	MinWithdrawable    int64  `json:"minWithdrawable"`
	DefaultDescription string `json:"defaultDescription"`
	Tag                string `json:"tag"`
}

// ErrorResponse is the LNURL protocol error envelope. It is deliberately a
// different shape from the JSON API's {statusCode, message} payload; wallets
// only understand this one.
type ErrorResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// NewError builds an LNURL error envelope with the given reason.
func NewError(reason string) ErrorResponse {
	return ErrorResponse{Status: "ERROR", Reason: reason}
}

// WithdrawURL returns the raw callback URL a wallet hits to redeem a gift.
func WithdrawURL(baseURL, giftID string) string {
	return fmt.Sprintf("%s/lnurl/%s", strings.TrimRight(baseURL, "/"), giftID)
}

// NewWithdrawResponse builds the initial LNURL-withdraw object for a gift.
// The gift id doubles as the k1 secret, matching the redeem callback route.
func NewWithdrawResponse(baseURL, giftID string, amountSats int64) WithdrawResponse {
	msats := amountSats * 1000
	return WithdrawResponse{
		Status:             "OK",
		Callback:           WithdrawURL(baseURL, giftID),
		K1:                 giftID,
		MaxWithdrawable:    msats,
		MinWithdrawable:    msats,
		DefaultDescription: fmt.Sprintf("Lightning gift of %d sats", amountSats),
		Tag:                "withdrawRequest",
	}
}

// Encode bech32-encodes the withdraw URL of a gift as an LNURL string.
// Service URLs are far longer than the 90 character bech32 ceiling; the
// underlying encoder does not enforce it on encode.
func Encode(baseURL, giftID string) (string, error) {
	encoded, err := golnurl.LNURLEncode(WithdrawURL(baseURL, giftID))
	if err != nil {
		return "", fmt.Errorf("encode lnurl: %w", err)
	}
	return encoded, nil
}
