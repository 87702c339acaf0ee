package bolt11

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrInvalidInvoiceFormat is returned when the payment request does not
	// carry a known BOLT-11 network prefix.
	ErrInvalidInvoiceFormat = errors.New("NOT_A_BOLT11_INVOICE")
	// ErrInvalidAmountEncoding is returned when the amount multiplier is not
	// one of n, u or m.
	ErrInvalidAmountEncoding = errors.New("INVALID_AMOUNT_ENCODING")
)

// Longest prefix first, so lnbcrt is not swallowed by lnbc.
var networkPrefixes = []string{"lnbcrt", "lntb", "lnbc"}

// AmountSats extracts the encoded amount of a BOLT-11 payment request and
// returns it in satoshis. BOLT-11 encodes amounts as <digits><multiplier>
// scaled from bitcoin units; only the multipliers that can express whole sats
// are accepted:
//
//	n (nano)  — 10 digits = 1 sat, the trailing digit is dropped
//	u (micro) — value * 100 sats
//	m (milli) — value * 100000 sats
//
// The function is pure and performs no signature or checksum validation; the
// caller compares the result against an expected amount.
func AmountSats(paymentRequest string) (int64, error) {
	invoice := strings.ToLower(strings.TrimSpace(paymentRequest))

	rest := ""
	matched := false
	for _, prefix := range networkPrefixes {
		if strings.HasPrefix(invoice, prefix) {
			rest = invoice[len(prefix):]
			matched = true
			break
		}
	}
	if !matched {
		return 0, ErrInvalidInvoiceFormat
	}

	pos := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if pos <= 0 {
		return 0, ErrInvalidAmountEncoding
	}

	digits := rest[:pos]
	switch rest[pos] {
	case 'n':
		digits = digits[:len(digits)-1]
	case 'u':
		digits += "00"
	case 'm':
		digits += "00000"
	default:
		return 0, ErrInvalidAmountEncoding
	}
	if digits == "" {
		return 0, ErrInvalidAmountEncoding
	}

	sats, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmountEncoding
	}
	return sats, nil
}
