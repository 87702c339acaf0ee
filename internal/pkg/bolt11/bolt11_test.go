package bolt11

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountSats(t *testing.T) {
	tests := []struct {
		name    string
		invoice string
		want    int64
	}{
		{name: "micro multiplier appends two zeros", invoice: "lnbc25u1p0example", want: 2500},
		{name: "micro multiplier single digit", invoice: "lnbc1u1p0example", want: 100},
		{name: "milli multiplier appends five zeros", invoice: "lnbc5m1p0example", want: 500000},
		{name: "nano multiplier drops last digit", invoice: "lnbc2500n1p0example", want: 250},
		{name: "nano multiplier large run", invoice: "lnbc50000n1p0example", want: 5000},
		{name: "testnet prefix", invoice: "lntb50u1p0example", want: 5000},
		{name: "regtest prefix", invoice: "lnbcrt50u1p0example", want: 5000},
		{name: "uppercase input is normalized", invoice: "LNBC25U1P0EXAMPLE", want: 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AmountSats(tt.invoice)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmountSatsIsDeterministic(t *testing.T) {
	first, err := AmountSats("lnbc50u1p0example")
	assert.NoError(t, err)
	second, err := AmountSats("lnbc50u1p0example")
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAmountSatsRejectsUnknownPrefix(t *testing.T) {
	for _, invoice := range []string{"", "bc1qxyz", "lightning:lnbc1u1p0", "lnxx50u1p0"} {
		_, err := AmountSats(invoice)
		assert.ErrorIs(t, err, ErrInvalidInvoiceFormat, "invoice %q", invoice)
	}
}

func TestAmountSatsRejectsBadMultiplier(t *testing.T) {
	tests := []string{
		"lnbc50p1p0example", // pico cannot express whole sats
		"lnbc50x1p0example",
		"lnbc1p0example", // no amount section at all
		"lnbcp0example",  // no digits
	}
	for _, invoice := range tests {
		_, err := AmountSats(invoice)
		assert.ErrorIs(t, err, ErrInvalidAmountEncoding, "invoice %q", invoice)
	}
}
