package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newOpenNodeTestClient(handler http.Handler) (*OpenNodeClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := &OpenNodeClient{
		APIKey:     "test-key",
		BaseURLV1:  srv.URL + "/v1",
		BaseURLV2:  srv.URL + "/v2",
		HTTPClient: srv.Client(),
	}
	return client, srv
}

func TestOpenNodeCreateInvoice(t *testing.T) {
	var gotPayload map[string]any
	client, srv := newOpenNodeTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/charges", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"id":     "chg_1",
				"status": "unpaid",
				"lightning_invoice": map[string]any{
					"payreq": "lnbc50u1p0example",
				},
			},
		})
	}))
	defer srv.Close()

	inv, err := client.CreateInvoice(context.Background(), 5000, InvoiceMetadata{
		OrderID:     "gift-1",
		Description: "Lightning gift for 5000 sats",
	})
	assert.NoError(t, err)
	assert.Equal(t, "chg_1", inv.ChargeID)
	assert.Equal(t, "lnbc50u1p0example", inv.PaymentRequest)
	assert.Equal(t, "unpaid", inv.Status)
	assert.Equal(t, "gift-1", gotPayload["order_id"])
	assert.Equal(t, float64(5000), gotPayload["amount"])
}

func TestOpenNodeInitiateWithdrawalUsesV2(t *testing.T) {
	client, srv := newOpenNodeTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/withdrawals", r.URL.Path)
		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ln", payload["type"])
		assert.Equal(t, "lnbc50u1p0example", payload["address"])

		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": "wd_1", "status": "pending"},
		})
	}))
	defer srv.Close()

	wd, err := client.InitiateWithdrawal(context.Background(), 5000, "lnbc50u1p0example")
	assert.NoError(t, err)
	assert.Equal(t, "wd_1", wd.WithdrawalID)
}

func TestOpenNodeErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{name: "client error is rejection", statusCode: http.StatusBadRequest, wantErr: ErrProviderRejected},
		{name: "payment required is rejection", statusCode: http.StatusPaymentRequired, wantErr: ErrProviderRejected},
		{name: "server error is unavailable", statusCode: http.StatusBadGateway, wantErr: ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, srv := newOpenNodeTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			_, err := client.InitiateWithdrawal(context.Background(), 5000, "lnbc50u1p0example")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOpenNodeStatusNormalization(t *testing.T) {
	client, srv := newOpenNodeTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": "chg_1", "status": "paid", "amount": 5000},
		})
	}))
	defer srv.Close()

	status, err := client.GetInvoiceStatus(context.Background(), "chg_1")
	assert.NoError(t, err)
	assert.Equal(t, "paid", status.Status)
	assert.Equal(t, int64(5000), status.AmountSats)
}

func TestOpenNodeVerifyHashedOrder(t *testing.T) {
	client := &OpenNodeClient{APIKey: "test-key"}

	mac := hmac.New(sha256.New, []byte("test-key"))
	mac.Write([]byte("gift-1"))
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifyHashedOrder("gift-1", valid))
	assert.False(t, client.VerifyHashedOrder("gift-2", valid))
	assert.False(t, client.VerifyHashedOrder("gift-1", "deadbeef"))
	assert.False(t, client.VerifyHashedOrder("gift-1", ""))
}
