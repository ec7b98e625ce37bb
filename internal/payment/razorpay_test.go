package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRazorpayClient_CreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "rzp_test_key", user)
		require.Equal(t, "rzp_secret", pass)

		var req GatewayOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, int64(200000), req.AmountMinor)
		require.Equal(t, "INR", req.Currency)

		json.NewEncoder(w).Encode(GatewayOrder{
			ID: "order_rzp1", AmountMinor: req.AmountMinor, Currency: req.Currency, Status: "created",
		})
	}))
	defer srv.Close()

	c, err := NewRazorpayClient(srv.URL, "rzp_test_key", "rzp_secret", srv.Client())
	require.NoError(t, err)

	out, err := c.CreateOrder(context.Background(), GatewayOrderRequest{
		AmountMinor: 200000, Currency: "INR", Receipt: "order-1",
	})
	require.NoError(t, err)
	require.Equal(t, "order_rzp1", out.ID)
	require.Equal(t, "created", out.Status)
}

func TestRazorpayClient_FetchPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/payments/pay_rzp1", r.URL.Path)

		json.NewEncoder(w).Encode(GatewayPayment{ID: "pay_rzp1", Status: GatewayPaymentCaptured})
	}))
	defer srv.Close()

	c, err := NewRazorpayClient(srv.URL, "k", "s", srv.Client())
	require.NoError(t, err)

	out, err := c.FetchPayment(context.Background(), "pay_rzp1")
	require.NoError(t, err)
	require.Equal(t, GatewayPaymentCaptured, out.Status)
}

func TestRazorpayClient_Refund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payments/pay_rzp1/refund", r.URL.Path)

		var req GatewayRefundRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, int64(80000), req.AmountMinor)

		json.NewEncoder(w).Encode(GatewayRefund{ID: "rfnd_1", AmountMinor: req.AmountMinor, Status: "processed"})
	}))
	defer srv.Close()

	c, err := NewRazorpayClient(srv.URL, "k", "s", srv.Client())
	require.NoError(t, err)

	out, err := c.Refund(context.Background(), "pay_rzp1", GatewayRefundRequest{AmountMinor: 80000})
	require.NoError(t, err)
	require.Equal(t, "rfnd_1", out.ID)
}

func TestRazorpayClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"description":"upstream unavailable"}}`))
	}))
	defer srv.Close()

	c, err := NewRazorpayClient(srv.URL, "k", "s", srv.Client())
	require.NoError(t, err)

	_, err = c.FetchPayment(context.Background(), "pay_rzp1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 502")
	require.Contains(t, err.Error(), "upstream unavailable")
}
