package payment

import "context"

// Gateway abstracts the remote payment provider. Amounts cross the wire
// in minor units (paise for INR), matching Razorpay's API.
type Gateway interface {
	// CreateOrder opens a remote payment order the client can pay
	// against.
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (GatewayOrder, error)
	// FetchPayment reads the gateway-side payment state. Verification
	// requires a captured payment; a client-asserted success is never
	// enough.
	FetchPayment(ctx context.Context, gatewayPaymentID string) (GatewayPayment, error)
	// Refund returns money against a captured payment.
	Refund(ctx context.Context, gatewayPaymentID string, req GatewayRefundRequest) (GatewayRefund, error)
	// KeyID is the public key identifier handed to clients. The secret
	// never leaves the server.
	KeyID() string
	// VerifySignature checks a callback signature against the secret.
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

type GatewayOrderRequest struct {
	AmountMinor int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Receipt     string            `json:"receipt"`
	Notes       map[string]string `json:"notes,omitempty"`
}

type GatewayOrder struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

type GatewayPayment struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	AmountMinor int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// GatewayPaymentCaptured is the gateway-side state verification
// requires before any local mutation.
const GatewayPaymentCaptured = "captured"

type GatewayRefundRequest struct {
	AmountMinor int64             `json:"amount"`
	Notes       map[string]string `json:"notes,omitempty"`
}

type GatewayRefund struct {
	ID          string `json:"id"`
	AmountMinor int64  `json:"amount"`
	Status      string `json:"status"`
}

// MinorUnits converts a decimal amount to the gateway's integer minor
// units, rounding to the nearest unit.
func MinorUnits(amount float64) int64 {
	if amount < 0 {
		return -MinorUnits(-amount)
	}
	return int64(amount*100 + 0.5)
}
