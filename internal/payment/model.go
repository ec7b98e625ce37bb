package payment

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

const ProviderRazorpay = "RAZORPAY"

// Payment is the single payment record for an order (orders and
// payments are one-to-one, enforced by a unique key on order_id). It
// moves monotonically PENDING -> COMPLETED -> REFUNDED, with
// PENDING -> FAILED when the gateway never captures.
type Payment struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"orderId"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Provider      string    `json:"provider"`
	Status        Status    `json:"status"`
	TransactionID string    `json:"transactionId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Stats struct {
	TotalPayments     int     `json:"totalPayments"`
	CompletedPayments int     `json:"completedPayments"`
	RefundedPayments  int     `json:"refundedPayments"`
	TotalRevenue      float64 `json:"totalRevenue"`
	RefundedAmount    float64 `json:"refundedAmount"`
	SuccessRate       float64 `json:"successRate"`
}
