package order

import "time"

type Item struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	// Price is the per-unit snapshot taken at order creation; it never
	// changes when the catalog price does.
	Price float64 `json:"price"`
}

type Order struct {
	ID            string    `json:"orderId"`
	UserID        string    `json:"userId"`
	AddressID     string    `json:"addressId"`
	Status        Status    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	TotalAmount   float64   `json:"totalAmount"`
	Items         []Item    `json:"items"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Payment status values mirrored on the order row. The payment package
// drives these; they must stay consistent with payments.status.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusRefunded  = "REFUNDED"
)

type Stats struct {
	TotalOrders     int            `json:"totalOrders"`
	TotalRevenue    float64        `json:"totalRevenue"`
	AvgOrderValue   float64        `json:"avgOrderValue"`
	CompletedOrders int            `json:"completedOrders"`
	CancelledOrders int            `json:"cancelledOrders"`
	StatusBreakdown map[Status]int `json:"statusBreakdown"`
}
