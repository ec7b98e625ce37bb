package order

import (
	"github.com/xact-softwaresolution/e-cart/internal/apperr"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// ParseStatus validates a requested status against the five known
// values. Any non-cancelled order may move to CANCELLED; the forward
// path carries no extra guard, which also means DELIVERED orders can
// still be cancelled (kept as-is pending a product decision).
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", apperr.Newf(apperr.KindValidation, "invalid order status %q", s)
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}
