package catalog

import "time"

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Report is a read-only aggregate over product stock. Not
// invariant-critical, used by the inventory dashboard.
type Report struct {
	TotalProducts int `json:"totalProducts"`
	TotalStock    int `json:"totalStock"`
	AvgStock      int `json:"avgStock"`
	LowStockCount int `json:"lowStockCount"`
	OutOfStock    int `json:"outOfStock"`
}
