package cart

// Snapshot is the authoritative server-held cart for a user, joined
// with current product data. Order creation reads it inside its own
// transaction and never accepts cart contents from the caller.
type Snapshot struct {
	CartID string
	UserID string
	Items  []SnapshotItem
}

type SnapshotItem struct {
	ProductID   string
	ProductName string
	Quantity    int
	// Price and Stock are the product's current values at read time.
	Price float64
	Stock int
}
