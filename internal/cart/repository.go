package cart

import (
	"context"
	"fmt"

	"github.com/xact-softwaresolution/e-cart/internal/db"
)

type Repository struct{}

func NewRepository() *Repository { return &Repository{} }

// GetSnapshot loads the user's cart with current product price and
// stock. A user with no cart row or no items gets an empty snapshot;
// the coordinator turns that into its empty-cart rejection.
func (Repository) GetSnapshot(ctx context.Context, q db.Querier, userID string) (Snapshot, error) {
	snap := Snapshot{UserID: userID}

	rows, err := q.Query(ctx, `
		SELECT c.id, ci.product_id, p.name, ci.quantity, p.price, p.stock
		FROM carts c
		JOIN cart_items ci ON ci.cart_id = c.id
		JOIN products p ON p.id = ci.product_id
		WHERE c.user_id = $1
		ORDER BY ci.created_at`, userID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it SnapshotItem
		if err := rows.Scan(&snap.CartID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.Stock); err != nil {
			return Snapshot{}, fmt.Errorf("scan cart item: %w", err)
		}
		snap.Items = append(snap.Items, it)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("rows: %w", err)
	}

	return snap, nil
}

// Clear removes the items but keeps the cart row, matching the cart
// lifecycle: one cart per user, emptied on checkout, never deleted.
func (Repository) Clear(ctx context.Context, q db.Querier, cartID string) error {
	if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
