package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xact-softwaresolution/e-cart/internal/db"
)

var ErrNotFound = errors.New("order not found")

type Repository struct{}

func NewRepository() *Repository { return &Repository{} }

// Insert writes the order header and its item snapshots. Callers run it
// inside the creation transaction; the rows are immutable afterwards
// except for status and payment_status.
func (Repository) Insert(ctx context.Context, q db.Querier, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	row := q.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, address_id, status, payment_status, total_amount)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.AddressID, o.Status, o.PaymentStatus, o.TotalAmount)
	if err := row.Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err := q.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, quantity, price)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.NewString(), o.ID, it.ProductID, it.Quantity, it.Price)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}
	return nil
}

func (r Repository) GetByID(ctx context.Context, q db.Querier, orderID string) (*Order, error) {
	var o Order
	row := q.QueryRow(ctx,
		`SELECT id, user_id, address_id, status, payment_status, total_amount, created_at, updated_at
		 FROM orders WHERE id = $1`, orderID)
	if err := row.Scan(&o.ID, &o.UserID, &o.AddressID, &o.Status, &o.PaymentStatus, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.Items(ctx, q, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (Repository) Items(ctx context.Context, q db.Querier, orderID string) ([]Item, error) {
	rows, err := q.Query(ctx,
		`SELECT product_id, quantity, price FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}

func (r Repository) ListByUser(ctx context.Context, q db.Querier, userID string) ([]Order, error) {
	rows, err := q.Query(ctx,
		`SELECT id, user_id, address_id, status, payment_status, total_amount, created_at, updated_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.AddressID, &o.Status, &o.PaymentStatus, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		items, err := r.Items(ctx, q, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (Repository) UpdateStatus(ctx context.Context, q db.Querier, orderID string, status Status) error {
	tag, err := q.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCancelled flips the order to CANCELLED only if it is not already
// there, re-checking the predicate at write time like the stock
// decrement does. Zero rows affected means a concurrent cancellation
// won; the caller must roll back its stock restoration.
func (Repository) MarkCancelled(ctx context.Context, q db.Querier, orderID string) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE orders SET status = 'CANCELLED', updated_at = now()
		 WHERE id = $1 AND status <> 'CANCELLED'`, orderID)
	if err != nil {
		return false, fmt.Errorf("mark order cancelled: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (Repository) UpdatePaymentStatus(ctx context.Context, q db.Querier, orderID, paymentStatus string) error {
	tag, err := q.Exec(ctx,
		`UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`, orderID, paymentStatus)
	if err != nil {
		return fmt.Errorf("update order payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid flips payment_status to COMPLETED and auto-advances a
// PENDING order to PROCESSING, leaving any later status untouched.
func (Repository) MarkPaid(ctx context.Context, q db.Querier, orderID string) error {
	tag, err := q.Exec(ctx,
		`UPDATE orders
		 SET payment_status = 'COMPLETED',
		     status = CASE WHEN status = 'PENDING' THEN 'PROCESSING' ELSE status END,
		     updated_at = now()
		 WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (Repository) Stats(ctx context.Context, q db.Querier) (Stats, error) {
	st := Stats{StatusBreakdown: map[Status]int{}}

	row := q.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders`)
	if err := row.Scan(&st.TotalOrders, &st.TotalRevenue); err != nil {
		return Stats{}, fmt.Errorf("order totals: %w", err)
	}

	rows, err := q.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("order status breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return Stats{}, fmt.Errorf("scan breakdown: %w", err)
		}
		st.StatusBreakdown[s] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("rows: %w", err)
	}

	st.CompletedOrders = st.StatusBreakdown[StatusDelivered]
	st.CancelledOrders = st.StatusBreakdown[StatusCancelled]
	if st.TotalOrders > 0 {
		st.AvgOrderValue = st.TotalRevenue / float64(st.TotalOrders)
	}
	return st, nil
}
