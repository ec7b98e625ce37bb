package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xact-softwaresolution/e-cart/internal/db"
)

var ErrNotFound = errors.New("payment not found")

type Repository struct{}

func NewRepository() *Repository { return &Repository{} }

const selectColumns = `id, order_id, amount, currency, provider, status, transaction_id, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Currency, &p.Provider, &p.Status, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}

func (Repository) GetByID(ctx context.Context, q db.Querier, paymentID string) (*Payment, error) {
	row := q.QueryRow(ctx, `SELECT `+selectColumns+` FROM payments WHERE id = $1`, paymentID)
	return scanPayment(row)
}

func (Repository) GetByOrderID(ctx context.Context, q db.Querier, orderID string) (*Payment, error) {
	row := q.QueryRow(ctx, `SELECT `+selectColumns+` FROM payments WHERE order_id = $1`, orderID)
	return scanPayment(row)
}

// Upsert creates or refreshes the single payment row for an order.
// Initiate may run several times while the payment is still pending;
// the unique key on order_id keeps it one row.
func (Repository) Upsert(ctx context.Context, q db.Querier, p *Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := q.QueryRow(ctx, `
		INSERT INTO payments (id, order_id, amount, currency, provider, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (order_id) DO UPDATE
		SET amount = EXCLUDED.amount,
		    currency = EXCLUDED.currency,
		    status = EXCLUDED.status,
		    transaction_id = EXCLUDED.transaction_id,
		    updated_at = now()
		RETURNING id, created_at, updated_at`,
		p.ID, p.OrderID, p.Amount, p.Currency, p.Provider, p.Status, p.TransactionID)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("upsert payment: %w", err)
	}
	return nil
}

// MarkCompleted flips the payment to COMPLETED only if it is not
// already there. Zero rows affected means a concurrent or earlier
// verification won; the caller treats that as a duplicate.
func (Repository) MarkCompleted(ctx context.Context, q db.Querier, orderID, gatewayPaymentID string) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE payments SET status = 'COMPLETED', transaction_id = $2, updated_at = now()
		 WHERE order_id = $1 AND status <> 'COMPLETED'`,
		orderID, gatewayPaymentID)
	if err != nil {
		return false, fmt.Errorf("mark payment completed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkRefunded moves a COMPLETED payment to its terminal REFUNDED
// state. The status predicate keeps double refunds out.
func (Repository) MarkRefunded(ctx context.Context, q db.Querier, paymentID string) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE payments SET status = 'REFUNDED', updated_at = now()
		 WHERE id = $1 AND status = 'COMPLETED'`,
		paymentID)
	if err != nil {
		return false, fmt.Errorf("mark payment refunded: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (Repository) Stats(ctx context.Context, q db.Querier) (Stats, error) {
	var st Stats
	row := q.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'COMPLETED'),
		       COUNT(*) FILTER (WHERE status = 'REFUNDED'),
		       COALESCE(SUM(amount) FILTER (WHERE status = 'COMPLETED'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE status = 'REFUNDED'), 0)
		FROM payments`)
	if err := row.Scan(&st.TotalPayments, &st.CompletedPayments, &st.RefundedPayments, &st.TotalRevenue, &st.RefundedAmount); err != nil {
		return Stats{}, fmt.Errorf("payment stats: %w", err)
	}
	if st.TotalPayments > 0 {
		st.SuccessRate = float64(st.CompletedPayments) / float64(st.TotalPayments) * 100
	}
	return st, nil
}
