package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xact-softwaresolution/e-cart/internal/db"
)

var ErrNotFound = errors.New("product not found")

// Repository owns the products table. Methods take an explicit querier,
// so callers decide whether an operation runs on the pool or inside a
// transaction they control.
type Repository struct{}

func NewRepository() *Repository { return &Repository{} }

func (Repository) Get(ctx context.Context, q db.Querier, productID string) (Product, error) {
	var p Product
	row := q.QueryRow(ctx,
		`SELECT id, name, price, stock, updated_at FROM products WHERE id = $1`, productID)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("select product: %w", err)
	}
	return p, nil
}

// DecrementStock applies a conditional decrement. The stock >= qty
// predicate is re-evaluated at write time, which closes the
// check-then-act window between concurrent orders on the same product.
// Returns false when the guard did not hold (insufficient stock or
// unknown product); the row is untouched in that case.
func (Repository) DecrementStock(ctx context.Context, q db.Querier, productID string, qty int) (bool, error) {
	tag, err := q.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1 AND stock >= $2`,
		productID, qty)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// IncrementStock restores stock, used by order cancellation.
func (Repository) IncrementStock(ctx context.Context, q db.Querier, productID string, qty int) error {
	tag, err := q.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`,
		productID, qty)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustStock applies a signed delta with the non-negative guard in the
// WHERE clause. Returns false when the adjustment would drive stock
// below zero; the caller distinguishes that from a missing product.
func (Repository) AdjustStock(ctx context.Context, q db.Querier, productID string, delta int) (Product, bool, error) {
	var p Product
	row := q.QueryRow(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now()
		 WHERE id = $1 AND stock + $2 >= 0
		 RETURNING id, name, price, stock, updated_at`,
		productID, delta)
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, false, nil
		}
		return Product{}, false, fmt.Errorf("adjust stock: %w", err)
	}
	return p, true, nil
}

func (Repository) Report(ctx context.Context, q db.Querier, lowStockThreshold int) (Report, error) {
	var rep Report
	row := q.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(stock), 0),
		       COUNT(*) FILTER (WHERE stock <= $1),
		       COUNT(*) FILTER (WHERE stock = 0)
		FROM products`, lowStockThreshold)
	if err := row.Scan(&rep.TotalProducts, &rep.TotalStock, &rep.LowStockCount, &rep.OutOfStock); err != nil {
		return Report{}, fmt.Errorf("inventory report: %w", err)
	}
	if rep.TotalProducts > 0 {
		rep.AvgStock = rep.TotalStock / rep.TotalProducts
	}
	return rep, nil
}

func (Repository) ListLowStock(ctx context.Context, q db.Querier, threshold int) ([]Product, error) {
	rows, err := q.Query(ctx,
		`SELECT id, name, price, stock, updated_at FROM products WHERE stock <= $1 ORDER BY stock ASC`,
		threshold)
	if err != nil {
		return nil, fmt.Errorf("select low stock: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
