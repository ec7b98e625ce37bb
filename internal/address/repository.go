// Package address is the read side of the address collaborator. CRUD
// lives outside the checkout core; order creation only needs an
// ownership check.
package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xact-softwaresolution/e-cart/internal/db"
)

var ErrNotFound = errors.New("address not found")

type Address struct {
	ID     string
	UserID string
}

type Repository struct{}

func NewRepository() *Repository { return &Repository{} }

func (Repository) Get(ctx context.Context, q db.Querier, addressID string) (Address, error) {
	var a Address
	row := q.QueryRow(ctx, `SELECT id, user_id FROM addresses WHERE id = $1`, addressID)
	if err := row.Scan(&a.ID, &a.UserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Address{}, ErrNotFound
		}
		return Address{}, fmt.Errorf("select address: %w", err)
	}
	return a, nil
}
