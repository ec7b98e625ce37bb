package inventory

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/xact-softwaresolution/e-cart/internal/apperr"
)

func newTestService(t *testing.T) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewService(mock, nil, log.New(io.Discard, "", 0)), mock
}

func productRows(id, name string, price float64, stock int) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "price", "stock", "updated_at"}).
		AddRow(id, name, price, stock, time.Now())
}

func TestParseReason(t *testing.T) {
	for _, s := range []string{"RESTOCK", "DAMAGE", "LOST", "ADJUSTMENT"} {
		r, err := ParseReason(s)
		require.NoError(t, err)
		require.Equal(t, Reason(s), r)
	}

	// empty defaults to a plain adjustment
	r, err := ParseReason("")
	require.NoError(t, err)
	require.Equal(t, ReasonAdjustment, r)

	_, err = ParseReason("restock")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAdjust(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SET stock = stock \+`).
		WithArgs("p1", 25).
		WillReturnRows(productRows("p1", "Laptop", 999.0, 30))

	p, err := svc.Adjust(ctx, "p1", 25, ReasonRestock)
	require.NoError(t, err)
	require.Equal(t, 30, p.Stock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_NegativeDelta(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SET stock = stock \+`).
		WithArgs("p1", -3).
		WillReturnRows(productRows("p1", "Laptop", 999.0, 2))

	p, err := svc.Adjust(ctx, "p1", -3, ReasonDamage)
	require.NoError(t, err)
	require.Equal(t, 2, p.Stock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_WouldGoNegative(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	// the guarded UPDATE matches nothing, the follow-up read finds the
	// product, so this is a stock conflict rather than a missing row
	mock.ExpectQuery(`SET stock = stock \+`).
		WithArgs("p1", -10).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`FROM products WHERE id`).
		WithArgs("p1").
		WillReturnRows(productRows("p1", "Laptop", 999.0, 4))

	_, err := svc.Adjust(ctx, "p1", -10, ReasonLost)
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_ProductNotFound(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SET stock = stock \+`).
		WithArgs("missing", 5).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`FROM products WHERE id`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.Adjust(ctx, "missing", 5, ReasonRestock)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_InvalidReason(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	_, err := svc.Adjust(ctx, "p1", 5, Reason("SHRINKAGE"))
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	mock.ExpectQuery(`FROM products`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"count", "sum", "low", "out"}).
			AddRow(4, 42, 2, 1))

	rep, err := svc.Report(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 4, rep.TotalProducts)
	require.Equal(t, 42, rep.TotalStock)
	require.Equal(t, 2, rep.LowStockCount)
	require.Equal(t, 1, rep.OutOfStock)
	require.Equal(t, 10, rep.AvgStock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLowStock(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)
	now := time.Now()

	mock.ExpectQuery(`WHERE stock <=`).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "price", "stock", "updated_at"}).
			AddRow("p2", "Mouse", 29.0, 0, now).
			AddRow("p1", "Laptop", 999.0, 3, now))

	products, err := svc.LowStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "p2", products[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
