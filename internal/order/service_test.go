package order

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

	svc := NewService(mock, nil, log.New(io.Discard, "", 0))
	return svc, mock
}

func expectAddress(mock pgxmock.PgxPoolIface, addressID, ownerID string) {
	mock.ExpectQuery(`FROM addresses WHERE id`).
		WithArgs(addressID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id"}).AddRow(addressID, ownerID))
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)
	now := time.Now()

	mock.ExpectBegin()
	expectAddress(mock, "addr-1", "user-1")
	mock.ExpectQuery(`JOIN cart_items`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "name", "quantity", "price", "stock"}).
			AddRow("cart-1", "p1", "Laptop", 2, 50.0, 5).
			AddRow("cart-1", "p2", "Mouse", 1, 150.0, 3))
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(pgxmock.AnyArg(), "user-1", "addr-1", StatusPending, PaymentStatusPending, 250.0).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "p1", 2, 50.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "p2", 1, 150.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`SET stock = stock -`).
		WithArgs("p1", 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`SET stock = stock -`).
		WithArgs("p2", 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM cart_items`).
		WithArgs("cart-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	o, err := svc.Create(ctx, "user-1", "addr-1")
	require.NoError(t, err)
	require.Equal(t, StatusPending, o.Status)
	require.Equal(t, PaymentStatusPending, o.PaymentStatus)
	require.Len(t, o.Items, 2)

	// totalAmount must equal the sum of snapshot prices times quantities
	var sum float64
	for _, it := range o.Items {
		sum += it.Price * float64(it.Quantity)
	}
	require.Equal(t, sum, o.TotalAmount)
	require.Equal(t, 250.0, o.TotalAmount)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_AddressNotFound(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM addresses WHERE id`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Create(ctx, "user-1", "missing")
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_ForeignAddress(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	expectAddress(mock, "addr-2", "someone-else")
	mock.ExpectRollback()

	_, err := svc.Create(ctx, "user-1", "addr-2")
	// indistinguishable from a missing address on purpose
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	expectAddress(mock, "addr-1", "user-1")
	mock.ExpectQuery(`JOIN cart_items`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "name", "quantity", "price", "stock"}))
	mock.ExpectRollback()

	_, err := svc.Create(ctx, "user-1", "addr-1")
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
	require.Contains(t, err.Error(), "cart is empty")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_InsufficientStockAtRead(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	expectAddress(mock, "addr-1", "user-1")
	mock.ExpectQuery(`JOIN cart_items`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "name", "quantity", "price", "stock"}).
			AddRow("cart-1", "p1", "Laptop", 3, 50.0, 2))
	mock.ExpectRollback()

	_, err := svc.Create(ctx, "user-1", "addr-1")
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
	require.Contains(t, err.Error(), "insufficient stock for Laptop")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_LostDecrementRace(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)
	now := time.Now()

	// The read sees enough stock, but a concurrent order drains it
	// before our conditional decrement: zero rows affected, whole
	// transaction rolls back.
	mock.ExpectBegin()
	expectAddress(mock, "addr-1", "user-1")
	mock.ExpectQuery(`JOIN cart_items`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "product_id", "name", "quantity", "price", "stock"}).
			AddRow("cart-1", "p1", "Laptop", 1, 50.0, 1))
	mock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(pgxmock.AnyArg(), "user-1", "addr-1", StatusPending, PaymentStatusPending, 50.0).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "p1", 1, 50.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`SET stock = stock -`).
		WithArgs("p1", 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := svc.Create(ctx, "user-1", "addr-1")
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
	require.Contains(t, err.Error(), "insufficient stock for Laptop")
	require.NoError(t, mock.ExpectationsWereMet())
}

func expectGetOrder(mock pgxmock.PgxPoolIface, orderID, userID string, status Status, items ...Item) {
	now := time.Now()
	mock.ExpectQuery(`FROM orders WHERE id`).
		WithArgs(orderID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "address_id", "status", "payment_status", "total_amount", "created_at", "updated_at",
		}).AddRow(orderID, userID, "addr-1", status, PaymentStatusPending, 100.0, now, now))

	rows := pgxmock.NewRows([]string{"product_id", "quantity", "price"})
	for _, it := range items {
		rows.AddRow(it.ProductID, it.Quantity, it.Price)
	}
	mock.ExpectQuery(`FROM order_items WHERE order_id`).
		WithArgs(orderID).
		WillReturnRows(rows)
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	svc, mock := newTestService(t)

	_, err := svc.UpdateStatus(context.Background(), "order-1", "TELEPORTED")
	require.True(t, apperr.IsKind(err, apperr.KindValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_Forward(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	expectGetOrder(mock, "order-1", "user-1", StatusProcessing)
	mock.ExpectExec(`UPDATE orders SET status`).
		WithArgs("order-1", StatusShipped).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	expectGetOrder(mock, "order-1", "user-1", StatusShipped)

	o, err := svc.UpdateStatus(ctx, "order-1", "SHIPPED")
	require.NoError(t, err)
	require.Equal(t, StatusShipped, o.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_CancelRestoresStock(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	items := []Item{
		{ProductID: "p1", Quantity: 2, Price: 25.0},
		{ProductID: "p2", Quantity: 1, Price: 50.0},
	}

	expectGetOrder(mock, "order-1", "user-1", StatusProcessing, items...)

	// restoration and status change share one transaction
	mock.ExpectBegin()
	mock.ExpectExec(`SET stock = stock \+`).
		WithArgs("p1", 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`SET stock = stock \+`).
		WithArgs("p2", 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE orders SET status = 'CANCELLED'`).
		WithArgs("order-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	expectGetOrder(mock, "order-1", "user-1", StatusCancelled, items...)

	o, err := svc.UpdateStatus(ctx, "order-1", "CANCELLED")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, o.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_LostCancelRaceDoesNotRestore(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	items := []Item{{ProductID: "p1", Quantity: 2, Price: 25.0}}

	// The read sees PROCESSING, but another cancellation commits before
	// our conditional flip: zero rows, the whole transaction rolls back
	// and the increments with it.
	expectGetOrder(mock, "order-1", "user-1", StatusProcessing, items...)
	mock.ExpectBegin()
	mock.ExpectExec(`SET stock = stock \+`).
		WithArgs("p1", 2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE orders SET status = 'CANCELLED'`).
		WithArgs("order-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := svc.UpdateStatus(ctx, "order-1", "CANCELLED")
	require.True(t, apperr.IsKind(err, apperr.KindConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_CancelTwiceDoesNotRestoreAgain(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	items := []Item{{ProductID: "p1", Quantity: 2, Price: 25.0}}

	expectGetOrder(mock, "order-1", "user-1", StatusCancelled, items...)
	// already cancelled: plain status write, no increments, no tx
	mock.ExpectExec(`UPDATE orders SET status`).
		WithArgs("order-1", StatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	expectGetOrder(mock, "order-1", "user-1", StatusCancelled, items...)

	_, err := svc.UpdateStatus(ctx, "order-1", "CANCELLED")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_Forbidden(t *testing.T) {
	ctx := context.Background()
	svc, mock := newTestService(t)

	expectGetOrder(mock, "order-1", "owner", StatusPending)

	_, err := svc.Get(ctx, "order-1", "intruder")
	require.True(t, apperr.IsKind(err, apperr.KindForbidden))
	require.NoError(t, mock.ExpectationsWereMet())
}
