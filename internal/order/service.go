package order

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"

	"github.com/xact-softwaresolution/e-cart/internal/address"
	"github.com/xact-softwaresolution/e-cart/internal/apperr"
	"github.com/xact-softwaresolution/e-cart/internal/cart"
	"github.com/xact-softwaresolution/e-cart/internal/catalog"
	"github.com/xact-softwaresolution/e-cart/internal/db"
)

// EventPublisher is the slice of the events publisher the order service
// uses. A nil publisher disables event emission.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
	PublishOrderStatusChanged(ctx context.Context, o *Order, previous Status) error
}

// Service is the order transaction coordinator plus the status state
// machine. Every stock-touching path runs inside one pgx transaction
// with the stock guard re-checked at write time; correctness does not
// depend on in-process locks, so multiple instances can run
// concurrently.
type Service struct {
	pool      db.Pool
	orders    *Repository
	carts     *cart.Repository
	addresses *address.Repository
	products  *catalog.Repository
	events    EventPublisher
	logger    *log.Logger
}

func NewService(pool db.Pool, events EventPublisher, logger *log.Logger) *Service {
	return &Service{
		pool:      pool,
		orders:    NewRepository(),
		carts:     cart.NewRepository(),
		addresses: address.NewRepository(),
		products:  catalog.NewRepository(),
		events:    events,
		logger:    logger,
	}
}

// Create converts the user's authoritative cart into an order. The
// caller supplies only userID and addressID; items, quantities and
// prices come from storage, so a client cannot tamper with any of them.
// The whole conversion is one transaction: address check, cart load,
// order + item snapshots, conditional stock decrements, cart clear.
func (s *Service) Create(ctx context.Context, userID, addressID string) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := s.createTx(ctx, tx, userID, addressID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishOrderCreated(ctx, o); err != nil {
			s.logger.Printf("publish order.created for %s: %v", o.ID, err)
		}
	}
	return o, nil
}

func (s *Service) createTx(ctx context.Context, tx pgx.Tx, userID, addressID string) (*Order, error) {
	addr, err := s.addresses.Get(ctx, tx, addressID)
	if err != nil {
		if errors.Is(err, address.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "address not found")
		}
		return nil, err
	}
	// Same response for a foreign address as for a missing one, so the
	// endpoint does not leak which address ids exist.
	if addr.UserID != userID {
		return nil, apperr.New(apperr.KindNotFound, "address not found")
	}

	snap, err := s.carts.GetSnapshot(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if len(snap.Items) == 0 {
		return nil, apperr.New(apperr.KindConflict, "cart is empty")
	}

	o := &Order{
		UserID:        userID,
		AddressID:     addressID,
		Status:        StatusPending,
		PaymentStatus: PaymentStatusPending,
	}
	for _, it := range snap.Items {
		// Early read-time check for a precise product name in the error;
		// the decrement below re-checks the predicate at write time.
		if it.Stock < it.Quantity {
			return nil, apperr.Newf(apperr.KindConflict, "insufficient stock for %s", it.ProductName)
		}
		o.Items = append(o.Items, Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
		o.TotalAmount += it.Price * float64(it.Quantity)
	}

	if err := s.orders.Insert(ctx, tx, o); err != nil {
		return nil, err
	}

	for _, it := range snap.Items {
		ok, err := s.products.DecrementStock(ctx, tx, it.ProductID, it.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			// A concurrent order won the race since our read. Abort the
			// whole transaction: no partial order, no partial decrement.
			return nil, apperr.Newf(apperr.KindConflict, "insufficient stock for %s", it.ProductName)
		}
	}

	if err := s.carts.Clear(ctx, tx, snap.CartID); err != nil {
		return nil, err
	}

	return o, nil
}

// Get returns the order with its items, rejecting callers that do not
// own it.
func (s *Service) Get(ctx context.Context, orderID, userID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, s.pool, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.New(apperr.KindForbidden, "order belongs to another user")
	}
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, s.pool, userID)
}

// UpdateStatus applies a status transition. Entering CANCELLED from a
// non-cancelled state restores stock for every item in the same
// transaction as the status write; neither happens without the other.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, requested string) (*Order, error) {
	status, err := ParseStatus(requested)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.GetByID(ctx, s.pool, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, err
	}
	previous := o.Status

	if status == StatusCancelled && previous != StatusCancelled {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := s.CancelTx(ctx, tx, o); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
	} else {
		if err := s.orders.UpdateStatus(ctx, s.pool, orderID, status); err != nil {
			return nil, err
		}
	}

	o, err = s.orders.GetByID(ctx, s.pool, orderID)
	if err != nil {
		return nil, err
	}

	if s.events != nil && o.Status != previous {
		if err := s.events.PublishOrderStatusChanged(ctx, o, previous); err != nil {
			s.logger.Printf("publish order.status_changed for %s: %v", o.ID, err)
		}
	}
	return o, nil
}

// CancelTx restores stock for every order item and marks the order
// CANCELLED on the supplied transaction. The refund path runs it inside
// its own transaction so payment and order state move together. The
// status read on o may be stale; the conditional flip below is the real
// guard, so a cancellation that lost the race rolls back its increments
// instead of restoring stock a second time.
func (s *Service) CancelTx(ctx context.Context, tx pgx.Tx, o *Order) error {
	if o.Status == StatusCancelled {
		return nil
	}
	for _, it := range o.Items {
		if err := s.products.IncrementStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	ok, err := s.orders.MarkCancelled(ctx, tx, o.ID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.KindConflict, "order has already been cancelled")
	}
	return nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.orders.Stats(ctx, s.pool)
}
