package payment

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"

	"github.com/xact-softwaresolution/e-cart/internal/apperr"
	"github.com/xact-softwaresolution/e-cart/internal/db"
	"github.com/xact-softwaresolution/e-cart/internal/order"
)

// OrderCanceller restores stock and marks the order CANCELLED on the
// supplied transaction. Satisfied by order.Service.
type OrderCanceller interface {
	CancelTx(ctx context.Context, tx pgx.Tx, o *order.Order) error
}

type EventPublisher interface {
	PublishPaymentCompleted(ctx context.Context, p *Payment, o *order.Order) error
	PublishPaymentRefunded(ctx context.Context, p *Payment, o *order.Order) error
}

// Service drives the payment lifecycle against the remote gateway and
// keeps payments.status and orders.payment_status moving together.
// Local state is never mutated ahead of gateway confirmation; a failed
// gateway call surfaces as a retryable upstream error with prior state
// untouched.
type Service struct {
	pool      db.Pool
	payments  *Repository
	orders    *order.Repository
	canceller OrderCanceller
	gateway   Gateway
	events    EventPublisher
	logger    *log.Logger
}

func NewService(pool db.Pool, gateway Gateway, canceller OrderCanceller, events EventPublisher, logger *log.Logger) *Service {
	return &Service{
		pool:      pool,
		payments:  NewRepository(),
		orders:    order.NewRepository(),
		canceller: canceller,
		gateway:   gateway,
		events:    events,
		logger:    logger,
	}
}

// Checkout is what the client needs to open the gateway dialog. The key
// secret stays on the server.
type Checkout struct {
	Payment      *Payment     `json:"payment"`
	GatewayOrder GatewayOrder `json:"gatewayOrder"`
	KeyID        string       `json:"keyId"`
}

type Verified struct {
	Payment *Payment     `json:"payment"`
	Order   *order.Order `json:"order"`
}

type Refunded struct {
	Payment *Payment      `json:"payment"`
	Order   *order.Order  `json:"order"`
	Refund  GatewayRefund `json:"refund"`
}

// Initiate opens a gateway order for the caller's own PENDING order and
// creates or refreshes the single payment record.
func (s *Service) Initiate(ctx context.Context, userID, orderID string, amount float64, currency string) (*Checkout, error) {
	ord, err := s.loadOwnedOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if ord.PaymentStatus != order.PaymentStatusPending {
		return nil, apperr.New(apperr.KindConflict, "order payment has already been processed")
	}

	existing, err := s.payments.GetByOrderID(ctx, s.pool, orderID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == StatusCompleted {
		return nil, apperr.New(apperr.KindConflict, "payment already completed for this order")
	}

	if currency == "" {
		currency = "INR"
	}

	gwOrder, err := s.gateway.CreateOrder(ctx, GatewayOrderRequest{
		AmountMinor: MinorUnits(amount),
		Currency:    currency,
		Receipt:     "receipt_" + orderID,
		Notes: map[string]string{
			"orderId": orderID,
			"userId":  userID,
		},
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "failed to initiate payment", err)
	}

	p := &Payment{
		OrderID:       orderID,
		Amount:        amount,
		Currency:      currency,
		Provider:      ProviderRazorpay,
		Status:        StatusPending,
		TransactionID: gwOrder.ID,
	}
	if existing != nil {
		p.ID = existing.ID
	}
	if err := s.payments.Upsert(ctx, s.pool, p); err != nil {
		return nil, err
	}

	return &Checkout{Payment: p, GatewayOrder: gwOrder, KeyID: s.gateway.KeyID()}, nil
}

// Verify validates the callback signature, confirms capture with the
// gateway, and only then completes the payment and advances the order.
// Verifying an already-completed payment is rejected before any
// mutation; under concurrent duplicates the conditional status flip
// lets exactly one verification through.
func (s *Service) Verify(ctx context.Context, userID, orderID, gatewayOrderID, gatewayPaymentID, signature string) (*Verified, error) {
	if !s.gateway.VerifySignature(gatewayOrderID, gatewayPaymentID, signature) {
		return nil, apperr.New(apperr.KindSignatureMismatch, "invalid payment signature")
	}

	ord, err := s.loadOwnedOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	p, err := s.payments.GetByOrderID(ctx, s.pool, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "payment not found for this order")
		}
		return nil, err
	}
	if p.Status == StatusCompleted {
		return nil, apperr.New(apperr.KindConflict, "payment already verified")
	}

	gwPayment, err := s.gateway.FetchPayment(ctx, gatewayPaymentID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "failed to confirm payment with gateway", err)
	}
	if gwPayment.Status != GatewayPaymentCaptured {
		if gwPayment.Status == "failed" {
			if err := s.markFailed(ctx, p, ord); err != nil {
				return nil, err
			}
		}
		return nil, apperr.Newf(apperr.KindConflict, "payment was not captured (gateway status %q)", gwPayment.Status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ok, err := s.payments.MarkCompleted(ctx, tx, orderID, gatewayPaymentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent verification got here first.
		return nil, apperr.New(apperr.KindConflict, "payment already verified")
	}
	if err := s.orders.MarkPaid(ctx, tx, orderID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	p, err = s.payments.GetByOrderID(ctx, s.pool, orderID)
	if err != nil {
		return nil, err
	}
	ord, err = s.orders.GetByID(ctx, s.pool, orderID)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.events.PublishPaymentCompleted(ctx, p, ord); err != nil {
			s.logger.Printf("publish payment.completed for %s: %v", p.ID, err)
		}
	}
	return &Verified{Payment: p, Order: ord}, nil
}

// Refund returns money through the gateway and then, in one
// transaction, marks the payment REFUNDED and cancels the order, which
// restores stock. A partial amount still cancels the whole order, the
// same way the storefront has always behaved.
func (s *Service) Refund(ctx context.Context, userID, paymentID string, amount *float64, reason string) (*Refunded, error) {
	p, err := s.payments.GetByID(ctx, s.pool, paymentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "payment not found")
		}
		return nil, err
	}

	ord, err := s.loadOwnedOrder(ctx, p.OrderID, userID)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case StatusRefunded:
		return nil, apperr.New(apperr.KindConflict, "payment has already been refunded")
	case StatusCompleted:
	default:
		return nil, apperr.New(apperr.KindConflict, "only completed payments can be refunded")
	}

	refundAmount := p.Amount
	if amount != nil {
		if *amount <= 0 || *amount > p.Amount {
			return nil, apperr.New(apperr.KindValidation, "refund amount must be positive and not exceed the payment amount")
		}
		refundAmount = *amount
	}
	if reason == "" {
		reason = "Customer requested refund"
	}

	gwRefund, err := s.gateway.Refund(ctx, p.TransactionID, GatewayRefundRequest{
		AmountMinor: MinorUnits(refundAmount),
		Notes:       map[string]string{"reason": reason},
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "failed to process refund", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ok, err := s.payments.MarkRefunded(ctx, tx, p.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.New(apperr.KindConflict, "payment has already been refunded")
	}
	if err := s.canceller.CancelTx(ctx, tx, ord); err != nil {
		return nil, err
	}
	if err := s.orders.UpdatePaymentStatus(ctx, tx, ord.ID, order.PaymentStatusRefunded); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	p, err = s.payments.GetByID(ctx, s.pool, paymentID)
	if err != nil {
		return nil, err
	}
	ord, err = s.orders.GetByID(ctx, s.pool, ord.ID)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.events.PublishPaymentRefunded(ctx, p, ord); err != nil {
			s.logger.Printf("publish payment.refunded for %s: %v", p.ID, err)
		}
	}
	return &Refunded{Payment: p, Order: ord, Refund: gwRefund}, nil
}

func (s *Service) GetByID(ctx context.Context, paymentID, userID string) (*Payment, error) {
	p, err := s.payments.GetByID(ctx, s.pool, paymentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "payment not found")
		}
		return nil, err
	}
	if _, err := s.loadOwnedOrder(ctx, p.OrderID, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetByOrderID(ctx context.Context, orderID, userID string) (*Payment, error) {
	if _, err := s.loadOwnedOrder(ctx, orderID, userID); err != nil {
		return nil, err
	}
	p, err := s.payments.GetByOrderID(ctx, s.pool, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "payment not found for this order")
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.payments.Stats(ctx, s.pool)
}

func (s *Service) loadOwnedOrder(ctx context.Context, orderID, userID string) (*order.Order, error) {
	ord, err := s.orders.GetByID(ctx, s.pool, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "order not found")
		}
		return nil, err
	}
	if ord.UserID != userID {
		return nil, apperr.New(apperr.KindForbidden, "order belongs to another user")
	}
	return ord, nil
}

// markFailed records a gateway-side capture failure. Payment and order
// payment_status move together in one transaction.
func (s *Service) markFailed(ctx context.Context, p *Payment, ord *order.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`UPDATE payments SET status = 'FAILED', updated_at = now() WHERE id = $1 AND status = 'PENDING'`,
		p.ID)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	if err := s.orders.UpdatePaymentStatus(ctx, tx, ord.ID, order.PaymentStatusFailed); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
