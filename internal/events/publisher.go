package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xact-softwaresolution/e-cart/internal/catalog"
	"github.com/xact-softwaresolution/e-cart/internal/inventory"
	"github.com/xact-softwaresolution/e-cart/internal/order"
	"github.com/xact-softwaresolution/e-cart/internal/payment"
)

// Publisher emits checkout lifecycle events on the shared topic
// exchange. Events are published after the owning transaction commits;
// consumers (notifications, analytics) are outside this service.
type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

type OrderItemPayload struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type OrderCreated struct {
	EventID     string             `json:"eventId"`
	EventType   string             `json:"eventType"`
	OrderID     string             `json:"orderId"`
	UserID      string             `json:"userId"`
	TotalAmount float64            `json:"totalAmount"`
	Items       []OrderItemPayload `json:"items"`
	Timestamp   time.Time          `json:"timestamp"`
}

type OrderStatusChanged struct {
	EventID        string    `json:"eventId"`
	EventType      string    `json:"eventType"`
	OrderID        string    `json:"orderId"`
	UserID         string    `json:"userId"`
	PreviousStatus string    `json:"previousStatus"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

type PaymentEvent struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	PaymentID string    `json:"paymentId"`
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type StockAdjusted struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	ProductID string    `json:"productId"`
	Delta     int       `json:"delta"`
	Stock     int       `json:"stock"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	ev := OrderCreated{
		EventID:     uuid.NewString(),
		EventType:   OrderCreatedRoutingKey,
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Timestamp:   time.Now().UTC(),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderItemPayload{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return p.publishJSON(ctx, OrderCreatedRoutingKey, ev)
}

func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, o *order.Order, previous order.Status) error {
	ev := OrderStatusChanged{
		EventID:        uuid.NewString(),
		EventType:      OrderStatusChangedRoutingKey,
		OrderID:        o.ID,
		UserID:         o.UserID,
		PreviousStatus: string(previous),
		Status:         string(o.Status),
		Timestamp:      time.Now().UTC(),
	}
	return p.publishJSON(ctx, OrderStatusChangedRoutingKey, ev)
}

func (p *Publisher) PublishPaymentCompleted(ctx context.Context, pay *payment.Payment, o *order.Order) error {
	return p.publishJSON(ctx, PaymentCompletedRoutingKey, p.paymentEvent(PaymentCompletedRoutingKey, pay, o))
}

func (p *Publisher) PublishPaymentRefunded(ctx context.Context, pay *payment.Payment, o *order.Order) error {
	return p.publishJSON(ctx, PaymentRefundedRoutingKey, p.paymentEvent(PaymentRefundedRoutingKey, pay, o))
}

func (p *Publisher) paymentEvent(eventType string, pay *payment.Payment, o *order.Order) PaymentEvent {
	return PaymentEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		PaymentID: pay.ID,
		OrderID:   pay.OrderID,
		UserID:    o.UserID,
		Amount:    pay.Amount,
		Currency:  pay.Currency,
		Status:    string(pay.Status),
		Timestamp: time.Now().UTC(),
	}
}

func (p *Publisher) PublishStockAdjusted(ctx context.Context, prod catalog.Product, delta int, reason inventory.Reason) error {
	ev := StockAdjusted{
		EventID:   uuid.NewString(),
		EventType: StockAdjustedRoutingKey,
		ProductID: prod.ID,
		Delta:     delta,
		Stock:     prod.Stock,
		Reason:    string(reason),
		Timestamp: time.Now().UTC(),
	}
	return p.publishJSON(ctx, StockAdjustedRoutingKey, ev)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, ev any) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}
	return p.ch.PublishWithContext(ctx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}
