package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "ecart.events"

	OrderCreatedRoutingKey       = "order.created.v1"
	OrderStatusChangedRoutingKey = "order.status_changed.v1"
	PaymentCompletedRoutingKey   = "payment.completed.v1"
	PaymentRefundedRoutingKey    = "payment.refunded.v1"
	StockAdjustedRoutingKey      = "stock.adjusted.v1"
)

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
