package consumers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/peng-yewang/YGMall/shared/events"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/rabbitmq"
	"github.com/rabbitmq/amqp091-go"
)

type PaymentMarker interface {
	MarkPaid(ctx context.Context, orderID int64) (bool, error)
}

type MessageSubscriber interface {
	Subscribe(ctx context.Context, opts rabbitmq.SubscribeOptions) error
}

// PaySuccessConsumer applies payment confirmations. Deliveries are at least
// once, so a confirmation for an order that is no longer UNPAID is acked
// without effect.
type PaySuccessConsumer struct {
	logger     logs.Logger
	orders     PaymentMarker
	subscriber MessageSubscriber
}

func NewPaySuccessConsumer(logger logs.Logger, orders PaymentMarker, subscriber MessageSubscriber) *PaySuccessConsumer {
	return &PaySuccessConsumer{
		logger:     logger,
		orders:     orders,
		subscriber: subscriber,
	}
}

func (c *PaySuccessConsumer) Start(ctx context.Context) error {
	return c.subscriber.Subscribe(ctx, rabbitmq.SubscribeOptions{
		Exchange:     events.PayExchangeName,
		ExchangeType: rabbitmq.ExchangeTopic,
		QueueName:    events.PaySuccessQueueName,
		ConsumerTag:  events.PaySuccessConsumerTag,
		BindingKey:   events.PaySuccessRoutingKey,
		Handler:      c.handlePaySuccessEvent,
	})
}

func (c *PaySuccessConsumer) handlePaySuccessEvent(ctx context.Context, d amqp091.Delivery) {
	event, err := c.unmarshalEvent(d.Body)
	if err != nil {
		c.logger.Error("failed to unmarshal PaySuccessEvent, dead-lettering", "error", err, "messageId", d.MessageId)
		c.nack(d, false)
		return
	}

	c.logger.Debug("received PaySuccessEvent", "orderId", event.OrderID)

	updated, err := c.orders.MarkPaid(ctx, event.OrderID)
	if err != nil {
		c.logger.Error("failed to mark order paid, requeueing", "error", err, "orderId", event.OrderID)
		c.nack(d, true)
		return
	}

	if !updated {
		c.logger.Info("payment confirmation had no effect, order not unpaid", "orderId", event.OrderID)
	}

	if err := d.Ack(false); err != nil {
		c.logger.Error("failed to ack message", "error", err, "orderId", event.OrderID)
	}
}

func (c *PaySuccessConsumer) nack(d amqp091.Delivery, requeue bool) {
	if err := d.Nack(false, requeue); err != nil {
		c.logger.Error("failed to nack message", "error", err, "messageId", d.MessageId)
	}
}

func (c *PaySuccessConsumer) unmarshalEvent(body []byte) (events.PaySuccessEvent, error) {
	var event events.PaySuccessEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return events.PaySuccessEvent{}, err
	}
	if event.OrderID <= 0 {
		return events.PaySuccessEvent{}, fmt.Errorf("invalid order id %d", event.OrderID)
	}
	return event, nil
}
