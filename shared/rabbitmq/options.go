package rabbitmq

import (
	"context"

	"github.com/rabbitmq/amqp091-go"
)

type ExchangeType string

const (
	ExchangeFanout ExchangeType = "fanout"
	ExchangeTopic  ExchangeType = "topic"
	ExchangeDirect ExchangeType = "direct"
)

// PublishOptions describes one mandatory, persistent publish. An empty
// MessageID is replaced with a fresh uuid; it is also how a basic.return is
// matched to its publish.
type PublishOptions struct {
	Exchange     string
	ExchangeType ExchangeType
	RoutingKey   string
	MessageID    string
	Body         []byte
}

// SubscribeOptions binds QueueName to Exchange with BindingKey. Rejected
// deliveries go to the queue's dead-letter pair, see DeadLetterNames.
type SubscribeOptions struct {
	Exchange     string
	ExchangeType ExchangeType
	QueueName    string
	ConsumerTag  string
	BindingKey   string
	Handler      func(ctx context.Context, d amqp091.Delivery)
}

// DeadLetterNames returns the dead-letter exchange and queue declared for a
// subscription.
func (o SubscribeOptions) DeadLetterNames() (exchange, queue string) {
	return o.Exchange + ".dlx", o.QueueName + ".dlq"
}
