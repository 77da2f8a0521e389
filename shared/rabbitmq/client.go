package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	*connectionManager
	publishMu sync.Mutex
}

func NewClient(logger logs.Logger, url string) (*Client, error) {
	manager, err := newConnectionManager(logger, url)
	if err != nil {
		return nil, err
	}
	return &Client{connectionManager: manager}, nil
}

// Publish sends a mandatory, persistent message and blocks until the broker
// acks, nacks or returns it. Only an error means the outcome is unknown.
func (c *Client) Publish(ctx context.Context, opts PublishOptions) (Confirmation, error) {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	var confirmation Confirmation
	err := c.retryWithReconnect(ctx, "publish", func() error {
		if err := c.ensureExchange(opts.Exchange, opts.ExchangeType); err != nil {
			return err
		}

		result, err := c.publishAndWait(ctx, opts)
		if err != nil {
			return err
		}
		confirmation = result
		return nil
	})
	if err != nil {
		return Confirmation{}, err
	}

	c.logConfirmation(opts, confirmation)
	return confirmation, nil
}

func (c *Client) publishAndWait(ctx context.Context, opts PublishOptions) (Confirmation, error) {
	c.mu.Lock()
	ch, confirms, returns := c.channel, c.confirms, c.returns
	c.mu.Unlock()

	messageID := opts.MessageID
	if messageID == "" {
		messageID = uuid.NewString()
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    messageID,
		Body:         opts.Body,
		Timestamp:    time.Now(),
	}

	tag := ch.GetNextPublishSeqNo()
	if err := ch.PublishWithContext(ctx, opts.Exchange, opts.RoutingKey, true, false, publishing); err != nil {
		return Confirmation{}, err
	}

	return awaitConfirmation(ctx, tag, messageID, confirms, returns)
}

func (c *Client) logConfirmation(opts PublishOptions, confirmation Confirmation) {
	switch confirmation.Outcome {
	case OutcomeAck:
		c.logger.Debug("message confirmed by broker", "exchange", opts.Exchange, "routingKey", opts.RoutingKey, "deliveryTag", confirmation.DeliveryTag)
	case OutcomeNack:
		c.logger.Warn("message nacked by broker", "exchange", opts.Exchange, "routingKey", opts.RoutingKey, "deliveryTag", confirmation.DeliveryTag)
	case OutcomeReturned:
		c.logger.Error(
			"message returned as unroutable",
			"exchange", opts.Exchange,
			"routingKey", opts.RoutingKey,
			"replyCode", confirmation.ReplyCode,
			"replyText", confirmation.ReplyText,
		)
	}
}

func (c *Client) ensureExchange(name string, exchangeType ExchangeType) error {
	return c.channel.ExchangeDeclare(
		name,
		string(exchangeType),
		true,
		false,
		false,
		false,
		nil,
	)
}

func (c *Client) Subscribe(ctx context.Context, opts SubscribeOptions) error {
	for {
		if err := c.setupSubscription(opts); err != nil {
			if !c.isConnectionError(err) {
				return fmt.Errorf("failed to setup subscription: %w", err)
			}
			c.logger.Warn("subscription setup hit a broken channel, reopening", "queue", opts.QueueName, "error", err)
			if reconnErr := c.reconnect(ctx); reconnErr != nil {
				return fmt.Errorf("failed to reconnect during subscription setup: %w", reconnErr)
			}
			c.logger.Info("reconnected, retrying subscription setup")
			continue
		}

		msgs, err := c.channel.Consume(
			opts.QueueName,
			opts.ConsumerTag,
			false,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to start consuming: %w", err)
		}

		c.logger.Info("consumer subscribed", "consumerTag", opts.ConsumerTag, "queue", opts.QueueName)

		err = c.consumeMessages(ctx, opts.ConsumerTag, msgs, opts.Handler)

		if ctx.Err() != nil {
			c.logger.Info("context cancelled, stopping consumer", "consumerTag", opts.ConsumerTag)
			return ctx.Err()
		}

		c.logger.Warn("consumer lost its channel, reopening", "consumerTag", opts.ConsumerTag, "error", err)

		if err := c.reconnect(ctx); err != nil {
			return fmt.Errorf(failedToReconnectMsg, err)
		}

		c.logger.Info("resubscribing consumer after reconnection", "consumerTag", opts.ConsumerTag)
	}
}

func (c *Client) setupSubscription(opts SubscribeOptions) error {
	if err := c.channel.Qos(10, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	dlxName, dlqName := opts.DeadLetterNames()

	if err := c.channel.ExchangeDeclare(dlxName, string(ExchangeTopic), true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLX %s: %w", dlxName, err)
	}

	if _, err := c.channel.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ %s: %w", dlqName, err)
	}

	if err := c.channel.QueueBind(dlqName, "#", dlxName, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ to DLX: %w", err)
	}

	if err := c.ensureExchange(opts.Exchange, opts.ExchangeType); err != nil {
		return fmt.Errorf("failed to declare main exchange %s: %w", opts.Exchange, err)
	}

	args := amqp091.Table{"x-dead-letter-exchange": dlxName}
	if _, err := c.channel.QueueDeclare(opts.QueueName, true, false, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", opts.QueueName, err)
	}

	if err := c.channel.QueueBind(opts.QueueName, opts.BindingKey, opts.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue to exchange: %w", err)
	}

	return nil
}
