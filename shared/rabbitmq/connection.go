package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/retry"
	"github.com/rabbitmq/amqp091-go"
)

const (
	maxOpAttempts        = 3
	opBackoff            = 100 * time.Millisecond
	failedToReconnectMsg = "failed to reopen confirm channel: %w"
	confirmBufferSize    = 64
)

var reconnectPolicy = retry.Config{
	MaxAttempts:   10,
	InitialDelay:  time.Second,
	MaxDelay:      30 * time.Second,
	BackoffFactor: 2,
	JitterEnabled: true,
}

// connectionManager owns one connection and one confirm-mode channel. The
// confirms and returns listeners belong to the channel, so they are replaced
// together with it on every reconnect.
type connectionManager struct {
	mu         sync.Mutex
	logger     logs.Logger
	url        string
	connection *amqp091.Connection
	channel    *amqp091.Channel
	confirms   chan amqp091.Confirmation
	returns    chan amqp091.Return
}

func newConnectionManager(logger logs.Logger, url string) (*connectionManager, error) {
	manager := &connectionManager{
		logger: logger,
		url:    url,
	}

	if err := manager.connect(); err != nil {
		return nil, err
	}

	return manager, nil
}

// connect dials the broker and opens a channel in confirm mode, so every
// publish is answered with an ack or nack and unroutable mandatory messages
// come back on the returns channel.
func (cm *connectionManager) connect() error {
	conn, err := amqp091.Dial(cm.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to put channel into confirm mode: %w", err)
	}

	cm.mu.Lock()
	oldConn, oldCh := cm.connection, cm.channel
	cm.connection = conn
	cm.channel = ch
	cm.confirms = ch.NotifyPublish(make(chan amqp091.Confirmation, confirmBufferSize))
	cm.returns = ch.NotifyReturn(make(chan amqp091.Return, confirmBufferSize))
	cm.mu.Unlock()

	// Closing the old channel closes its confirm listeners, which wakes any
	// publisher still waiting on them with ErrConfirmsClosed.
	if oldCh != nil && !oldCh.IsClosed() {
		oldCh.Close()
	}
	if oldConn != nil && !oldConn.IsClosed() {
		oldConn.Close()
	}

	cm.logger.Info("rabbitmq confirm channel ready")
	return nil
}

func (cm *connectionManager) reconnect(ctx context.Context) error {
	for attempt := 1; attempt <= reconnectPolicy.MaxAttempts; attempt++ {
		delay := retry.ExponentialBackoffWithJitter(attempt, reconnectPolicy)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if err := cm.connect(); err != nil {
			cm.logger.Error("failed to reopen confirm channel", "error", err, "attempt", attempt, "delay", delay)
			continue
		}
		cm.logger.Info("confirm channel reopened", "attempt", attempt)
		return nil
	}
	return fmt.Errorf("confirm channel still down after %d attempts", reconnectPolicy.MaxAttempts)
}

// isTransient reports errors that a fresh connection may cure.
func isTransient(err error) bool {
	if errors.Is(err, amqp091.ErrClosed) || errors.Is(err, ErrConfirmsClosed) {
		return true
	}

	var amqpErr *amqp091.Error
	if errors.As(err, &amqpErr) {
		return amqpErr.Recover || amqpErr.Code == amqp091.ConnectionForced || amqpErr.Code == amqp091.ChannelError
	}
	return false
}

func (cm *connectionManager) isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if isTransient(err) {
		return true
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.connection == nil || cm.connection.IsClosed() || cm.channel == nil || cm.channel.IsClosed()
}

func (cm *connectionManager) Close() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.channel != nil {
		cm.channel.Close()
	}
	if cm.connection != nil {
		cm.connection.Close()
	}
	cm.logger.Info("rabbitmq connection manager closed")
}

func (cm *connectionManager) Ping() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.connection == nil || cm.connection.IsClosed() {
		return fmt.Errorf("rabbitmq connection is closed")
	}
	if cm.channel == nil || cm.channel.IsClosed() {
		return fmt.Errorf("rabbitmq confirm channel is closed")
	}
	return nil
}

// retryWithReconnect runs op, reopening the confirm channel between attempts
// when op failed on a broken connection.
func (cm *connectionManager) retryWithReconnect(ctx context.Context, opName string, op func() error) error {
	var err error
	for attempt := 1; attempt <= maxOpAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !cm.isConnectionError(err) || attempt == maxOpAttempts {
			return err
		}

		cm.logger.Warn(opName+": confirm channel broken, reopening", "attempt", attempt, "error", err)
		if reconnErr := cm.reconnect(ctx); reconnErr != nil {
			return fmt.Errorf(failedToReconnectMsg, reconnErr)
		}
		time.Sleep(opBackoff * time.Duration(attempt))
	}
	return err
}

func (cm *connectionManager) consumeMessages(ctx context.Context, consumerTag string, msgs <-chan amqp091.Delivery, handler func(ctx context.Context, d amqp091.Delivery)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed for consumer %s", consumerTag)
			}
			go func(delivery amqp091.Delivery) {
				handlerCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				defer cancel()
				handler(handlerCtx, delivery)
			}(d)
		}
	}
}
