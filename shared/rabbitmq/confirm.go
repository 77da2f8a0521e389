package rabbitmq

import (
	"context"
	"errors"

	"github.com/rabbitmq/amqp091-go"
)

var ErrConfirmsClosed = errors.New("rabbitmq confirmation channel closed")

type Outcome int

const (
	OutcomeAck Outcome = iota + 1
	OutcomeNack
	OutcomeReturned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAck:
		return "ack"
	case OutcomeNack:
		return "nack"
	case OutcomeReturned:
		return "returned"
	default:
		return "unknown"
	}
}

// Confirmation is the broker's verdict on one published message. A returned
// message was acked by the broker but reached no queue.
type Confirmation struct {
	Outcome     Outcome
	DeliveryTag uint64
	ReplyCode   uint16
	ReplyText   string
}

func (c Confirmation) Acked() bool {
	return c.Outcome == OutcomeAck
}

// awaitConfirmation waits for the confirmation of the message published with
// delivery tag tag. Confirmations for lower tags belong to publishes that gave
// up waiting and are skipped. The broker sends basic.return before the ack of
// the same message, so a return seen by the time the ack arrives wins.
func awaitConfirmation(ctx context.Context, tag uint64, messageID string, confirms <-chan amqp091.Confirmation, returns <-chan amqp091.Return) (Confirmation, error) {
	var returned *amqp091.Return

	for {
		select {
		case r, ok := <-returns:
			if !ok {
				returns = nil
				continue
			}
			if r.MessageId == messageID {
				returned = &r
			}
		case conf, ok := <-confirms:
			if !ok {
				return Confirmation{}, ErrConfirmsClosed
			}
			if conf.DeliveryTag < tag {
				continue
			}
			if returned == nil {
				returned = drainReturn(returns, messageID)
			}

			switch {
			case returned != nil:
				return Confirmation{
					Outcome:     OutcomeReturned,
					DeliveryTag: conf.DeliveryTag,
					ReplyCode:   returned.ReplyCode,
					ReplyText:   returned.ReplyText,
				}, nil
			case conf.Ack:
				return Confirmation{Outcome: OutcomeAck, DeliveryTag: conf.DeliveryTag}, nil
			default:
				return Confirmation{Outcome: OutcomeNack, DeliveryTag: conf.DeliveryTag}, nil
			}
		case <-ctx.Done():
			return Confirmation{}, ctx.Err()
		}
	}
}

func drainReturn(returns <-chan amqp091.Return, messageID string) *amqp091.Return {
	if returns == nil {
		return nil
	}
	for {
		select {
		case r, ok := <-returns:
			if !ok {
				return nil
			}
			if r.MessageId == messageID {
				return &r
			}
		default:
			return nil
		}
	}
}
