package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/peng-yewang/YGMall/shared/apperr"
	"github.com/peng-yewang/YGMall/shared/events"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/rabbitmq"
)

type Publisher interface {
	Publish(ctx context.Context, opts rabbitmq.PublishOptions) (rabbitmq.Confirmation, error)
}

// PayService announces settled payments. It keeps no state; the trade
// service owns the order and applies the event at least once.
type PayService struct {
	publisher Publisher
	logger    logs.Logger
	now       func() time.Time
}

func NewPayService(publisher Publisher, logger logs.Logger) *PayService {
	return &PayService{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ConfirmPaySuccess publishes a PaySuccessEvent for orderID and returns the
// broker's verdict. An error means the outcome is unknown.
func (s *PayService) ConfirmPaySuccess(ctx context.Context, orderID int64) (rabbitmq.Confirmation, error) {
	if orderID <= 0 {
		return rabbitmq.Confirmation{}, apperr.Validation("payment", "order id must be positive")
	}

	body, err := json.Marshal(events.PaySuccessEvent{OrderID: orderID, PaidAt: s.now().UTC()})
	if err != nil {
		return rabbitmq.Confirmation{}, apperr.Internal("failed to encode pay success event", err)
	}

	messageID := uuid.NewString()
	confirmation, err := s.publisher.Publish(ctx, rabbitmq.PublishOptions{
		Exchange:     events.PayExchangeName,
		ExchangeType: rabbitmq.ExchangeTopic,
		RoutingKey:   events.PaySuccessRoutingKey,
		MessageID:    messageID,
		Body:         body,
	})
	if err != nil {
		s.logger.Error("failed to publish pay success event", "orderId", orderID, "messageId", messageID, "error", err)
		return rabbitmq.Confirmation{}, apperr.Dependency("broker", err)
	}

	if confirmation.Acked() {
		s.logger.Info("pay success event published", "orderId", orderID, "messageId", messageID)
	} else {
		s.logger.Warn("pay success event not accepted", "orderId", orderID, "messageId", messageID,
			"outcome", confirmation.Outcome.String(), "replyCode", confirmation.ReplyCode, "replyText", confirmation.ReplyText)
	}
	return confirmation, nil
}
