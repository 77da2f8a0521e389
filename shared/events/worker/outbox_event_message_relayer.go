package worker

import (
	"context"
	"time"

	"github.com/peng-yewang/YGMall/shared/events"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/rabbitmq"
)

type OutboxEventRepository interface {
	GetUnpublishedOutboxEvents(ctx context.Context, limit int32) ([]events.OutboxEvent, error)
	UpdateOutboxEventStatus(ctx context.Context, eventID, status string) error
}

type Publisher interface {
	Publish(ctx context.Context, opts rabbitmq.PublishOptions) (rabbitmq.Confirmation, error)
}

type OutboxEventMessageRelayer struct {
	logger       logs.Logger
	publisher    Publisher
	repo         OutboxEventRepository
	pollInterval time.Duration
	batchSize    int32
}

func NewOutboxEventMessageRelayer(
	logger logs.Logger,
	publisher Publisher,
	repo OutboxEventRepository,
	pollInterval time.Duration,
	batchSize int32,
) *OutboxEventMessageRelayer {
	return &OutboxEventMessageRelayer{
		logger:       logger,
		publisher:    publisher,
		repo:         repo,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

func (oemr *OutboxEventMessageRelayer) Start(ctx context.Context) {
	oemr.logger.Info("starting outbox event message relayer worker")
	ticker := time.NewTicker(oemr.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := oemr.processEvents(ctx); err != nil {
				oemr.logger.Error("error processing outbox events", "error", err)
			}
		case <-ctx.Done():
			oemr.logger.Info("stopping outbox event message relayer worker")
			return
		}
	}
}

// processEvents relays one batch. An event is only marked published once the
// broker acks it; nacked events stay pending for the next poll and returned
// events are parked as unroutable so they stop cycling.
func (oemr *OutboxEventMessageRelayer) processEvents(ctx context.Context) error {
	pending, err := oemr.repo.GetUnpublishedOutboxEvents(ctx, oemr.batchSize)
	if err != nil {
		return err
	}

	for _, event := range pending {
		exchange, routingKey := events.SplitEventName(event.EventName)
		confirmation, err := oemr.publisher.Publish(ctx, rabbitmq.PublishOptions{
			Exchange:     exchange,
			ExchangeType: rabbitmq.ExchangeTopic,
			RoutingKey:   routingKey,
			MessageID:    event.ID,
			Body:         event.Payload,
		})
		if err != nil {
			oemr.logger.Error("failed to publish outbox event", "eventID", event.ID, "error", err)
			continue
		}

		var status string
		switch confirmation.Outcome {
		case rabbitmq.OutcomeAck:
			status = events.OutboxStatusPublished
		case rabbitmq.OutcomeReturned:
			oemr.logger.Error("outbox event is unroutable", "eventID", event.ID, "eventName", event.EventName, "replyCode", confirmation.ReplyCode, "replyText", confirmation.ReplyText)
			status = events.OutboxStatusUnroutable
		default:
			oemr.logger.Warn("outbox event nacked by broker, will retry", "eventID", event.ID, "eventName", event.EventName)
			continue
		}

		if err := oemr.repo.UpdateOutboxEventStatus(ctx, event.ID, status); err != nil {
			oemr.logger.Error("failed to update outbox event status", "eventID", event.ID, "error", err)
			continue
		}

		oemr.logger.Info("relayed outbox event", "eventID", event.ID, "status", status)
	}

	return nil
}
