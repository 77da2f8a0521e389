package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/peng-yewang/YGMall/shared/events"
	"github.com/peng-yewang/YGMall/trade-service/internal/repository"
)

type OutboxEventMessageRelayerRepository struct {
	*repository.Queries
}

func NewOutboxEventMessageRelayerRepository(db repository.DBTX) *OutboxEventMessageRelayerRepository {
	return &OutboxEventMessageRelayerRepository{
		Queries: repository.New(db),
	}
}

func (r *OutboxEventMessageRelayerRepository) GetUnpublishedOutboxEvents(ctx context.Context, limit int32) ([]events.OutboxEvent, error) {
	outboxEvents, err := r.Queries.GetUnpublishedOutboxEvents(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := make([]events.OutboxEvent, 0, len(outboxEvents))
	for _, oe := range outboxEvents {
		result = append(result, events.OutboxEvent{
			ID:          oe.ID.String(),
			AggregateID: oe.AggregateID,
			EventName:   oe.EventName,
			Payload:     oe.Payload,
			Status:      oe.Status,
		})
	}

	return result, nil
}

func (r *OutboxEventMessageRelayerRepository) UpdateOutboxEventStatus(ctx context.Context, eventID, status string) error {
	eventUUID, err := parseIDStringToUUID(eventID)
	if err != nil {
		return err
	}
	return r.Queries.UpdateOutboxEventStatus(ctx, repository.UpdateOutboxEventStatusParams{
		ID:     eventUUID,
		Status: status,
	})
}

func parseIDStringToUUID(id string) (pgtype.UUID, error) {
	var uuid pgtype.UUID
	if err := uuid.Scan(id); err != nil {
		return pgtype.UUID{}, err
	}
	return uuid, nil
}
